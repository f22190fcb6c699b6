package templates

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/agent-forge/pkg/handlers"
)

// Domain errors for template operations.
var (
	ErrNotFound                 = errors.New("template not found")
	ErrInvalidTemplate          = errors.New("invalid template")
	ErrUnsupportedCustomization = errors.New("customization not supported by template")
)

// MapHTTPStatus maps domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnsupportedCustomization):
		return http.StatusBadRequest
	case errors.Is(err, handlers.ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
