package specs

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/agent-forge/pkg/handlers"
)

// ErrParse reports that no JSON object could be recovered from the input.
var ErrParse = errors.New("specification parse failed")

// MapHTTPStatus maps domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrParse) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, handlers.ErrBodyTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}
