package providers

import (
	"errors"
	"net/http"
)

// ErrNotFound reports an unconfigured provider name.
var ErrNotFound = errors.New("provider not configured")

// MapHTTPStatus maps domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
