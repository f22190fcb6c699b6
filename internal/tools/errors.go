package tools

import (
	"errors"
	"net/http"
)

// Domain errors for catalog operations.
var (
	ErrNotFound          = errors.New("tool not found")
	ErrUnknownKind       = errors.New("unknown tool kind")
	ErrInvalidDescriptor = errors.New("invalid tool descriptor")
)

// MapHTTPStatus maps domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnknownKind) || errors.Is(err, ErrInvalidDescriptor) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
