package agents

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/agent-forge/internal/compiler"
	"github.com/JaimeStill/agent-forge/internal/specs"
)

// Domain errors for registry operations.
var (
	ErrNotFound             = errors.New("agent not found")
	ErrDuplicateSlug        = errors.New("agent slug already exists")
	ErrInvalidSpecification = errors.New("invalid agent specification")
	ErrInvalidStatus        = errors.New("invalid agent status")
	ErrInvalidUsage         = errors.New("invalid usage report")
	ErrEmptyPrompt          = errors.New("prompt is required")
	ErrInactive             = errors.New("agent is inactive")
	ErrBuild                = errors.New("agent build failed")
	ErrExecution            = errors.New("agent execution failed")
)

// ValidationError carries the result that rejected a specification.
type ValidationError struct {
	Result specs.Result
}

func (e *ValidationError) Error() string {
	return ErrInvalidSpecification.Error()
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidSpecification
}

// MapHTTPStatus maps domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateSlug), errors.Is(err, ErrInactive):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidSpecification):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidUsage), errors.Is(err, ErrEmptyPrompt):
		return http.StatusBadRequest
	case errors.Is(err, ErrBuild), errors.Is(err, ErrExecution):
		return http.StatusBadGateway
	}
	if status := compiler.MapHTTPStatus(err); status != http.StatusInternalServerError {
		return status
	}
	return http.StatusInternalServerError
}
