package compiler

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels matched by *Error through errors.Is.
var (
	ErrPreconditionFailed = errors.New("compile precondition failed")
	ErrUnresolvedTool     = errors.New("unresolved tool")
	ErrMissingEnvVar      = errors.New("missing environment variable")
)

// ErrorKind classifies a compilation failure.
type ErrorKind string

const (
	PreconditionFailed ErrorKind = "precondition_failed"
	UnresolvedTool     ErrorKind = "unresolved_tool"
	MissingEnvVar      ErrorKind = "missing_env_var"
)

// Error is a compilation failure. Tool and Var are set when the kind
// concerns a specific tool or environment variable.
type Error struct {
	Kind   ErrorKind
	Tool   string
	Var    string
	Reason string
}

func (e *Error) Error() string {
	switch e.Kind {
	case UnresolvedTool:
		return fmt.Sprintf("%s: %s: %s", ErrUnresolvedTool, e.Tool, e.Reason)
	case MissingEnvVar:
		return fmt.Sprintf("%s: %s requires %s", ErrMissingEnvVar, e.Tool, e.Var)
	default:
		return fmt.Sprintf("%s: %s", ErrPreconditionFailed, e.Reason)
	}
}

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case PreconditionFailed:
		return target == ErrPreconditionFailed
	case UnresolvedTool:
		return target == ErrUnresolvedTool
	case MissingEnvVar:
		return target == ErrMissingEnvVar
	}
	return false
}

// MapHTTPStatus maps domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrPreconditionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUnresolvedTool):
		return http.StatusConflict
	case errors.Is(err, ErrMissingEnvVar):
		return http.StatusFailedDependency
	}
	return http.StatusInternalServerError
}
