package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is() checking.
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrConflict    = errors.New("conflict")
	ErrForbidden   = errors.New("forbidden")
	ErrUnavailable = errors.New("unavailable")

	// ErrTransition marks an aggregate operation invoked outside its legal
	// source state(s). The aggregate is left unmutated.
	ErrTransition = errors.New("unsupported state transition")
)

// ValidationError provides programmatic access to field-level validation failures.
// Use errors.Is(err, ErrValidation) for simple checks, or errors.As(err, &verr) to
// access verr.Fields for per-field error details.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// TransitionError reports an illegal aggregate state transition. It records
// the state the aggregate was in and the operation that was attempted so
// callers and logs can name both. Use errors.Is(err, ErrTransition) for
// simple checks, or errors.As(err, &terr) for the details.
type TransitionError struct {
	State     string
	Operation string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: operation %q is not legal in state %q", ErrTransition.Error(), e.Operation, e.State)
}

func (e *TransitionError) Unwrap() error {
	return ErrTransition
}

// NewTransitionError creates a TransitionError for the given current state
// and attempted operation name.
func NewTransitionError(state, operation string) *TransitionError {
	return &TransitionError{State: state, Operation: operation}
}
