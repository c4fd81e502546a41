package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for payload validation failures.
var (
	ErrEmptyID          = errors.New("empty id")
	ErrUnknownWireType  = errors.New("unknown wire type")
	ErrTooManyNodes     = errors.New("too many nodes")
	ErrTooManyEdges     = errors.New("too many edges")
	ErrEmptySelection   = errors.New("empty selection")
	ErrDuplicateNodeID  = errors.New("duplicate node id")
	ErrSelectionTooLong = errors.New("selection too long")
)

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
