package catalog

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is the umbrella sentinel every validation failure wraps;
// callers can match it to map any of them to a 400.
var ErrInvalidRequest = errors.New("invalid request")

var (
	ErrInvalidLimit       = fmt.Errorf("%w: limit must be positive", ErrInvalidRequest)
	ErrInvalidOffset      = fmt.Errorf("%w: offset must not be negative", ErrInvalidRequest)
	ErrUnknownCategory    = fmt.Errorf("%w: unknown category", ErrInvalidRequest)
	ErrMalformedProductID = fmt.Errorf("%w: malformed product id", ErrInvalidRequest)
	ErrInvalidConfidence  = fmt.Errorf("%w: confidence out of range", ErrInvalidRequest)
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
