package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a job (or the acting user) does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a job is no longer in a state that allows the transition,
	// most commonly because another translator accepted it first
	ErrConflict = errors.New("job no longer available")

	// ErrForbidden is returned when the actor has no rights over the job
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput is returned for unparsable or out-of-range time values
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidation is the sentinel every ValidationError unwraps to
	ErrValidation = errors.New("validation failed")

	// ErrNoRecord is the storage-level signal for a missing row
	ErrNoRecord = errors.New("record not found")
)

// ValidationError reports a missing or malformed required field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a ValidationError for field
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
