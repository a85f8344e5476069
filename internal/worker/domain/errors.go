package domain

import "errors"

var (
	// ErrInvalidEvent is returned when a delivery body is not a lifecycle event
	ErrInvalidEvent = errors.New("invalid lifecycle event")

	// ErrUnknownEvent is returned for event kinds the worker has no template for
	ErrUnknownEvent = errors.New("unknown event kind")

	// ErrRecipientNotFound is returned when a party to the job no longer exists
	ErrRecipientNotFound = errors.New("recipient not found")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
