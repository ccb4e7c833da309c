package llm

import (
	"errors"
	"fmt"
)

// Failure classes. Transport failures and empty completions are retryable;
// malformed model output is deterministic and never retried.
var (
	ErrEmptyCompletion   = errors.New("empty completion content")
	ErrMalformedResponse = errors.New("malformed model response")
)

// CompletionError is a transport or availability failure from the
// completion endpoint. It is the retryable class.
type CompletionError struct {
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *CompletionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("completion endpoint error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("completion endpoint error: %s", e.Message)
}

// Unwrap exposes the underlying cause.
func (e *CompletionError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether an error belongs to the retryable failure
// class. Retries apply only to the completion call, never to parsing or
// schema coercion.
func IsRetryable(err error) bool {
	var completionErr *CompletionError
	if errors.As(err, &completionErr) {
		return true
	}
	return errors.Is(err, ErrEmptyCompletion)
}

// ServiceError is the single unified error kind surfaced by the assessment
// service for any unrecoverable step.
type ServiceError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("llm service: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying cause so callers can still distinguish
// failure classes with errors.Is/As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}
