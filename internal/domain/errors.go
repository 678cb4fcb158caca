package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTool is returned for a tool name the editor does not know.
	// Callers treat it as a no-op.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrNotFound is returned when a document id no longer exists.
	ErrNotFound = errors.New("document not found")

	// ErrSubmitInFlight is returned when the same document is already being
	// submitted.
	ErrSubmitInFlight = errors.New("submit already in progress")
)

// SerializationError reports stored shape data that cannot be parsed.
// It ends the edit session; the user can discard and start fresh.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("malformed shape data: %v", e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// NetworkError reports a failed call to the Document Store. Local state is
// left untouched so the user can retry.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Retryable is always true: nothing was changed locally.
func (e *NetworkError) Retryable() bool { return true }

// IsRetryable reports whether err is a NetworkError.
func IsRetryable(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
