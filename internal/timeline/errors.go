package timeline

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a scene or character does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError represents rejected input with the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// NetworkError is a transient failure talking to an external collaborator.
// Callers may retry the operation.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// MalformedResponseError is returned when a structured AI response cannot be parsed.
// Nothing from such a response is applied.
type MalformedResponseError struct {
	Payload string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a failure the author can retry.
func IsRetryable(err error) bool {
	var netErr *NetworkError
	var malformed *MalformedResponseError
	return errors.As(err, &netErr) || errors.As(err, &malformed)
}
