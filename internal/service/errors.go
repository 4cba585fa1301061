package service

import (
	"errors"
	"fmt"

	"storyline/internal/timeline"
)

var (
	// ErrNotFound is returned when a story, scene or character does not exist.
	ErrNotFound = timeline.ErrNotFound
	// ErrUnavailable is returned when an optional collaborator is not configured.
	ErrUnavailable = errors.New("service unavailable")
	// ErrDiscarded is returned when an asynchronous result arrived after its
	// target changed and was not applied.
	ErrDiscarded = errors.New("result discarded")
	// ErrClosed is returned by a workspace after its story was closed.
	ErrClosed = errors.New("workspace closed")
)

// ValidationError represents a validation error with a field name.
type ValidationError = timeline.ValidationError

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
