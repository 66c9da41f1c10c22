package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound covers absent, expired and unreadable sessions alike.
// Callers treat it as a valid state, never as a failure.
var ErrSessionNotFound = errors.New("session not found")

// ErrCorruptRecord marks a durable session record that could not be decoded.
// Stores log it and degrade to ErrSessionNotFound at their boundary.
var ErrCorruptRecord = errors.New("corrupt session record")

// CollaboratorError wraps a failure from an external collaborator (STT, NLU,
// banking backend) so the request layer can tell the user which leg failed.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s collaborator: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

func NewCollaboratorError(name string, err error) *CollaboratorError {
	return &CollaboratorError{Collaborator: name, Err: err}
}

// IsCollaboratorError extracts a CollaboratorError from an error chain.
func IsCollaboratorError(err error) (*CollaboratorError, bool) {
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
