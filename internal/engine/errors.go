package engine

import (
	"errors"
	"fmt"
)

// JoinError reports that the host could not create the virtual participant.
//
// JoinError is recovered locally: the session logs it and stays detached.
// The next presence change retries naturally.
type JoinError struct {
	// Document names the session's document.
	Document string

	// User is the requested participant name.
	User string

	// Err is the host's error.
	Err error
}

// Error implements the error interface.
func (e *JoinError) Error() string {
	return fmt.Sprintf("join %q to %q: %v", e.User, e.Document, e.Err)
}

// Unwrap returns the host's error.
func (e *JoinError) Unwrap() error {
	return e.Err
}

// IsJoinError returns true if err is or wraps a *JoinError.
func IsJoinError(err error) bool {
	var je *JoinError
	return errors.As(err, &je)
}
