package game

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedAction  = errors.New("malformed action")
	ErrSessionNotFound  = errors.New("session not found")
	ErrAlreadyInSession = errors.New("already in another session")
	ErrSessionFull      = errors.New("session full")
	ErrGameInProgress   = errors.New("game already started")
	ErrNotInSession     = errors.New("not in a session")
	ErrSessionClosed    = errors.New("session closed")
)

// RejectedError is an action refused by the current phase. The reason is
// shown to the acting player only.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return "rejected: " + e.Reason
}

func reject(format string, args ...any) error {
	return &RejectedError{Reason: fmt.Sprintf(format, args...)}
}

// IsRejected reports whether err is a RejectedError.
func IsRejected(err error) bool {
	var rejected *RejectedError
	return errors.As(err, &rejected)
}
