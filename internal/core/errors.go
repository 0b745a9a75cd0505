package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated rejects a connection attempt: missing, invalid or
	// expired token, or a token whose user no longer exists.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotJoined is returned when an event names a room the session is not in.
	ErrNotJoined = errors.New("not joined to room")
	// ErrRoomNotFound is returned when no room record exists for a code.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomCodeTaken is returned when creating a room whose code is in use.
	ErrRoomCodeTaken = errors.New("room code already in use")
	// ErrUserNotFound is returned when no user record exists for an id.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoSession is returned for events from a session that is not bound.
	ErrNoSession = errors.New("session not found")
	// ErrRateLimited is returned when a user sends faster than allowed.
	ErrRateLimited = errors.New("rate limited")
)

// ValidationError reports a malformed event payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// NewValidationError is shorthand for &ValidationError{...}.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// PersistenceError wraps a store failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err unless it is nil or already a domain sentinel the
// caller should see unchanged.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrRoomCodeTaken) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
