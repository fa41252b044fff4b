package coach

import (
	"errors"
	"fmt"
)

var (
	// ErrTurnInProgress rejects a second concurrent turn for the same session.
	ErrTurnInProgress = errors.New("another turn is in progress for this session")
	// ErrSessionOwner is returned when a session id is reused by a different applicant.
	ErrSessionOwner = errors.New("session belongs to another user")
	// ErrInvalidRequest is returned for missing identifiers.
	ErrInvalidRequest = errors.New("invalid turn request")
)

// ResumeNotFoundError is fatal for a turn: the applicant has no structured résumé.
type ResumeNotFoundError struct {
	UserID string
	Err    error
}

func (e *ResumeNotFoundError) Error() string {
	return fmt.Sprintf("no resume on file for user %q", e.UserID)
}

func (e *ResumeNotFoundError) Unwrap() error { return e.Err }

// SessionNotPersistedError is fatal for a turn: the session disappeared before the final write.
type SessionNotPersistedError struct {
	SessionID string
	Err       error
}

func (e *SessionNotPersistedError) Error() string {
	return fmt.Sprintf("session %q was not persisted: record is gone", e.SessionID)
}

func (e *SessionNotPersistedError) Unwrap() error { return e.Err }

// SessionConflictError reports that another writer advanced the session during this turn.
type SessionConflictError struct {
	SessionID string
	Err       error
}

func (e *SessionConflictError) Error() string {
	return fmt.Sprintf("session %q was modified by a concurrent turn", e.SessionID)
}

func (e *SessionConflictError) Unwrap() error { return e.Err }
