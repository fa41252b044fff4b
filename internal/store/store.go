// Package store provides persistence contracts for résumés and conversations.
package store

import (
	"context"
	"errors"

	"github.com/spigell/resume-coach/internal/conversation"
	"github.com/spigell/resume-coach/internal/resume"
)

var (
	// ErrNotFound is returned when the keyed record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict is returned when a compare-and-swap update sees a newer stored version.
	ErrVersionConflict = errors.New("version conflict")
)

// ResumeStore keeps the current structured résumé and analysis of each applicant.
type ResumeStore interface {
	// GetCurrent returns the current résumé and its analysis (nil when not analyzed yet).
	GetCurrent(ctx context.Context, userID string) (*resume.Resume, *resume.Analysis, error)

	// Overwrite replaces the whole résumé document, leaving the analysis untouched.
	Overwrite(ctx context.Context, userID string, r *resume.Resume) error

	// Put creates or replaces both the résumé and its analysis.
	Put(ctx context.Context, userID string, r *resume.Resume, a *resume.Analysis) error
}

// ConversationStore keeps per-session dialogue state.
type ConversationStore interface {
	// GetOrCreate returns the session, creating an empty one when absent.
	GetOrCreate(ctx context.Context, sessionID, userID string) (*conversation.Session, error)

	// Get returns the session or ErrNotFound.
	Get(ctx context.Context, sessionID string) (*conversation.Session, error)

	// Update writes messages, counters and the completion flag in one statement.
	// It fails with ErrNotFound when the session vanished and ErrVersionConflict when
	// the stored version differs from ExpectedVersion.
	Update(ctx context.Context, sessionID string, u conversation.Update) error

	// ListByUser returns the sessions of a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]*conversation.Session, error)
}

// Repository bundles both stores behind one database handle.
type Repository interface {
	ResumeStore
	ConversationStore

	Ping(ctx context.Context) error
	Close() error
}
