package coach

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/resume-coach/internal/conversation"
	"github.com/spigell/resume-coach/internal/store"
)

// persist writes the whole turn in one compare-and-swap update.
func (o *Orchestrator) persist(ctx context.Context, t *turn) error {
	t.session.Append(conversation.RoleUser, t.answer)
	t.session.Append(conversation.RoleAssistant, t.response)
	t.session.Completed = t.session.Completed || t.completed

	err := o.conversations.Update(ctx, t.sessionID, conversation.Update{
		Messages:        t.session.Messages,
		QuestionIndex:   t.session.QuestionIndex,
		AnsweredCount:   t.session.AnsweredCount,
		Completed:       t.session.Completed,
		ExpectedVersion: t.version,
	})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		return &SessionNotPersistedError{SessionID: t.sessionID, Err: err}
	case errors.Is(err, store.ErrVersionConflict):
		return &SessionConflictError{SessionID: t.sessionID, Err: err}
	default:
		return fmt.Errorf("persist session: %w", err)
	}

	t.advance(StatePersisted)
	return nil
}
