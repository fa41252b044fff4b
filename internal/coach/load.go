package coach

import (
	"context"
	"errors"
	"fmt"

	"github.com/spigell/resume-coach/internal/store"
	"go.uber.org/zap"
)

// load reads the résumé before touching the session so unknown applicants leave nothing behind.
func (o *Orchestrator) load(ctx context.Context, t *turn) error {
	r, analysis, err := o.resumes.GetCurrent(ctx, t.userID)
	if errors.Is(err, store.ErrNotFound) {
		t.log.Warn("no resume on file")
		return &ResumeNotFoundError{UserID: t.userID, Err: err}
	}
	if err != nil {
		return fmt.Errorf("load resume: %w", err)
	}

	session, err := o.conversations.GetOrCreate(ctx, t.sessionID, t.userID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if session.UserID != t.userID {
		return fmt.Errorf("session %q: %w", t.sessionID, ErrSessionOwner)
	}

	t.session = session.Clone()
	t.version = session.Version
	t.resume = r
	t.questions = analysis.Questions()

	if t.session.Started() && !t.session.Completed {
		t.pending, _ = nextQuestion(t.session.QuestionIndex, t.session.AnsweredCount, t.questions)
	}

	t.log.Debug("session loaded",
		zap.Int("questions", len(t.questions)),
		zap.Int("answered_count", t.session.AnsweredCount),
		zap.Int("question_index", t.session.QuestionIndex),
		zap.Bool("completed", t.session.Completed),
		zap.Bool("pending_question", t.pending != nil),
	)
	t.advance(StateLoaded)
	return nil
}
