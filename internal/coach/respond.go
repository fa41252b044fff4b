package coach

import (
	"context"
	"strings"

	"github.com/spigell/resume-coach/internal/ai"
	"go.uber.org/zap"
)

// composeQuestion never fails: the literal question is the fallback.
func (o *Orchestrator) composeQuestion(ctx context.Context, t *turn) {
	t.advance(StateResponding)

	text, err := o.generate(ctx, ai.KindPhraseQuestion, buildQuestionPrompt(*t.current, t.resume))
	if err != nil {
		t.log.Warn("question phrasing failed, asking verbatim", zap.Error(err))
		t.response = t.current.Question
		return
	}
	t.response = strings.TrimSpace(text)
}

// composeCompletion never fails: a fixed sentence with the reason is the fallback.
func (o *Orchestrator) composeCompletion(ctx context.Context, t *turn) {
	t.advance(StateCompleting)

	reason := completionReason(t.session.AnsweredCount, len(t.questions))
	t.log.Debug("interview complete", zap.String("reason", reason))

	text, err := o.generate(ctx, ai.KindPhraseCompletion, buildCompletionPrompt(reason))
	if err != nil {
		t.log.Warn("completion phrasing failed, using fallback", zap.String("reason", reason), zap.Error(err))
		t.response = completionFallbackMessage(reason)
		return
	}
	t.response = strings.TrimSpace(text)
}
