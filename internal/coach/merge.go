package coach

import (
	"context"
	"fmt"

	"github.com/spigell/resume-coach/internal/ai"
	"github.com/spigell/resume-coach/internal/resume"
	"github.com/spigell/resume-coach/internal/utils"
	"go.uber.org/zap"
)

const answerPreviewLength = 120

// mergeAnswer folds the answer into the résumé. Counters advance even when the merge fails.
func (o *Orchestrator) mergeAnswer(ctx context.Context, t *turn) {
	defer t.advance(StateMerged)

	if t.answer == "" || t.pending == nil {
		return
	}

	if merged, err := o.merge(ctx, t); err != nil {
		t.log.Warn("merge skipped",
			zap.String("question", utils.SingleLine(t.pending.Question)),
			zap.String("answer_preview", utils.TruncateForLog(t.answer, answerPreviewLength)),
			zap.Error(err),
		)
	} else {
		t.resume = merged
		t.log.Info("answer merged into resume",
			zap.Float64("completeness", merged.CompletenessScore()),
		)
	}

	t.session.AnsweredCount++
	t.session.QuestionIndex++
}

func (o *Orchestrator) merge(ctx context.Context, t *turn) (*resume.Resume, error) {
	current, err := t.resume.Canonical()
	if err != nil {
		return nil, fmt.Errorf("serialize resume: %w", err)
	}

	raw, err := o.generate(ctx, ai.KindMerge, buildMergePrompt(current, t.pending.Question, t.answer))
	if err != nil {
		return nil, err
	}

	merged, err := resume.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse merged resume: %w", err)
	}

	if err := o.resumes.Overwrite(ctx, t.userID, merged); err != nil {
		return nil, fmt.Errorf("store merged resume: %w", err)
	}

	return merged, nil
}
