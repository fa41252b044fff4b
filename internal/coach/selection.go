package coach

import "github.com/spigell/resume-coach/internal/resume"

// MaxQuestions caps the number of answered questions per interview.
const MaxQuestions = 5

const (
	ReasonQuotaReached       = "quota reached"
	ReasonNothingToImprove   = "nothing to improve"
	ReasonQuestionsExhausted = "all questions exhausted"
)

// nextQuestion is the only completion predicate: a question is available while the cursor
// is inside the list and the quota is not used up.
func nextQuestion(questionIndex, answeredCount int, questions []resume.ImprovementQuestion) (*resume.ImprovementQuestion, bool) {
	if questionIndex < 0 || questionIndex >= len(questions) || answeredCount >= MaxQuestions {
		return nil, false
	}
	q := questions[questionIndex]
	return &q, true
}

func completionReason(answeredCount, totalQuestions int) string {
	switch {
	case answeredCount >= MaxQuestions:
		return ReasonQuotaReached
	case totalQuestions == 0:
		return ReasonNothingToImprove
	default:
		return ReasonQuestionsExhausted
	}
}

// selectQuestion applies nextQuestion. A persisted completion is never undone.
func (o *Orchestrator) selectQuestion(t *turn) {
	defer t.advance(StateQuestionSelected)

	if t.session.Completed {
		t.current, t.completed = nil, true
		return
	}

	q, ok := nextQuestion(t.session.QuestionIndex, t.session.AnsweredCount, t.questions)
	t.current, t.completed = q, !ok
}
