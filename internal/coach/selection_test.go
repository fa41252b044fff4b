package coach

import (
	"strings"
	"testing"

	"github.com/spigell/resume-coach/internal/resume"
)

func TestNextQuestion(t *testing.T) {
	questions := testQuestions(3)

	tests := []struct {
		name     string
		index    int
		answered int
		want     string
		ok       bool
	}{
		{name: "first", index: 0, answered: 0, want: "question 0?", ok: true},
		{name: "last", index: 2, answered: 2, want: "question 2?", ok: true},
		{name: "past end", index: 3, answered: 3},
		{name: "quota", index: 1, answered: MaxQuestions},
		{name: "negative index", index: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, ok := nextQuestion(tt.index, tt.answered, questions)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if !ok {
				if q != nil {
					t.Fatalf("expected no question, got %+v", q)
				}
				return
			}
			if q.Question != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, q.Question)
			}
		})
	}

	if _, ok := nextQuestion(0, 0, nil); ok {
		t.Fatal("empty list must not yield a question")
	}
}

func TestCompletionReasonPriority(t *testing.T) {
	tests := []struct {
		answered int
		total    int
		want     string
	}{
		{answered: MaxQuestions, total: 0, want: ReasonQuotaReached},
		{answered: MaxQuestions, total: 9, want: ReasonQuotaReached},
		{answered: 0, total: 0, want: ReasonNothingToImprove},
		{answered: 2, total: 2, want: ReasonQuestionsExhausted},
	}
	for _, tt := range tests {
		if got := completionReason(tt.answered, tt.total); got != tt.want {
			t.Fatalf("completionReason(%d, %d) = %q, want %q", tt.answered, tt.total, got, tt.want)
		}
	}
}

func TestPromptsEmbedInputs(t *testing.T) {
	merge := buildMergePrompt(`{"person": {}}`, " What changed? ", "Latency dropped\n by 40%")
	for _, want := range []string{`{"person": {}}`, "[Question]\nWhat changed?", "Latency dropped\n by 40%"} {
		if !strings.Contains(merge, want) {
			t.Fatalf("merge prompt misses %q:\n%s", want, merge)
		}
	}
	if strings.Contains(merge, "{{") {
		t.Fatalf("merge prompt has unfilled placeholders:\n%s", merge)
	}

	question := buildQuestionPrompt(resume.ImprovementQuestion{Category: "result", Question: "What was\nthe outcome?"}, nil)
	for _, want := range []string{"- Question: What was the outcome?", "- Purpose: none", "- Project: none"} {
		if !strings.Contains(question, want) {
			t.Fatalf("question prompt misses %q:\n%s", want, question)
		}
	}

	completion := buildCompletionPrompt(ReasonQuotaReached)
	if !strings.Contains(completion, "Reason: quota reached.") {
		t.Fatalf("unexpected completion prompt:\n%s", completion)
	}

	if got := completionFallbackMessage(ReasonNothingToImprove); !strings.Contains(got, "(nothing to improve)") {
		t.Fatalf("unexpected fallback: %q", got)
	}
}

func TestQuestionPromptDescribesRelatedProject(t *testing.T) {
	situation := "Legacy billing was slow"
	r := &resume.Resume{
		Person: &resume.Person{Name: "Kim"},
		Projects: []resume.Project{
			{ID: "p1", Name: "Payments", Situation: &situation},
			{ID: "p2", Name: "Search", Actions: []string{"a"}},
		},
	}
	r.Normalize()

	tests := []struct {
		name      string
		projectID *string
		want      string
	}{
		{name: "gaps listed", projectID: ptr("p1"), want: "- Project: Payments (missing: task, actions, results)"},
		{name: "other project", projectID: ptr("p2"), want: "- Project: Search (missing: situation, task, results)"},
		{name: "unknown id", projectID: ptr("p9"), want: "- Project: none"},
		{name: "no id", want: "- Project: none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := buildQuestionPrompt(resume.ImprovementQuestion{Question: "q?", ProjectID: tt.projectID}, r)
			if !strings.Contains(prompt, tt.want) {
				t.Fatalf("expected %q in prompt:\n%s", tt.want, prompt)
			}
		})
	}
}

func ptr(s string) *string { return &s }
