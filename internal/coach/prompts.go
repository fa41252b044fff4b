package coach

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/spigell/resume-coach/internal/resume"
	"github.com/spigell/resume-coach/internal/utils"
)

//go:embed prompts/merge.md
var mergeTemplate string

//go:embed prompts/question.md
var questionTemplate string

//go:embed prompts/completion.md
var completionTemplate string

const completionFallback = "Thank you for your answers! The interview is finished (%s). Please review your updated résumé."

func buildMergePrompt(resumeJSON, question, answer string) string {
	return strings.NewReplacer(
		"{{RESUME_JSON}}", resumeJSON,
		"{{QUESTION}}", strings.TrimSpace(question),
		"{{ANSWER}}", strings.TrimSpace(answer),
	).Replace(mergeTemplate)
}

func buildQuestionPrompt(q resume.ImprovementQuestion, r *resume.Resume) string {
	return strings.NewReplacer(
		"{{CATEGORY}}", orNone(q.Category),
		"{{QUESTION}}", utils.SingleLine(q.Question),
		"{{PURPOSE}}", orNone(q.Purpose),
		"{{PROJECT}}", describeProject(q.ProjectID, r),
	).Replace(questionTemplate)
}

// describeProject names the project a question is about and the STAR elements it still lacks.
func describeProject(id *string, r *resume.Resume) string {
	if id == nil {
		return "none"
	}
	p := r.ProjectByID(*id)
	if p == nil {
		return "none"
	}

	missing := p.Completeness.Missing()
	if len(missing) == 0 {
		return utils.SingleLine(p.Name)
	}
	return fmt.Sprintf("%s (missing: %s)", utils.SingleLine(p.Name), strings.Join(missing, ", "))
}

func buildCompletionPrompt(reason string) string {
	return strings.ReplaceAll(completionTemplate, "{{REASON}}", reason)
}

func completionFallbackMessage(reason string) string {
	return fmt.Sprintf(completionFallback, reason)
}

func orNone(s string) string {
	if s = utils.SingleLine(s); s == "" {
		return "none"
	}
	return s
}
