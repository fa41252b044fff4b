package resume

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ImprovementQuestion is one candidate interview question produced by analysis.
type ImprovementQuestion struct {
	Category  string  `json:"category" mapstructure:"category"`
	ProjectID *string `json:"project_id" mapstructure:"project_id"`
	Question  string  `json:"question" mapstructure:"question"`
	Purpose   string  `json:"purpose" mapstructure:"purpose"`
}

// Analysis is derived from a résumé. The order of ImprovementQuestions is the interview order.
type Analysis struct {
	OverallSummary       string                `json:"overall_summary" mapstructure:"overall_summary"`
	MissingAreas         []string              `json:"missing_areas" mapstructure:"missing_areas"`
	ImprovementQuestions []ImprovementQuestion `json:"improvement_questions" mapstructure:"improvement_questions"`
	CompletenessScore    float64               `json:"completeness_score" mapstructure:"completeness_score"`
}

// Questions returns the ordered question list, empty when there is no analysis.
func (a *Analysis) Questions() []ImprovementQuestion {
	if a == nil {
		return nil
	}
	return a.ImprovementQuestions
}

// Validate checks the structural rules of the analysis schema.
func (a *Analysis) Validate() error {
	if a == nil {
		return nil
	}
	if !unitInterval(a.CompletenessScore) {
		return fmt.Errorf("%w: completeness score %v out of [0,1]", ErrInvalid, a.CompletenessScore)
	}
	for i, q := range a.ImprovementQuestions {
		if strings.TrimSpace(q.Question) == "" {
			return fmt.Errorf("%w: improvement_questions[%d]: question is required", ErrInvalid, i)
		}
	}
	return nil
}

// DecodeAnalysis decodes an analysis produced by an external analyzer.
// Decoding is weakly typed, so "0.5" is accepted for a score and a single string for a list.
func DecodeAnalysis(raw map[string]any) (*Analysis, error) {
	if raw == nil {
		return nil, nil
	}

	var a Analysis
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &a,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("create analysis decoder: %w", err)
	}

	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: decode analysis: %v", ErrInvalid, err)
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}

	return &a, nil
}

// ParseAnalysis decodes analysis JSON, tolerating fenced wrapping. The literal null yields no analysis.
func ParseAnalysis(raw string) (*Analysis, error) {
	cleaned := ExtractJSON(raw)
	if cleaned == "" || cleaned == "null" {
		return nil, nil
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("%w: parse analysis: %v", ErrInvalid, err)
	}

	return DecodeAnalysis(data)
}

// Marshal encodes the analysis compactly for storage.
func (a *Analysis) Marshal() ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	return encodeJSON(a, "")
}
