// Package ai defines the provider-neutral text generation contract used by the interview.
package ai

import (
	"context"
	"errors"
)

// Kind names one of the generation tasks of a turn.
type Kind string

const (
	// KindMerge asks for the whole résumé JSON with an answer folded in.
	KindMerge Kind = "merge"
	// KindPhraseQuestion asks for a conversational rendering of an improvement question.
	KindPhraseQuestion Kind = "phrase_question"
	// KindPhraseCompletion asks for the closing message of an interview.
	KindPhraseCompletion Kind = "phrase_completion"
)

// ErrDisabled is returned by the Disabled generator.
var ErrDisabled = errors.New("text generation is disabled")

type Request struct {
	Kind   Kind
	Prompt string
}

// Generator produces text for a prompt. A merge response without error must be résumé JSON.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Disabled fails every request so callers take their fallback paths.
type Disabled struct{}

func (Disabled) Generate(context.Context, Request) (string, error) {
	return "", ErrDisabled
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindMerge, KindPhraseQuestion, KindPhraseCompletion:
		return true
	default:
		return false
	}
}
