// Package extractor wraps the external trait-extraction scorer. The scorer is
// an opaque, possibly-fallible service; callers treat a failure as "no
// candidates produced".
package extractor

import (
	"context"

	"github.com/perscribe/persona-backend/internal/model"
)

// ExtractRequest is one interview answer submitted for trait extraction.
type ExtractRequest struct {
	PersonaID      string   `json:"personaId"`
	QuestionPrompt string   `json:"questionPrompt"`
	AnswerText     string   `json:"answerText"`
	MediaRefs      []string `json:"mediaRefs,omitempty"`
}

// TraitExtractor scores an answer into zero or more trait candidates.
type TraitExtractor interface {
	Extract(ctx context.Context, req ExtractRequest) ([]model.TraitCandidate, error)
}

// Noop is used when no scorer endpoint is configured; interviews still run,
// they just produce no learned traits.
type Noop struct{}

func (Noop) Extract(ctx context.Context, req ExtractRequest) ([]model.TraitCandidate, error) {
	return nil, nil
}
