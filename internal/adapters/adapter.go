// Package adapters wraps the per-persona text-generation backends behind a
// single Generator contract and provides the deterministic fallback used
// when a backend fails or is not configured.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"

	"github.com/dyike/QuorumGo/internal/normalize"
	"github.com/dyike/QuorumGo/internal/personas"
	"github.com/dyike/QuorumGo/models"
)

// ErrNoBackend means the persona has no configured chat model. Callers are
// expected to substitute the deterministic fallback.
var ErrNoBackend = errors.New("no chat backend configured for persona")

// Generator is one persona's analysis capability. Implementations fail by
// returning an error; they never fabricate a degraded opinion themselves.
type Generator interface {
	Persona() string
	Generate(ctx context.Context, actx models.AnalysisContext) (models.StructuredOpinion, error)
}

// PersonaAdapter binds one persona to one chat backend. The persona's
// behavior lives in the prompt table; this code is shared by all three.
type PersonaAdapter struct {
	persona personas.Persona
	chat    model.BaseChatModel
	timeout time.Duration
}

func NewPersonaAdapter(p personas.Persona, chat model.BaseChatModel, timeout time.Duration) *PersonaAdapter {
	return &PersonaAdapter{persona: p, chat: chat, timeout: timeout}
}

func (a *PersonaAdapter) Persona() string {
	return a.persona.ID
}

// Generate dispatches one isolated analysis call and normalizes the reply.
// Network, timeout and parse errors propagate to the caller.
func (a *PersonaAdapter) Generate(ctx context.Context, actx models.AnalysisContext) (models.StructuredOpinion, error) {
	if a.chat == nil {
		return models.StructuredOpinion{}, fmt.Errorf("%s: %w", a.persona.ID, ErrNoBackend)
	}

	msgs, err := personas.BuildMessages(a.persona, actx)
	if err != nil {
		return models.StructuredOpinion{}, fmt.Errorf("build prompt for %s: %w", a.persona.ID, err)
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	reply, err := a.chat.Generate(ctx, msgs)
	if err != nil {
		return models.StructuredOpinion{}, fmt.Errorf("backend call for %s: %w", a.persona.ID, err)
	}

	op, err := normalize.Parse(reply.Content)
	if err != nil {
		return models.StructuredOpinion{}, fmt.Errorf("normalize reply for %s: %w", a.persona.ID, err)
	}
	return op, nil
}
