package debate

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dyike/QuorumGo/consts"
	"github.com/dyike/QuorumGo/internal/adapters"
	"github.com/dyike/QuorumGo/internal/personas"
	"github.com/dyike/QuorumGo/models"
)

// PriceFunc supplies the current market price for a symbol. Implementations
// must not fail; they return a fallback default when no source answers.
type PriceFunc func(ctx context.Context, symbol string) float64

// Orchestrator advances debate sessions round by round. Personas are always
// dispatched sequentially in consts.PersonaOrder: a later persona's prompt
// in any round includes the replies already generated by earlier personas
// in the same round, which parallel dispatch would silently break.
type Orchestrator struct {
	adapters  map[string]adapters.Generator
	fallback  *adapters.Fallback
	store     SessionStore
	price     PriceFunc
	maxRounds int
}

func NewOrchestrator(gens map[string]adapters.Generator, fallback *adapters.Fallback, store SessionStore, price PriceFunc, maxRounds int) *Orchestrator {
	if maxRounds < 1 {
		maxRounds = 1
	}
	return &Orchestrator{
		adapters:  gens,
		fallback:  fallback,
		store:     store,
		price:     price,
		maxRounds: maxRounds,
	}
}

// MaxRounds is the configured round cap; the cap round prompts personas to
// close rather than react.
func (o *Orchestrator) MaxRounds() int {
	return o.maxRounds
}

// Session returns the (lazily created) session handle for an id.
func (o *Orchestrator) Session(id string) *Session {
	return o.store.GetOrCreate(id)
}

// DeleteSession tears down a session's accumulated state.
func (o *Orchestrator) DeleteSession(id string) {
	o.store.Delete(id)
}

// ResetSession clears a session's transcript and targets but keeps the id.
func (o *Orchestrator) ResetSession(id string) {
	o.store.Reset(id)
}

// RunRound runs one full debate round: every persona speaks once, in fixed
// order. A failing adapter is replaced by the deterministic fallback for
// that persona only; the round never aborts. Callers track round numbers
// themselves; re-running a round appends again rather than replacing.
func (o *Orchestrator) RunRound(ctx context.Context, sessionID, symbol, name string, round int) ([]models.DebateMessage, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(symbol) == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if round < 1 {
		return nil, fmt.Errorf("round must be >= 1, got %d", round)
	}

	sess := o.store.GetOrCreate(sessionID)
	currentPrice := o.price(ctx, symbol)

	roundMsgs := make([]models.DebateMessage, 0, len(consts.PersonaOrder))
	for _, id := range consts.PersonaOrder {
		p, err := personas.Get(id)
		if err != nil {
			return nil, err
		}

		transcript, targets := sess.snapshot()
		actx := models.AnalysisContext{
			Symbol:        symbol,
			Name:          name,
			Round:         round,
			CurrentPrice:  currentPrice,
			Transcript:    transcript,
			LatestTargets: targets,
			FinalRound:    round >= o.maxRounds,
		}

		op, err := o.generate(ctx, id, actx)
		if err != nil {
			log.Printf("persona %s failed in round %d of session %s, substituting deterministic fallback: %v",
				id, round, sessionID, err)
			op = o.fallback.Opinion(p, actx)
		}

		msg := messageFrom(id, round, op)
		sess.append(msg)
		roundMsgs = append(roundMsgs, msg)
	}

	return roundMsgs, nil
}

func (o *Orchestrator) generate(ctx context.Context, personaID string, actx models.AnalysisContext) (models.StructuredOpinion, error) {
	gen, ok := o.adapters[personaID]
	if !ok || gen == nil {
		return models.StructuredOpinion{}, adapters.ErrNoBackend
	}
	return gen.Generate(ctx, actx)
}

func messageFrom(personaID string, round int, op models.StructuredOpinion) models.DebateMessage {
	return models.DebateMessage{
		Persona:        personaID,
		Round:          round,
		Text:           op.Rationale,
		Score:          op.Score,
		Risks:          op.Risks,
		Sources:        op.Sources,
		Target:         op.Target,
		PriceRationale: op.PriceRationale,
		CreatedAt:      time.Now(),
	}
}
