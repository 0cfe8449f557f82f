package cli

import (
	"context"
	"testing"

	"github.com/dyike/QuorumGo/consts"
	"github.com/dyike/QuorumGo/internal/adapters"
	"github.com/dyike/QuorumGo/internal/debate"
	"github.com/dyike/QuorumGo/internal/storage/usage"
	"github.com/dyike/QuorumGo/models"
)

// trackingGenerator records the contexts it is invoked with so tests can
// inspect what the orchestrator told each persona.
type trackingGenerator struct {
	persona  string
	contexts []models.AnalysisContext
}

func (g *trackingGenerator) Persona() string { return g.persona }

func (g *trackingGenerator) Generate(ctx context.Context, actx models.AnalysisContext) (models.StructuredOpinion, error) {
	g.contexts = append(g.contexts, actx)
	return models.StructuredOpinion{
		Rationale: "Holding my view through this round.",
		Score:     4,
		Risks:     []string{},
		Sources:   []string{},
		Target:    &models.PriceTarget{Price: 80000, Date: "6 months"},
	}, nil
}

func TestEffectiveRounds(t *testing.T) {
	cases := []struct {
		requested, max, want int
	}{
		{0, 4, 4},
		{-1, 4, 4},
		{2, 4, 2},
		{4, 4, 4},
		{9, 4, 4},
	}
	for _, c := range cases {
		if got := effectiveRounds(c.requested, c.max); got != c.want {
			t.Fatalf("effectiveRounds(%d, %d) = %d, want %d", c.requested, c.max, got, c.want)
		}
	}
}

// A debate shorter than the configured maximum must still mark its last
// executed round as final so the personas are prompted to close.
func TestShortDebateMarksLastRoundFinal(t *testing.T) {
	gens := map[string]adapters.Generator{}
	tracked := map[string]*trackingGenerator{}
	for _, id := range consts.PersonaOrder {
		g := &trackingGenerator{persona: id}
		tracked[id] = g
		gens[id] = g
	}

	rounds := effectiveRounds(2, 4)
	orch := debate.NewOrchestrator(gens, adapters.NewFallback(), debate.NewMemoryStore(),
		func(ctx context.Context, symbol string) float64 { return 70000 }, rounds)

	ctx := context.Background()
	for round := 1; round <= rounds; round++ {
		if _, err := orch.RunRound(ctx, "short-session", "BTC", "Bitcoin", round); err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
	}

	first := tracked[consts.BalancedAnalyst]
	if len(first.contexts) != 2 {
		t.Fatalf("persona should have spoken twice, got %d calls", len(first.contexts))
	}
	if first.contexts[0].FinalRound {
		t.Fatalf("round 1 of 2 must not be flagged final")
	}
	if !first.contexts[1].FinalRound {
		t.Fatalf("round 2 of 2 must be flagged final")
	}
}

func TestRecordDebateRound(t *testing.T) {
	meter := usage.NewMemoryMeter()
	ctx := context.Background()

	recordDebateRound(ctx, meter, "")
	recordDebateRound(ctx, meter, "")

	d, err := meter.Allow(ctx, "anonymous", consts.FeatureDebate, 2)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if d.Allowed || d.Remaining != 0 {
		t.Fatalf("two recorded rounds should consume a quota of 2, got allowed=%t remaining=%d", d.Allowed, d.Remaining)
	}

	d, err = meter.Allow(ctx, "alice", consts.FeatureDebate, 2)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !d.Allowed || d.Remaining != 2 {
		t.Fatalf("other users must be unaffected, got allowed=%t remaining=%d", d.Allowed, d.Remaining)
	}

	// A nil meter is a no-op, not a panic.
	recordDebateRound(ctx, nil, "bob")
}
