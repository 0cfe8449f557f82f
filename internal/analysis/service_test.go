package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dyike/QuorumGo/config"
	"github.com/dyike/QuorumGo/consts"
	"github.com/dyike/QuorumGo/internal/adapters"
	"github.com/dyike/QuorumGo/internal/personas"
	"github.com/dyike/QuorumGo/internal/storage/usage"
	"github.com/dyike/QuorumGo/models"
	"github.com/dyike/QuorumGo/pkg/dataflows"
)

type stubGenerator struct {
	mu      sync.Mutex
	persona string
	opinion models.StructuredOpinion
	err     error
	calls   int
	lastCtx models.AnalysisContext
}

func (s *stubGenerator) Persona() string { return s.persona }

func (s *stubGenerator) Generate(_ context.Context, actx models.AnalysisContext) (models.StructuredOpinion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastCtx = actx
	if s.err != nil {
		return models.StructuredOpinion{}, s.err
	}
	return s.opinion, nil
}

func opinionWith(score int, target float64) models.StructuredOpinion {
	op := models.StructuredOpinion{
		Rationale: "Earnings momentum remains intact through the next two quarters.",
		Score:     score,
		Risks:     []string{"macro shock"},
		Sources:   []string{"10-Q"},
	}
	if target > 0 {
		op.Target = &models.PriceTarget{Price: target, Date: "2027-03-01"}
	}
	return op
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.DefaultPrice = 70000
	return cfg
}

func fullStubs() map[string]adapters.Generator {
	return map[string]adapters.Generator{
		consts.BalancedAnalyst: &stubGenerator{persona: consts.BalancedAnalyst, opinion: opinionWith(5, 90000)},
		consts.GrowthAnalyst:   &stubGenerator{persona: consts.GrowthAnalyst, opinion: opinionWith(4, 88000)},
		consts.MacroAnalyst:    &stubGenerator{persona: consts.MacroAnalyst, opinion: opinionWith(2, 60000)},
	}
}

func TestFreeTierRunsSinglePersona(t *testing.T) {
	stubs := fullStubs()
	svc := NewService(stubs, nil, nil, usage.NewMemoryMeter(), testConfig())

	resp, err := svc.RunAnalysis(context.Background(), Request{Symbol: "AAPL", Tier: consts.TierFree, UserID: "u1"})
	if err != nil {
		t.Fatalf("RunAnalysis: %v", err)
	}

	if resp.AnalysisType != consts.PipelineSingle {
		t.Fatalf("type = %s, want %s", resp.AnalysisType, consts.PipelineSingle)
	}
	if resp.Single == nil || resp.Comparison != nil || resp.CrossValidation != nil {
		t.Fatalf("exactly the single payload should be set: %+v", resp)
	}
	if resp.Single.Analysis.Persona != consts.BalancedAnalyst {
		t.Fatalf("persona = %s, want %s", resp.Single.Analysis.Persona, consts.BalancedAnalyst)
	}
	if resp.Single.Analysis.Direction != models.DirectionUp {
		t.Fatalf("direction = %s, want UP", resp.Single.Analysis.Direction)
	}
	if len(resp.UsedPersonas) != 1 {
		t.Fatalf("used personas = %v, want one", resp.UsedPersonas)
	}

	for _, id := range []string{consts.GrowthAnalyst, consts.MacroAnalyst} {
		if stubs[id].(*stubGenerator).calls != 0 {
			t.Fatalf("free tier must not dispatch %s", id)
		}
	}
}

func TestFreeTierIsUnmetered(t *testing.T) {
	meter := usage.NewMemoryMeter()
	svc := NewService(fullStubs(), nil, nil, meter, testConfig())

	for i := 0; i < 50; i++ {
		if _, err := svc.RunAnalysis(context.Background(), Request{Symbol: "AAPL", Tier: consts.TierFree, UserID: "u1"}); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}

	// Nothing was charged against the analysis feature.
	d, err := meter.Allow(context.Background(), "u1", consts.FeatureAnalysis, 1)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("free tier runs must not consume quota")
	}
}

func TestLiteTierComparison(t *testing.T) {
	svc := NewService(fullStubs(), nil, nil, usage.NewMemoryMeter(), testConfig())

	resp, err := svc.RunAnalysis(context.Background(), Request{Symbol: "AAPL", Tier: consts.TierLite, UserID: "u1"})
	if err != nil {
		t.Fatalf("RunAnalysis: %v", err)
	}

	if resp.AnalysisType != consts.PipelineComparison {
		t.Fatalf("type = %s, want %s", resp.AnalysisType, consts.PipelineComparison)
	}
	cmp := resp.Comparison
	if cmp == nil {
		t.Fatalf("comparison payload missing")
	}
	if cmp.First.Persona != consts.BalancedAnalyst || cmp.Second.Persona != consts.GrowthAnalyst {
		t.Fatalf("comparison personas = %s/%s", cmp.First.Persona, cmp.Second.Persona)
	}
	if !cmp.DirectionMatch {
		t.Fatalf("scores 5 and 4 should both map UP")
	}
	if cmp.PriceDifferencePct <= 0 {
		t.Fatalf("expected a positive price difference, got %v", cmp.PriceDifferencePct)
	}
}

func TestBasicTierCrossValidation(t *testing.T) {
	svc := NewService(fullStubs(), nil, nil, usage.NewMemoryMeter(), testConfig())

	resp, err := svc.RunAnalysis(context.Background(), Request{Symbol: "AAPL", Tier: consts.TierBasic, UserID: "u1"})
	if err != nil {
		t.Fatalf("RunAnalysis: %v", err)
	}

	if resp.AnalysisType != consts.PipelineCrossValidation {
		t.Fatalf("type = %s, want %s", resp.AnalysisType, consts.PipelineCrossValidation)
	}
	res := resp.CrossValidation
	if res == nil {
		t.Fatalf("cross-validation payload missing")
	}
	if res.Votes[models.DirectionUp] != 2 || res.Votes[models.DirectionDown] != 1 {
		t.Fatalf("votes = %v", res.Votes)
	}
	if res.MajorityDirection != models.DirectionUp {
		t.Fatalf("majority = %s, want UP", res.MajorityDirection)
	}
	// Two of three agree but the 60000 target stretches the spread, so
	// the grade stays MODERATE.
	if res.Grade != models.GradeModerate {
		t.Fatalf("grade = %s, want MODERATE", res.Grade)
	}
	if len(resp.Analyses) != 3 {
		t.Fatalf("analyses = %d, want 3", len(resp.Analyses))
	}
	// Order matches the fixed dispatch order regardless of goroutine timing.
	for i, id := range consts.PersonaOrder {
		if resp.Analyses[i].Persona != id {
			t.Fatalf("analysis %d persona = %s, want %s", i, resp.Analyses[i].Persona, id)
		}
	}
}

func TestQuotaExhaustionBlocksDispatch(t *testing.T) {
	cfg := testConfig()
	cfg.DailyQuotaLite = 1

	stubs := fullStubs()
	meter := usage.NewMemoryMeter()
	svc := NewService(stubs, nil, nil, meter, cfg)

	req := Request{Symbol: "AAPL", Tier: consts.TierLite, UserID: "u1"}
	if _, err := svc.RunAnalysis(context.Background(), req); err != nil {
		t.Fatalf("first run: %v", err)
	}

	callsBefore := stubs[consts.BalancedAnalyst].(*stubGenerator).calls
	_, err := svc.RunAnalysis(context.Background(), req)
	if err == nil {
		t.Fatalf("second run should hit the quota")
	}
	if !usage.IsQuotaError(err) {
		t.Fatalf("err = %v, want quota error", err)
	}

	var qe *usage.QuotaError
	if !errors.As(err, &qe) {
		t.Fatalf("quota error not unwrappable")
	}
	if qe.Feature != consts.FeatureAnalysis || qe.Remaining != 0 || qe.ResetAt.IsZero() {
		t.Fatalf("quota error shape: %+v", qe)
	}

	if stubs[consts.BalancedAnalyst].(*stubGenerator).calls != callsBefore {
		t.Fatalf("exhausted quota must block backend dispatch")
	}
}

func TestBackendFailureSubstitutesFallback(t *testing.T) {
	stubs := fullStubs()
	stubs[consts.GrowthAnalyst] = &stubGenerator{persona: consts.GrowthAnalyst, err: errors.New("backend down")}

	svc := NewService(stubs, nil, nil, usage.NewMemoryMeter(), testConfig())
	resp, err := svc.RunAnalysis(context.Background(), Request{Symbol: "AAPL", Tier: consts.TierPro, UserID: "u1"})
	if err != nil {
		t.Fatalf("a backend failure must not fail the run: %v", err)
	}

	if len(resp.Analyses) != 3 {
		t.Fatalf("analyses = %d, want 3", len(resp.Analyses))
	}

	// The substituted slot carries the deterministic fallback opinion.
	p, _ := personas.Get(consts.GrowthAnalyst)
	want := adapters.NewFallback().Opinion(p, models.AnalysisContext{
		Symbol:       "AAPL",
		Round:        1,
		CurrentPrice: testConfig().DefaultPrice,
	})
	got := resp.Analyses[1].Opinion
	if got.Rationale != want.Rationale || got.Score != want.Score {
		t.Fatalf("fallback substitution mismatch:\n got %+v\nwant %+v", got, want)
	}

	// Only the two live backends are costed.
	wantCost := estimatedCost[consts.BalancedAnalyst] + estimatedCost[consts.MacroAnalyst]
	if resp.EstimatedCost != wantCost {
		t.Fatalf("cost = %v, want %v", resp.EstimatedCost, wantCost)
	}
}

func TestMissingBackendsUseFallback(t *testing.T) {
	svc := NewService(map[string]adapters.Generator{}, nil, nil, usage.NewMemoryMeter(), testConfig())

	resp, err := svc.RunAnalysis(context.Background(), Request{Symbol: "AAPL", Tier: consts.TierPro, UserID: "u1"})
	if err != nil {
		t.Fatalf("RunAnalysis: %v", err)
	}
	if resp.EstimatedCost != 0 {
		t.Fatalf("all-fallback run should cost nothing, got %v", resp.EstimatedCost)
	}
	if resp.CrossValidation == nil {
		t.Fatalf("aggregation must still run over fallback opinions")
	}
	for _, a := range resp.Analyses {
		if a.Opinion.Rationale == "" {
			t.Fatalf("fallback opinion for %s is empty", a.Persona)
		}
	}
}

func TestRequestValidation(t *testing.T) {
	svc := NewService(fullStubs(), nil, nil, usage.NewMemoryMeter(), testConfig())

	if _, err := svc.RunAnalysis(context.Background(), Request{Symbol: "", Tier: consts.TierFree}); err == nil {
		t.Fatalf("empty symbol must be rejected")
	}
	if _, err := svc.RunAnalysis(context.Background(), Request{Symbol: "AAPL", Tier: "platinum"}); err == nil {
		t.Fatalf("unknown tier must be rejected")
	}
}

func TestPriceResolution(t *testing.T) {
	stub := &stubGenerator{persona: consts.BalancedAnalyst, opinion: opinionWith(3, 0)}
	gens := map[string]adapters.Generator{consts.BalancedAnalyst: stub}

	// With a quote source the live price reaches the persona context.
	quotes := dataflows.NewStaticProvider(123.45)
	svc := NewService(gens, nil, quotes, nil, testConfig())
	if _, err := svc.RunAnalysis(context.Background(), Request{Symbol: "AAPL", Tier: consts.TierFree}); err != nil {
		t.Fatalf("RunAnalysis: %v", err)
	}
	if stub.lastCtx.CurrentPrice != 123.45 {
		t.Fatalf("price = %v, want 123.45", stub.lastCtx.CurrentPrice)
	}

	// Without one, the configured default applies.
	svc = NewService(gens, nil, nil, nil, testConfig())
	if _, err := svc.RunAnalysis(context.Background(), Request{Symbol: "AAPL", Tier: consts.TierFree}); err != nil {
		t.Fatalf("RunAnalysis: %v", err)
	}
	if stub.lastCtx.CurrentPrice != testConfig().DefaultPrice {
		t.Fatalf("price = %v, want default", stub.lastCtx.CurrentPrice)
	}
}

func TestPipelineForTier(t *testing.T) {
	cases := map[string]string{
		consts.TierFree:  consts.PipelineSingle,
		consts.TierLite:  consts.PipelineComparison,
		consts.TierBasic: consts.PipelineCrossValidation,
		consts.TierPro:   consts.PipelineCrossValidation,
	}
	for tier, want := range cases {
		got, err := PipelineForTier(tier)
		if err != nil {
			t.Fatalf("PipelineForTier(%s): %v", tier, err)
		}
		if got != want {
			t.Fatalf("PipelineForTier(%s) = %s, want %s", tier, got, want)
		}
	}
	if _, err := PipelineForTier(""); err == nil {
		t.Fatalf("empty tier must error")
	}
}
