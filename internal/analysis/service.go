package analysis

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/dyike/QuorumGo/config"
	"github.com/dyike/QuorumGo/consts"
	"github.com/dyike/QuorumGo/internal/adapters"
	"github.com/dyike/QuorumGo/internal/consensus"
	"github.com/dyike/QuorumGo/internal/personas"
	"github.com/dyike/QuorumGo/internal/storage/usage"
	"github.com/dyike/QuorumGo/models"
	"github.com/dyike/QuorumGo/pkg/dataflows"
)

// estimatedCost is the rough per-call cost in USD for each persona's
// backend. Fallback substitutions cost nothing.
var estimatedCost = map[string]float64{
	consts.BalancedAnalyst: 0.002,
	consts.GrowthAnalyst:   0.004,
	consts.MacroAnalyst:    0.003,
}

// Request describes one analysis run.
type Request struct {
	Symbol string
	Name   string
	UserID string
	Tier   string
}

// Service is the caller-facing entry point. It selects the pipeline for
// the requested tier, dispatches the persona backends, and aggregates
// their opinions.
type Service struct {
	adapters map[string]adapters.Generator
	fallback *adapters.Fallback
	quotes   dataflows.QuoteProvider
	meter    usage.Meter
	cfg      *config.Config
}

// NewService wires an analysis service. quotes and meter may be nil; a
// nil quote source falls back to the configured default price and a nil
// meter disables quota enforcement.
func NewService(gens map[string]adapters.Generator, fallback *adapters.Fallback, quotes dataflows.QuoteProvider, meter usage.Meter, cfg *config.Config) *Service {
	if fallback == nil {
		fallback = adapters.NewFallback()
	}
	return &Service{
		adapters: gens,
		fallback: fallback,
		quotes:   quotes,
		meter:    meter,
		cfg:      cfg,
	}
}

// PipelineForTier maps a subscription tier to its analysis pipeline.
func PipelineForTier(tier string) (string, error) {
	switch tier {
	case consts.TierFree:
		return consts.PipelineSingle, nil
	case consts.TierLite:
		return consts.PipelineComparison, nil
	case consts.TierBasic, consts.TierPro:
		return consts.PipelineCrossValidation, nil
	default:
		return "", fmt.Errorf("unknown tier: %s", tier)
	}
}

// personasForPipeline returns the persona subset a pipeline dispatches,
// in fixed order.
func personasForPipeline(pipeline string) []string {
	switch pipeline {
	case consts.PipelineSingle:
		return consts.PersonaOrder[:1]
	case consts.PipelineComparison:
		return consts.PersonaOrder[:2]
	default:
		return consts.PersonaOrder
	}
}

// RunAnalysis validates the request, enforces the daily quota for paid
// tiers, fans out the persona calls, and assembles the tier's payload.
// Backend failures never fail the run; the failing persona is replaced
// by its deterministic fallback opinion.
func (s *Service) RunAnalysis(ctx context.Context, req Request) (*models.AnalysisResponse, error) {
	if err := dataflows.ValidateSymbol(req.Symbol); err != nil {
		return nil, err
	}
	symbol := dataflows.NormalizeSymbol(req.Symbol)

	pipeline, err := PipelineForTier(req.Tier)
	if err != nil {
		return nil, err
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = "anonymous"
	}

	// Paid tiers are metered per UTC day. The check happens before any
	// backend dispatch so an exhausted user costs nothing.
	if s.meter != nil && req.Tier != consts.TierFree {
		quota := s.cfg.DailyQuota(req.Tier)
		d, err := s.meter.Allow(ctx, userID, consts.FeatureAnalysis, quota)
		if err != nil {
			return nil, fmt.Errorf("quota check: %w", err)
		}
		if !d.Allowed {
			return nil, &usage.QuotaError{
				Feature:   consts.FeatureAnalysis,
				Remaining: d.Remaining,
				ResetAt:   d.ResetAt,
			}
		}
	}

	actx := models.AnalysisContext{
		Symbol:       symbol,
		Name:         req.Name,
		Round:        1,
		CurrentPrice: s.currentPrice(ctx, symbol),
	}

	ids := personasForPipeline(pipeline)
	analyses, costed := s.dispatch(ctx, ids, actx)

	resp := &models.AnalysisResponse{
		AnalysisType: pipeline,
		Analyses:     analyses,
		UsedPersonas: ids,
	}
	for _, id := range costed {
		resp.EstimatedCost += estimatedCost[id]
	}

	switch pipeline {
	case consts.PipelineSingle:
		resp.Single = &models.SingleResult{Analysis: analyses[0]}
	case consts.PipelineComparison:
		cmp := consensus.Compare(analyses[0], analyses[1])
		resp.Comparison = &cmp
	default:
		res := consensus.Compute(analyses)
		resp.CrossValidation = &res
	}

	// Count the run after it succeeded. A failed increment only skews
	// the meter in the user's favor, so it is logged and ignored.
	if s.meter != nil && req.Tier != consts.TierFree {
		if err := s.meter.Increment(ctx, userID, consts.FeatureAnalysis); err != nil {
			log.Printf("usage increment failed for %s: %v", userID, err)
		}
	}

	return resp, nil
}

// dispatch runs the persona calls concurrently and returns the analyses
// in the same order as ids, plus the ids whose live backend answered.
func (s *Service) dispatch(ctx context.Context, ids []string, actx models.AnalysisContext) ([]models.IndependentAnalysis, []string) {
	analyses := make([]models.IndependentAnalysis, len(ids))
	live := make([]bool, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			op, ok := s.generate(ctx, id, actx)
			analyses[i] = models.NewIndependentAnalysis(id, op)
			live[i] = ok
		}(i, id)
	}
	wg.Wait()

	costed := make([]string, 0, len(ids))
	for i, id := range ids {
		if live[i] {
			costed = append(costed, id)
		}
	}
	return analyses, costed
}

func (s *Service) generate(ctx context.Context, personaID string, actx models.AnalysisContext) (models.StructuredOpinion, bool) {
	p, err := personas.Get(personaID)
	if err != nil {
		// Unknown ids cannot reach here through the public entry point.
		return models.StructuredOpinion{Score: 3}, false
	}

	if gen, ok := s.adapters[personaID]; ok && gen != nil {
		op, err := gen.Generate(ctx, actx)
		if err == nil {
			return op, true
		}
		log.Printf("persona %s backend failed, using fallback: %v", personaID, err)
	}

	return s.fallback.Opinion(p, actx), false
}

func (s *Service) currentPrice(ctx context.Context, symbol string) float64 {
	if s.quotes != nil {
		md, err := s.quotes.Quote(ctx, symbol)
		if err == nil && md.Price() > 0 {
			return md.Price()
		}
		if err != nil {
			log.Printf("quote lookup failed for %s: %v", symbol, err)
		}
	}
	return s.cfg.DefaultPrice
}
