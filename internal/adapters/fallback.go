package adapters

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/dyike/QuorumGo/consts"
	"github.com/dyike/QuorumGo/internal/personas"
	"github.com/dyike/QuorumGo/models"
)

// Fallback produces a plausible opinion without any backend. Output is a
// pure function of (symbol, round, persona): the rng is seeded from a hash
// of those three, so repeated calls with identical inputs are byte-identical.
// That property is what makes failed-call substitution testable and keeps
// offline development deterministic.
type Fallback struct{}

func NewFallback() *Fallback {
	return &Fallback{}
}

var openingTemplates = []string{
	"My opening view on %[1]s is shaped by %[2]s conditions. The setup justifies a constructive stance with disciplined sizing.",
	"Looking at %[1]s fresh, the balance of evidence in %[2]s leans positive, though I want confirmation before adding.",
	"%[1]s screens reasonably well against %[2]s peers. I am starting from a measured position and will adjust as the discussion develops.",
}

var reactingTemplates = []string{
	"Having heard the other panelists on %[1]s, I hold my framework but acknowledge the strongest counterpoint raised about %[2]s dynamics.",
	"The panel's arguments on %[1]s do not change my process. Where we differ is weighting of %[2]s factors, and I weight them differently.",
	"I partially concede the point on %[1]s momentum, but my read of %[2]s conditions keeps me anchored near my prior view.",
}

var closingTemplates = []string{
	"Closing on %[1]s: the panel agrees on the broad thesis and differs mainly on magnitude. I commit to my stated target.",
	"Final position on %[1]s: I synthesize the discussion as directionally aligned with dispersion on price, and I hold my number.",
	"To close on %[1]s: the disagreements aired here are about timing, not substance. My target stands as stated.",
}

var riskPool = []string{
	"execution risk on guidance",
	"multiple compression if rates rise",
	"competitive pressure on margins",
	"regulatory overhang",
	"FX and demand cyclicality",
}

var sourcePool = []string{
	"price action",
	"latest quarterly filing",
	"sector flow data",
	"consensus estimate revisions",
}

// Opinion generates the deterministic substitute for one persona call.
func (f *Fallback) Opinion(p personas.Persona, actx models.AnalysisContext) models.StructuredOpinion {
	rng := rand.New(rand.NewSource(seed(actx.Symbol, actx.Round, p.ID)))

	score := p.ScoreMin + rng.Intn(p.ScoreMax-p.ScoreMin+1)

	sector := actx.Sector
	if sector == "" {
		sector = "current market"
	}
	rationale := fmt.Sprintf(pick(rng, templatesFor(actx)), actx.Symbol, sector)

	target := f.target(rng, p, actx)

	return models.StructuredOpinion{
		Rationale:      rationale,
		Score:          models.ClampScore(score),
		Risks:          pickN(rng, riskPool, 2),
		Sources:        pickN(rng, sourcePool, 1),
		Target:         target,
		PriceRationale: fmt.Sprintf("%s band applied to current price over %s", p.DisplayName, p.Horizon),
	}
}

// target applies the persona's aggressiveness band to the current price, or
// drifts at most 5% off the persona's prior target when one exists instead
// of re-rolling a fresh number.
func (f *Fallback) target(rng *rand.Rand, p personas.Persona, actx models.AnalysisContext) *models.PriceTarget {
	if actx.CurrentPrice <= 0 {
		return nil
	}

	var price float64
	if prior, ok := actx.PriorTarget(p.ID); ok && prior.Price > 0 {
		drift := 0.95 + rng.Float64()*0.10
		price = prior.Price * drift
	} else {
		mult := p.Band.Min + rng.Float64()*(p.Band.Max-p.Band.Min)
		price = actx.CurrentPrice * mult
	}

	return &models.PriceTarget{
		Price: math.Round(price*100) / 100,
		Date:  p.Horizon,
	}
}

func templatesFor(actx models.AnalysisContext) []string {
	switch personas.PhaseFor(actx) {
	case consts.PhaseOpening:
		return openingTemplates
	case consts.PhaseClosing:
		return closingTemplates
	default:
		return reactingTemplates
	}
}

func seed(symbol string, round int, personaID string) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%s", symbol, round, personaID)
	return int64(h.Sum64())
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}

func pickN(rng *rand.Rand, pool []string, n int) []string {
	idx := rng.Perm(len(pool))
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]string, 0, n)
	for _, i := range idx[:n] {
		out = append(out, pool[i])
	}
	return out
}
