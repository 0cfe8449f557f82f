package consensus

import (
	"reflect"
	"testing"

	"github.com/dyike/QuorumGo/consts"
	"github.com/dyike/QuorumGo/models"
)

func analysis(persona string, score int, target float64, rationale string) models.IndependentAnalysis {
	op := models.StructuredOpinion{
		Rationale: rationale,
		Score:     score,
		Risks:     []string{},
		Sources:   []string{},
	}
	if target > 0 {
		op.Target = &models.PriceTarget{Price: target, Date: "6 months"}
	}
	return models.NewIndependentAnalysis(persona, op)
}

func TestComputeIsDeterministic(t *testing.T) {
	analyses := []models.IndependentAnalysis{
		analysis(consts.BalancedAnalyst, 5, 90000, "Earnings momentum is accelerating across all segments."),
		analysis(consts.GrowthAnalyst, 4, 88000, "Momentum in earnings is accelerating across segments."),
		analysis(consts.MacroAnalyst, 2, 60000, "Rate pressure caps any multiple expansion this year."),
	}

	first := Compute(analyses)
	second := Compute(analyses)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical input produced different results:\n%+v\n%+v", first, second)
	}
}

func TestMajorityStableUnderReordering(t *testing.T) {
	a := analysis(consts.BalancedAnalyst, 5, 90000, "Strong demand signals from the latest quarter.")
	b := analysis(consts.GrowthAnalyst, 5, 88000, "Demand signals from the latest quarter look strong.")
	c := analysis(consts.MacroAnalyst, 2, 60000, "Liquidity conditions argue for caution near term.")

	base := Compute([]models.IndependentAnalysis{a, b, c})
	permutations := [][]models.IndependentAnalysis{
		{a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a},
	}
	for _, perm := range permutations {
		got := Compute(perm)
		if got.MajorityDirection != base.MajorityDirection {
			t.Fatalf("majority changed under reorder: %s vs %s", got.MajorityDirection, base.MajorityDirection)
		}
		if got.Grade != base.Grade {
			t.Fatalf("grade changed under reorder: %s vs %s", got.Grade, base.Grade)
		}
	}
}

func TestEqualPricesZeroSpread(t *testing.T) {
	analyses := []models.IndependentAnalysis{
		analysis(consts.BalancedAnalyst, 5, 80000, "Breakout above long-term resistance."),
		analysis(consts.GrowthAnalyst, 5, 80000, "The long-term resistance breakout confirms trend."),
		analysis(consts.MacroAnalyst, 4, 80000, "Macro tailwinds finally align with the chart."),
	}
	r := Compute(analyses)
	if r.PriceSpreadPct != 0 {
		t.Fatalf("spread = %f, want 0", r.PriceSpreadPct)
	}
	if r.Grade == models.GradeConflict {
		t.Fatalf("equal prices must never produce CONFLICT on price grounds, got %s", r.Grade)
	}
	if r.ConsensusPrice != 80000 {
		t.Fatalf("consensus price = %f, want 80000", r.ConsensusPrice)
	}
}

func TestThreeWaySplitIsConflict(t *testing.T) {
	analyses := []models.IndependentAnalysis{
		analysis(consts.BalancedAnalyst, 5, 80000, "Upside from new product cycle."),
		analysis(consts.GrowthAnalyst, 3, 80500, "Fairly valued at current levels."),
		analysis(consts.MacroAnalyst, 1, 79500, "Cycle is rolling over, downside ahead."),
	}
	r := Compute(analyses)
	if r.Grade != models.GradeConflict {
		t.Fatalf("three-way split must be CONFLICT regardless of prices, got %s", r.Grade)
	}
	if len(r.Conflicts) == 0 {
		t.Fatalf("expected a direction conflict point")
	}
}

func TestTwoOfThreeMajorityIsModerate(t *testing.T) {
	analyses := []models.IndependentAnalysis{
		analysis(consts.BalancedAnalyst, 5, 90000, "Revenue growth should re-accelerate in the second half."),
		analysis(consts.GrowthAnalyst, 5, 88000, "Second-half revenue growth is set to re-accelerate."),
		analysis(consts.MacroAnalyst, 2, 60000, "Valuation unsupported if rates stay elevated."),
	}
	r := Compute(analyses)

	if r.Votes[models.DirectionUp] != 2 || r.Votes[models.DirectionDown] != 1 || r.Votes[models.DirectionNeutral] != 0 {
		t.Fatalf("votes = %v, want UP:2 DOWN:1 NEUTRAL:0", r.Votes)
	}
	if r.MajorityDirection != models.DirectionUp {
		t.Fatalf("majority = %s, want UP", r.MajorityDirection)
	}
	if r.Grade != models.GradeModerate {
		t.Fatalf("2-of-3 majority with tolerable spread must grade MODERATE, got %s", r.Grade)
	}
}

func TestUnanimousTightSpreadIsStrong(t *testing.T) {
	analyses := []models.IndependentAnalysis{
		analysis(consts.BalancedAnalyst, 5, 100000, "Clear path to new highs on volume expansion."),
		analysis(consts.GrowthAnalyst, 5, 102000, "Volume expansion points to a clear path higher."),
		analysis(consts.MacroAnalyst, 5, 101000, "Even the macro picture supports new highs here."),
	}
	r := Compute(analyses)
	if r.Grade != models.GradeStrong {
		t.Fatalf("grade = %s, want STRONG (spread %.2f)", r.Grade, r.PriceSpreadPct)
	}
	if r.Confidence < 90 {
		t.Fatalf("confidence = %d, want >= 90", r.Confidence)
	}
}

func TestWideSpreadDegradesToConflict(t *testing.T) {
	analyses := []models.IndependentAnalysis{
		analysis(consts.BalancedAnalyst, 5, 120000, "Multiple expansion has room to run."),
		analysis(consts.GrowthAnalyst, 5, 200000, "This is a double from here on platform economics."),
		analysis(consts.MacroAnalyst, 4, 90000, "Constructive, but only modestly above market."),
	}
	r := Compute(analyses)
	if r.PriceSpreadPct <= HighSpreadPct {
		t.Fatalf("test setup wrong: spread %.2f should exceed %.2f", r.PriceSpreadPct, HighSpreadPct)
	}
	if r.Grade != models.GradeConflict {
		t.Fatalf("majority with wide spread must be CONFLICT, got %s", r.Grade)
	}
	foundPrice := false
	for _, c := range r.Conflicts {
		if c.Topic == "price_target" {
			foundPrice = true
		}
	}
	if !foundPrice {
		t.Fatalf("expected a price_target conflict point, got %+v", r.Conflicts)
	}
}

func TestMissingTargetsExcludedFromPrice(t *testing.T) {
	analyses := []models.IndependentAnalysis{
		analysis(consts.BalancedAnalyst, 4, 90000, "Technicals support a move higher from here."),
		analysis(consts.GrowthAnalyst, 4, 0, "Constructive but declining to state a number."),
	}
	r := Compute(analyses)
	if r.ConsensusPrice != 90000 {
		t.Fatalf("consensus price = %f, want 90000 (absent target must not average as zero)", r.ConsensusPrice)
	}
	if r.PriceSpreadPct != 0 {
		t.Fatalf("single price must have zero spread, got %f", r.PriceSpreadPct)
	}
}

func TestEmptyInputDegenerateResult(t *testing.T) {
	r := Compute(nil)
	if r.Grade != models.GradeConflict {
		t.Fatalf("empty input grade = %s, want CONFLICT", r.Grade)
	}
	if r.Confidence != 0 {
		t.Fatalf("empty input confidence = %d, want 0", r.Confidence)
	}
	if r.Votes[models.DirectionUp] != 0 || r.Votes[models.DirectionDown] != 0 || r.Votes[models.DirectionNeutral] != 0 {
		t.Fatalf("empty input votes = %v, want all zero", r.Votes)
	}
}

func TestTieBreakPrecedence(t *testing.T) {
	// 1 UP vs 1 DOWN: no majority, but the reported direction must follow
	// the fixed precedence UP > DOWN > NEUTRAL.
	analyses := []models.IndependentAnalysis{
		analysis(consts.MacroAnalyst, 1, 60000, "Downtrend remains fully intact for now."),
		analysis(consts.BalancedAnalyst, 5, 90000, "Reversal pattern is forming on the weekly chart."),
	}
	r := Compute(analyses)
	if r.MajorityDirection != models.DirectionUp {
		t.Fatalf("tie-break direction = %s, want UP", r.MajorityDirection)
	}
	if r.Grade != models.GradeConflict {
		t.Fatalf("1-1 split grade = %s, want CONFLICT", r.Grade)
	}
}

func TestSharedAndUniqueReasons(t *testing.T) {
	analyses := []models.IndependentAnalysis{
		analysis(consts.BalancedAnalyst, 4, 90000,
			"Datacenter revenue growth remains the primary driver. Dividend policy may change next year."),
		analysis(consts.GrowthAnalyst, 5, 95000,
			"The primary driver remains datacenter revenue growth. Optionality in robotics is underpriced."),
	}
	r := Compute(analyses)

	if len(r.SharedReasons) == 0 {
		t.Fatalf("expected the datacenter sentence to be shared, got none (unique: %+v)", r.UniqueReasons)
	}
	if len(r.SharedReasons[0].Personas) < 2 {
		t.Fatalf("shared reason should span 2 personas, got %v", r.SharedReasons[0].Personas)
	}
	if len(r.UniqueReasons) < 2 {
		t.Fatalf("expected the dividend and robotics sentences to stay unique, got %+v", r.UniqueReasons)
	}
}

func TestCompareTwoOpinions(t *testing.T) {
	a := analysis(consts.BalancedAnalyst, 5, 90000, "Breakout confirmed.")
	b := analysis(consts.GrowthAnalyst, 4, 85000, "Uptrend intact.")

	c := Compare(a, b)
	if !c.DirectionMatch {
		t.Fatalf("scores 5 and 4 are both UP; direction should match")
	}
	// |90000-85000| / 85000 * 100 = 5.88
	if c.PriceDifferencePct != 5.88 {
		t.Fatalf("price difference = %f, want 5.88", c.PriceDifferencePct)
	}
}

func TestCompareMissingTarget(t *testing.T) {
	a := analysis(consts.BalancedAnalyst, 5, 90000, "Breakout confirmed.")
	b := analysis(consts.GrowthAnalyst, 2, 0, "No target stated.")

	c := Compare(a, b)
	if c.DirectionMatch {
		t.Fatalf("UP vs DOWN should not match")
	}
	if c.PriceDifferencePct != 0 {
		t.Fatalf("missing target should yield zero price difference, got %f", c.PriceDifferencePct)
	}
}
