// Package consensus implements the cross-persona agreement engine: direction
// votes, price consensus and spread, shared and unique reasoning, conflict
// points and the discrete consensus grade. Everything here is a pure
// function of its input; identical input always yields identical output.
package consensus

import (
	"fmt"
	"math"

	"github.com/dyike/QuorumGo/models"
)

const (
	// LowSpreadPct is the price spread below which unanimous direction
	// agreement earns a STRONG grade.
	LowSpreadPct = 10.0
	// HighSpreadPct is the price spread above which even a direction
	// majority degrades to CONFLICT.
	HighSpreadPct = 40.0
)

// directionPrecedence breaks vote ties deterministically.
var directionPrecedence = []models.Direction{
	models.DirectionUp,
	models.DirectionDown,
	models.DirectionNeutral,
}

// Compute aggregates a round's independent analyses into a ConsensusResult.
// It never fails: an empty input yields a degenerate CONFLICT result with
// zero confidence, since "no opinions" is a valid input.
func Compute(analyses []models.IndependentAnalysis) models.ConsensusResult {
	votes := map[models.Direction]int{
		models.DirectionUp:      0,
		models.DirectionDown:    0,
		models.DirectionNeutral: 0,
	}

	if len(analyses) == 0 {
		return models.ConsensusResult{
			Votes:             votes,
			MajorityDirection: models.DirectionNeutral,
			SharedReasons:     []models.SharedReason{},
			UniqueReasons:     []models.UniqueReason{},
			Conflicts:         []models.ConflictPoint{},
			Grade:             models.GradeConflict,
			Confidence:        0,
			Summary:           "No analyst opinions were available.",
			Recommendation:    "Insufficient data for a recommendation.",
		}
	}

	for _, a := range analyses {
		votes[a.Direction]++
	}

	majority, maxCount := majorityDirection(votes)
	hasMajority := maxCount*2 > len(analyses)

	consensusPrice, spread := priceAgreement(analyses)
	shared, unique := matchReasons(analyses)
	conflicts := conflictPoints(analyses, spread)

	grade := gradeOf(hasMajority, maxCount == len(analyses), spread)
	confidence := confidenceScore(maxCount, len(analyses), spread)

	result := models.ConsensusResult{
		Votes:             votes,
		MajorityDirection: majority,
		ConsensusPrice:    consensusPrice,
		PriceSpreadPct:    spread,
		SharedReasons:     shared,
		UniqueReasons:     unique,
		Conflicts:         conflicts,
		Grade:             grade,
		Confidence:        confidence,
	}
	result.Summary = summarize(result, len(analyses))
	result.Recommendation = recommend(result)
	return result
}

// Compare is the lite-tier two-opinion comparison; it bypasses the full
// engine on purpose and only reports direction match and price distance.
func Compare(a, b models.IndependentAnalysis) models.ComparisonResult {
	result := models.ComparisonResult{
		First:          a,
		Second:         b,
		DirectionMatch: a.Direction == b.Direction,
	}
	if a.Opinion.Target != nil && b.Opinion.Target != nil {
		p1, p2 := a.Opinion.Target.Price, b.Opinion.Target.Price
		// Difference is relative to the second opinion's target, which is
		// the baseline the first is compared against.
		if p2 > 0 {
			result.PriceDifferencePct = round2(math.Abs(p1-p2) / p2 * 100)
		}
	}
	return result
}

func majorityDirection(votes map[models.Direction]int) (models.Direction, int) {
	best := models.DirectionNeutral
	maxCount := -1
	for _, dir := range directionPrecedence {
		if votes[dir] > maxCount {
			best = dir
			maxCount = votes[dir]
		}
	}
	return best, maxCount
}

// priceAgreement averages the stated targets. Personas without a target are
// excluded, not counted as zero. A single target means consensus at that
// price with zero spread.
func priceAgreement(analyses []models.IndependentAnalysis) (consensus, spreadPct float64) {
	var prices []float64
	for _, a := range analyses {
		if a.Opinion.Target != nil {
			prices = append(prices, a.Opinion.Target.Price)
		}
	}
	if len(prices) == 0 {
		return 0, 0
	}

	sum, lowest, highest := 0.0, prices[0], prices[0]
	for _, p := range prices {
		sum += p
		lowest = math.Min(lowest, p)
		highest = math.Max(highest, p)
	}
	consensus = sum / float64(len(prices))
	if len(prices) > 1 && consensus > 0 {
		spreadPct = (highest - lowest) / consensus * 100
	}
	return round2(consensus), round2(spreadPct)
}

func gradeOf(hasMajority, unanimous bool, spread float64) models.ConsensusGrade {
	switch {
	case !hasMajority:
		return models.GradeConflict
	case spread > HighSpreadPct:
		return models.GradeConflict
	case unanimous && spread < LowSpreadPct:
		return models.GradeStrong
	default:
		return models.GradeModerate
	}
}

// confidenceScore grows with vote concentration and shrinks with spread,
// clamped to [0,100].
func confidenceScore(maxCount, total int, spread float64) int {
	if total == 0 {
		return 0
	}
	voteShare := float64(maxCount) / float64(total)
	spreadPenalty := math.Min(spread, 50) / 50
	score := int(math.Round(voteShare*70 + (1-spreadPenalty)*30))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func conflictPoints(analyses []models.IndependentAnalysis, spread float64) []models.ConflictPoint {
	conflicts := []models.ConflictPoint{}

	distinct := map[models.Direction]bool{}
	for _, a := range analyses {
		distinct[a.Direction] = true
	}
	if len(distinct) > 1 {
		point := models.ConflictPoint{Topic: "direction"}
		for _, a := range analyses {
			point.Views = append(point.Views, models.ConflictView{
				Persona: a.Persona,
				View:    fmt.Sprintf("%s: %s", a.Direction, a.Opinion.Rationale),
			})
		}
		conflicts = append(conflicts, point)
	}

	if spread > HighSpreadPct {
		point := models.ConflictPoint{Topic: "price_target"}
		for _, a := range analyses {
			if a.Opinion.Target == nil {
				continue
			}
			view := fmt.Sprintf("target %.2f", a.Opinion.Target.Price)
			if a.Opinion.PriceRationale != "" {
				view += ": " + a.Opinion.PriceRationale
			}
			point.Views = append(point.Views, models.ConflictView{Persona: a.Persona, View: view})
		}
		conflicts = append(conflicts, point)
	}

	return conflicts
}

func summarize(r models.ConsensusResult, total int) string {
	s := fmt.Sprintf("%d analysts voted %s %d / %s %d / %s %d; majority %s.",
		total,
		models.DirectionUp, r.Votes[models.DirectionUp],
		models.DirectionDown, r.Votes[models.DirectionDown],
		models.DirectionNeutral, r.Votes[models.DirectionNeutral],
		r.MajorityDirection)
	if r.ConsensusPrice > 0 {
		s += fmt.Sprintf(" Consensus target %.2f with %.1f%% spread.", r.ConsensusPrice, r.PriceSpreadPct)
	}
	return s
}

func recommend(r models.ConsensusResult) string {
	switch r.Grade {
	case models.GradeStrong:
		return fmt.Sprintf("Strong consensus: all analysts lean %s. Confidence %d%%.", r.MajorityDirection, r.Confidence)
	case models.GradeModerate:
		return fmt.Sprintf("Moderate consensus: majority leans %s but views diverge. Confidence %d%%.", r.MajorityDirection, r.Confidence)
	default:
		return fmt.Sprintf("No reliable consensus; analyst views conflict. Confidence %d%%.", r.Confidence)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
