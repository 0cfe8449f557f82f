package models

// Direction classifies a persona's stance derived from its 1-5 score.
type Direction string

const (
	DirectionUp      Direction = "UP"
	DirectionDown    Direction = "DOWN"
	DirectionNeutral Direction = "NEUTRAL"
)

// DirectionFromScore maps a bullishness score to a direction.
// The thresholds are fixed policy: >=4 UP, <=2 DOWN, otherwise NEUTRAL.
func DirectionFromScore(score int) Direction {
	switch {
	case score >= 4:
		return DirectionUp
	case score <= 2:
		return DirectionDown
	default:
		return DirectionNeutral
	}
}

// PriceTarget is a concrete price call with its horizon. Opinions carry
// *PriceTarget so that "no target stated" stays distinguishable from a
// target of zero.
type PriceTarget struct {
	Price float64 `json:"price"`
	Date  string  `json:"date,omitempty"`
}

// StructuredOpinion is the normalized output of one persona call.
type StructuredOpinion struct {
	Rationale      string       `json:"rationale"`
	Score          int          `json:"score"` // 1-5, 5 = most bullish
	Risks          []string     `json:"risks"`
	Sources        []string     `json:"sources"`
	Target         *PriceTarget `json:"target,omitempty"`
	PriceRationale string       `json:"price_rationale,omitempty"`
}

// ClampScore bounds a raw score to the valid 1-5 band.
func ClampScore(score int) int {
	if score < 1 {
		return 1
	}
	if score > 5 {
		return 5
	}
	return score
}

// IndependentAnalysis binds one persona to one opinion for a single round.
// Instances are never mutated after creation; a new round builds new ones.
type IndependentAnalysis struct {
	Persona   string            `json:"persona"`
	Opinion   StructuredOpinion `json:"opinion"`
	Direction Direction         `json:"direction"`
}

// NewIndependentAnalysis derives the direction at construction so the pair
// can never drift apart.
func NewIndependentAnalysis(persona string, op StructuredOpinion) IndependentAnalysis {
	op.Score = ClampScore(op.Score)
	return IndependentAnalysis{
		Persona:   persona,
		Opinion:   op,
		Direction: DirectionFromScore(op.Score),
	}
}
