package models

import "time"

// DebateMessage is one persona's contribution in one debate round. Messages
// are appended to a session transcript and never mutated afterwards.
type DebateMessage struct {
	Persona        string       `json:"persona"`
	Round          int          `json:"round"`
	Text           string       `json:"text"`
	Score          int          `json:"score"`
	Risks          []string     `json:"risks"`
	Sources        []string     `json:"sources"`
	Target         *PriceTarget `json:"target,omitempty"`
	PriceRationale string       `json:"price_rationale,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// AnalysisContext is the immutable input to every persona call. The
// orchestrator rebuilds it from session state before each call, so adapters
// only ever see a completed snapshot.
type AnalysisContext struct {
	Symbol        string                 `json:"symbol"`
	Name          string                 `json:"name"`
	Sector        string                 `json:"sector,omitempty"`
	Round         int                    `json:"round"` // 1-based
	CurrentPrice  float64                `json:"current_price"`
	Transcript    []DebateMessage        `json:"transcript"`
	LatestTargets map[string]PriceTarget `json:"latest_targets"`
	FinalRound    bool                   `json:"final_round"`
}

// PriorTarget returns the persona's most recent price target, if it has
// stated one in an earlier call.
func (c AnalysisContext) PriorTarget(persona string) (PriceTarget, bool) {
	t, ok := c.LatestTargets[persona]
	return t, ok
}
