// Package personas defines the three fixed analyst viewpoints and builds
// the chat messages each one sends to its backend.
package personas

import (
	"fmt"

	"github.com/dyike/QuorumGo/consts"
)

// PriceBand is the persona's target-price aggressiveness expressed as
// multipliers over the current price.
type PriceBand struct {
	Min float64
	Max float64
}

// Persona is one fixed analytical viewpoint: a system prompt, a target-price
// band and a default time horizon. Behavior differences between personas
// live entirely in this table; the adapter code is shared.
type Persona struct {
	ID          string
	DisplayName string
	PromptFile  string
	Band        PriceBand
	Horizon     string
	// ScoreMin/ScoreMax bias the deterministic fallback's sampled score.
	ScoreMin int
	ScoreMax int
}

var table = map[string]Persona{
	consts.BalancedAnalyst: {
		ID:          consts.BalancedAnalyst,
		DisplayName: "Balanced Analyst",
		PromptFile:  "balanced_analyst",
		Band:        PriceBand{Min: 1.10, Max: 1.20},
		Horizon:     "6 months",
		ScoreMin:    2,
		ScoreMax:    4,
	},
	consts.GrowthAnalyst: {
		ID:          consts.GrowthAnalyst,
		DisplayName: "Growth Analyst",
		PromptFile:  "growth_analyst",
		Band:        PriceBand{Min: 1.20, Max: 1.40},
		Horizon:     "12 months",
		ScoreMin:    3,
		ScoreMax:    5,
	},
	consts.MacroAnalyst: {
		ID:          consts.MacroAnalyst,
		DisplayName: "Macro Analyst",
		PromptFile:  "macro_analyst",
		Band:        PriceBand{Min: 1.05, Max: 1.15},
		Horizon:     "3 months",
		ScoreMin:    1,
		ScoreMax:    4,
	},
}

// Get looks up a persona by id.
func Get(id string) (Persona, error) {
	p, ok := table[id]
	if !ok {
		return Persona{}, fmt.Errorf("unknown persona %q", id)
	}
	return p, nil
}

// All returns the personas in fixed dispatch order.
func All() []Persona {
	out := make([]Persona, 0, len(consts.PersonaOrder))
	for _, id := range consts.PersonaOrder {
		out = append(out, table[id])
	}
	return out
}

// SystemPrompt loads the persona's system prompt from the embedded files.
func (p Persona) SystemPrompt() (string, error) {
	return LoadPrompt(p.PromptFile)
}
