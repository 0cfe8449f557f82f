package models

// ConsensusGrade is the discrete cross-persona agreement label.
type ConsensusGrade string

const (
	GradeStrong   ConsensusGrade = "STRONG"
	GradeModerate ConsensusGrade = "MODERATE"
	GradeConflict ConsensusGrade = "CONFLICT"
)

// SharedReason is a line of reasoning that appeared, in similar form, in the
// rationale of two or more personas.
type SharedReason struct {
	Text     string   `json:"text"`
	Personas []string `json:"personas"`
}

// UniqueReason is a candidate reason only one persona raised.
type UniqueReason struct {
	Persona string `json:"persona"`
	Text    string `json:"text"`
}

// ConflictView is one persona's stated position inside a conflict point.
type ConflictView struct {
	Persona string `json:"persona"`
	View    string `json:"view"`
}

// ConflictPoint records a topic the personas disagree on, with each
// disagreeing persona's view verbatim.
type ConflictPoint struct {
	Topic string         `json:"topic"`
	Views []ConflictView `json:"views"`
}

// ConsensusResult is the full output of the agreement engine over one
// round's independent analyses. It is computed fresh every time and never
// mutated afterwards; callers snapshot it.
type ConsensusResult struct {
	Votes             map[Direction]int `json:"votes"`
	MajorityDirection Direction         `json:"majority_direction"`
	ConsensusPrice    float64           `json:"consensus_price"`
	PriceSpreadPct    float64           `json:"price_spread_pct"`
	SharedReasons     []SharedReason    `json:"shared_reasons"`
	UniqueReasons     []UniqueReason    `json:"unique_reasons"`
	Conflicts         []ConflictPoint   `json:"conflicts"`
	Grade             ConsensusGrade    `json:"grade"`
	Confidence        int               `json:"confidence"` // 0-100
	Summary           string            `json:"summary"`
	Recommendation    string            `json:"recommendation"`
}

// SingleResult is the free-tier payload: one persona, one opinion.
type SingleResult struct {
	Analysis IndependentAnalysis `json:"analysis"`
}

// ComparisonResult is the lite-tier payload built directly from two
// opinions, bypassing the full agreement engine.
type ComparisonResult struct {
	First              IndependentAnalysis `json:"first"`
	Second             IndependentAnalysis `json:"second"`
	DirectionMatch     bool                `json:"direction_match"`
	PriceDifferencePct float64             `json:"price_difference_pct"`
}

// AnalysisResponse is what the caller-facing entry point returns. Exactly
// one of Single/Comparison/CrossValidation is set, matching AnalysisType.
type AnalysisResponse struct {
	AnalysisType    string                `json:"analysis_type"`
	Single          *SingleResult         `json:"single,omitempty"`
	Comparison      *ComparisonResult     `json:"comparison,omitempty"`
	CrossValidation *ConsensusResult      `json:"cross_validation,omitempty"`
	Analyses        []IndependentAnalysis `json:"analyses"`
	UsedPersonas    []string              `json:"used_personas"`
	EstimatedCost   float64               `json:"estimated_cost"`
}
