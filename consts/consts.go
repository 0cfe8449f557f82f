package consts

const (
	// 分析师人格节点
	BalancedAnalyst = "balanced_analyst"
	GrowthAnalyst   = "growth_analyst"
	MacroAnalyst    = "macro_analyst"
)

// PersonaOrder is the fixed dispatch order inside a debate round. Later
// personas see the replies of earlier ones from the same round.
var PersonaOrder = []string{BalancedAnalyst, GrowthAnalyst, MacroAnalyst}

const (
	// 订阅等级
	TierFree  = "free"
	TierLite  = "lite"
	TierBasic = "basic"
	TierPro   = "pro"
)

const (
	// 分析管道类型
	PipelineSingle          = "single"
	PipelineComparison      = "comparison"
	PipelineCrossValidation = "cross_validation"
)

const (
	// 辩论轮次阶段
	PhaseOpening  = "opening"
	PhaseReacting = "reacting"
	PhaseClosing  = "closing"
)

const (
	// 用量计费特性
	FeatureAnalysis = "analysis"
	FeatureDebate   = "debate"
)
