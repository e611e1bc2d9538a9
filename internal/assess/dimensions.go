package assess

// Dimension rule tables for the two keyword-bag variants. Keeping these as
// data rather than inline string checks lets the tables be tuned (or audited)
// without touching control flow, and each table is independently testable.
//
// Bases differ per dimension: dimensions where the average executive already
// has partial coverage start higher, so a blank answer set lands mid-range
// rather than at zero.

// ReadinessDimensions are the four executive-readiness dimensions.
var ReadinessDimensions = []Dimension{
	{
		Name: "business_readiness",
		Base: 50,
		Rules: []KeywordRule{
			{Keyword: "revenue", Delta: 10},
			{Keyword: "roi", Delta: 10},
			{Keyword: "customer", Delta: 8},
			{Keyword: "pilot", Delta: 8},
			{Keyword: "budget", Delta: 6},
			{Keyword: "no plan", Delta: -12},
			{Keyword: "not sure", Delta: -8},
		},
	},
	{
		Name: "technical_readiness",
		Base: 35,
		Rules: []KeywordRule{
			{Keyword: "data", Delta: 10},
			{Keyword: "api", Delta: 8},
			{Keyword: "cloud", Delta: 8},
			{Keyword: "automation", Delta: 8},
			{Keyword: "model", Delta: 6},
			{Keyword: "spreadsheet", Delta: -6},
			{Keyword: "legacy", Delta: -8},
		},
	},
	{
		Name: "organizational_readiness",
		Base: 40,
		Rules: []KeywordRule{
			{Keyword: "team", Delta: 8},
			{Keyword: "training", Delta: 10},
			{Keyword: "champion", Delta: 8},
			{Keyword: "culture", Delta: 6},
			{Keyword: "hiring", Delta: 6},
			{Keyword: "resistance", Delta: -10},
			{Keyword: "silo", Delta: -6},
		},
	},
	{
		Name: "strategic_readiness",
		Base: 30,
		Rules: []KeywordRule{
			{Keyword: "roadmap", Delta: 12},
			{Keyword: "strategy", Delta: 10},
			{Keyword: "vision", Delta: 8},
			{Keyword: "competitive", Delta: 8},
			{Keyword: "board", Delta: 6},
			{Keyword: "experiment", Delta: 6},
			{Keyword: "waiting", Delta: -10},
		},
	},
}

// LiteracyDimensions are the four AI-literacy dimensions.
var LiteracyDimensions = []Dimension{
	{
		Name: "fundamentals",
		Base: 40,
		Rules: []KeywordRule{
			{Keyword: "machine learning", Delta: 10},
			{Keyword: "llm", Delta: 10},
			{Keyword: "prompt", Delta: 8},
			{Keyword: "training data", Delta: 8},
			{Keyword: "hallucination", Delta: 6},
			{Keyword: "magic", Delta: -8},
		},
	},
	{
		Name: "practical_application",
		Base: 35,
		Rules: []KeywordRule{
			{Keyword: "daily", Delta: 12},
			{Keyword: "weekly", Delta: 8},
			{Keyword: "workflow", Delta: 8},
			{Keyword: "copilot", Delta: 6},
			{Keyword: "chatgpt", Delta: 6},
			{Keyword: "never used", Delta: -12},
		},
	},
	{
		Name: "ethical_awareness",
		Base: 45,
		Rules: []KeywordRule{
			{Keyword: "bias", Delta: 10},
			{Keyword: "privacy", Delta: 10},
			{Keyword: "governance", Delta: 8},
			{Keyword: "transparency", Delta: 6},
			{Keyword: "compliance", Delta: 6},
		},
	},
	{
		Name: "strategic_literacy",
		Base: 30,
		Rules: []KeywordRule{
			{Keyword: "use case", Delta: 10},
			{Keyword: "investment", Delta: 8},
			{Keyword: "capability", Delta: 8},
			{Keyword: "transformation", Delta: 8},
			{Keyword: "disruption", Delta: 6},
			{Keyword: "hype", Delta: -6},
		},
	},
}

// DimensionsFor returns the rule tables for a keyword-bag variant, or nil for
// the sum-based variants.
func DimensionsFor(v Variant) []Dimension {
	switch v {
	case VariantReadiness:
		return ReadinessDimensions
	case VariantLiteracy:
		return LiteracyDimensions
	default:
		return nil
	}
}
