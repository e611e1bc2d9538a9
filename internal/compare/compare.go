// Package compare derives the six-dimension leadership comparison shown on
// the results dashboard. Like assess, it is dependency-free and purely
// computed: no state survives between calls, and the deriver is re-run from
// whatever answers and profile the caller currently holds.
package compare

import (
	"strings"

	"github.com/archwell/leadlens-backend/internal/assess"
)

// Level is one of the four maturity levels, ordered ascending.
type Level string

const (
	LevelEmerging   Level = "Emerging"
	LevelDeveloping Level = "Developing"
	LevelAdvanced   Level = "Advanced"
	LevelLeading    Level = "Leading"
)

// levelRank maps levels to 1–4 for the aggregate average.
var levelRank = map[Level]int{
	LevelEmerging:   1,
	LevelDeveloping: 2,
	LevelAdvanced:   3,
	LevelLeading:    4,
}

// DimensionResult is one judged dimension with its canned reasoning string.
type DimensionResult struct {
	Dimension string `json:"dimension"`
	Level     Level  `json:"level"`
	Reasoning string `json:"reasoning"`
}

// Comparison is the full derived view: six dimensions plus the aggregate
// maturity sentence.
type Comparison struct {
	Dimensions      []DimensionResult `json:"dimensions"`
	OverallMaturity string            `json:"overall_maturity"`
}

// DeepProfile is the optional extended questionnaire. A nil profile is valid:
// every dimension falls back to its answer-only ladder.
type DeepProfile struct {
	DecisionStyle     string         `json:"decision_style"`
	TeamSize          string         `json:"team_size"`
	AIUsageFrequency  string         `json:"ai_usage_frequency"`
	Priorities        []string       `json:"priorities"` // fixed-count multi-select (3)
	Tools             []string       `json:"tools"`
	TimeAllocation    map[string]int `json:"time_allocation"` // 5 categories, ~100 total
	BiggestChallenge  string         `json:"biggest_challenge"`
	SuccessDefinition string         `json:"success_definition"`
}

// Derive computes the comparison from a benchmark answer set and an optional
// deep profile. The six dimension functions are independent and
// order-insensitive relative to each other; each reads 1–3 fixed question IDs
// plus optional profile signals.
func Derive(answers map[string]string, profile *DeepProfile) Comparison {
	dims := []DimensionResult{
		strategicVision(answers, profile),
		decisionVelocity(answers, profile),
		teamEnablement(answers, profile),
		operationalIntegration(answers, profile),
		learningAgility(answers, profile),
		riskGovernance(answers, profile),
	}

	return Comparison{
		Dimensions:      dims,
		OverallMaturity: overallMaturity(dims),
	}
}

// answerScore extracts the leading integer of a fixed question's answer,
// defaulting to 0 when absent or malformed.
func answerScore(answers map[string]string, questionID string) int {
	n, _ := assess.ParseAnswer(answers[questionID])
	return n
}

// ─── DIMENSION LADDERS ───────────────────────────────────────────────────────

func strategicVision(answers map[string]string, p *DeepProfile) DimensionResult {
	q1 := answerScore(answers, "q1")
	q6 := answerScore(answers, "q6")
	hasRoadmapChallenge := p != nil && strings.Contains(strings.ToLower(p.BiggestChallenge), "roadmap")

	var level Level
	var reasoning string
	switch {
	case q1 >= 5 && q6 >= 4:
		level = LevelLeading
		reasoning = "You articulate a concrete AI direction and tie it to business outcomes — a posture most peers have not reached."
	case q1 >= 4 || (q6 >= 4 && hasRoadmapChallenge):
		level = LevelAdvanced
		reasoning = "You have a working AI thesis. Sharpening it into a sequenced roadmap is the next step."
	case q1 >= 3:
		level = LevelDeveloping
		reasoning = "AI is on your strategic radar but not yet anchored to measurable goals."
	default:
		level = LevelEmerging
		reasoning = "AI strategy is still ad hoc. Start by naming two or three candidate use cases."
	}
	return DimensionResult{Dimension: "Strategic Vision", Level: level, Reasoning: reasoning}
}

func decisionVelocity(answers map[string]string, p *DeepProfile) DimensionResult {
	q2 := answerScore(answers, "q2")
	dataDriven := p != nil && strings.Contains(strings.ToLower(p.DecisionStyle), "data")

	var level Level
	var reasoning string
	switch {
	case q2 >= 5 && dataDriven:
		level = LevelLeading
		reasoning = "You combine fast decision cycles with data grounding — the pattern that compounds under AI adoption."
	case q2 >= 4:
		level = LevelAdvanced
		reasoning = "Decisions move quickly. Instrumenting them with AI-assisted analysis would push you into the top band."
	case q2 >= 3:
		level = LevelDeveloping
		reasoning = "Decision pace is adequate but approval chains still slow the loop."
	default:
		level = LevelEmerging
		reasoning = "Decision cycles are slow relative to the pace AI-driven competitors set."
	}
	return DimensionResult{Dimension: "Decision Velocity", Level: level, Reasoning: reasoning}
}

func teamEnablement(answers map[string]string, p *DeepProfile) DimensionResult {
	q3 := answerScore(answers, "q3")
	toolCount := 0
	if p != nil {
		toolCount = len(p.Tools)
	}

	var level Level
	var reasoning string
	switch {
	case q3 >= 5 || (q3 >= 4 && toolCount >= 3):
		level = LevelLeading
		reasoning = "Your team has both permission and tooling to apply AI daily — a genuine capability moat."
	case q3 >= 4:
		level = LevelAdvanced
		reasoning = "The team is encouraged to use AI; broadening the sanctioned tool set would accelerate adoption."
	case q3 >= 3 || toolCount >= 2:
		level = LevelDeveloping
		reasoning = "Pockets of AI use exist, but enablement is uneven across the team."
	default:
		level = LevelEmerging
		reasoning = "AI use is individual and unsanctioned. A lightweight enablement program is the fastest win."
	}
	return DimensionResult{Dimension: "Team Enablement", Level: level, Reasoning: reasoning}
}

func operationalIntegration(answers map[string]string, p *DeepProfile) DimensionResult {
	q4 := answerScore(answers, "q4")
	opsShare := 0
	if p != nil {
		opsShare = p.TimeAllocation["operations"]
	}

	var level Level
	var reasoning string
	switch {
	case q4 >= 5:
		level = LevelLeading
		reasoning = "AI is embedded in recurring workflows rather than bolted on — the hallmark of durable integration."
	case q4 >= 4:
		level = LevelAdvanced
		reasoning = "Several workflows run with AI in the loop. Standardising them would lock in the gains."
	case q4 >= 3 || opsShare >= 40:
		level = LevelDeveloping
		reasoning = "Operations absorb much of your attention; targeted AI automation would buy that time back."
	default:
		level = LevelEmerging
		reasoning = "AI has not yet touched core operations. Pick one high-volume workflow and instrument it."
	}
	return DimensionResult{Dimension: "Operational Integration", Level: level, Reasoning: reasoning}
}

func learningAgility(answers map[string]string, p *DeepProfile) DimensionResult {
	q5 := answerScore(answers, "q5")
	frequentUse := p != nil && (strings.EqualFold(p.AIUsageFrequency, "daily") || strings.EqualFold(p.AIUsageFrequency, "weekly"))

	var level Level
	var reasoning string
	switch {
	case q5 >= 5 && frequentUse:
		level = LevelLeading
		reasoning = "You learn by shipping: regular hands-on AI use keeps your mental model current."
	case q5 >= 4 || frequentUse:
		level = LevelAdvanced
		reasoning = "You stay close to the tooling. Converting experiments into shared playbooks is the next multiplier."
	case q5 >= 3:
		level = LevelDeveloping
		reasoning = "You follow AI developments but hands-on time is limited."
	default:
		level = LevelEmerging
		reasoning = "AI knowledge is second-hand today. Thirty minutes of weekly hands-on use changes that quickly."
	}
	return DimensionResult{Dimension: "Learning Agility", Level: level, Reasoning: reasoning}
}

func riskGovernance(answers map[string]string, p *DeepProfile) DimensionResult {
	q6 := answerScore(answers, "q6")
	q4 := answerScore(answers, "q4")
	mentionsCompliance := p != nil && strings.Contains(strings.ToLower(p.BiggestChallenge), "compliance")

	var level Level
	var reasoning string
	switch {
	case q6 >= 5 && q4 >= 3:
		level = LevelLeading
		reasoning = "You pair adoption with explicit guardrails — governance as an enabler, not a brake."
	case q6 >= 4 || mentionsCompliance:
		level = LevelAdvanced
		reasoning = "Risk awareness is real; codifying it into a short usage policy would close the loop."
	case q6 >= 3:
		level = LevelDeveloping
		reasoning = "Governance is informal. A one-page policy beats an unwritten rule."
	default:
		level = LevelEmerging
		reasoning = "AI risk has not been assessed. Start with data-handling rules before scaling usage."
	}
	return DimensionResult{Dimension: "Risk Governance", Level: level, Reasoning: reasoning}
}

// ─── AGGREGATE ───────────────────────────────────────────────────────────────

// overallMaturity averages the six level ranks and re-thresholds the mean
// into a human-readable sentence. The cutoffs (3.5 / 2.5 / 1.5) are part of
// the display contract.
func overallMaturity(dims []DimensionResult) string {
	if len(dims) == 0 {
		return "You're building foundations — the assessment needs more signal to place you against peers."
	}
	total := 0
	for _, d := range dims {
		total += levelRank[d.Level]
	}
	avg := float64(total) / float64(len(dims))

	switch {
	case avg >= 3.5:
		return "You operate in the top 10% of executives we assess — your task is compounding the lead, not catching up."
	case avg >= 2.5:
		return "You sit in the top 25% of executives we assess, with clear momentum across most dimensions."
	case avg >= 1.5:
		return "You're ahead of 50–60% of executives we assess, with specific dimensions ready for focused investment."
	default:
		return "You're building foundations — deliberate first moves now will outpace peers who wait for certainty."
	}
}
