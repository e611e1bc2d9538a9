package insights

import "fmt"

// Deterministic fallback content. The funnel must never show a broken state:
// when generation fails, times out, or returns an invalid document, the
// caller substitutes this schema-valid default and the renderer proceeds as
// if nothing happened.

// DefaultInsights returns the fixed fallback insights block. When a tier
// label is available it is woven into the leadership_stage line so the
// fallback still reflects the deterministic scoring the user just completed.
func DefaultInsights(tier string) Insights {
	stage := "You are building the foundations of AI leadership, with clear room to convert awareness into practice."
	if tier != "" {
		stage = fmt.Sprintf("Your assessment places you at the %s stage of the AI leadership curve.", tier)
	}

	return Insights{
		GrowthReadiness: "Your responses show real appetite for growth alongside untapped leverage. " +
			"Executives at a similar point typically unlock the fastest gains by pairing one visible AI win " +
			"with a deliberate team enablement push.",
		LeadershipStage: stage,
		KeyFocus: "Pick one recurring, high-volume workflow and put AI in the loop this quarter — " +
			"momentum from a concrete win outweighs any amount of planning.",
		RoadmapInitiatives: []Initiative{
			{
				Title:       "Run a focused AI audit",
				Description: "Map your team's three most time-consuming workflows and estimate the AI-assist potential of each.",
				Timeframe:   "30 days",
			},
			{
				Title:       "Ship one AI-assisted workflow",
				Description: "Take the highest-potential workflow from the audit live with a sanctioned tool and a named owner.",
				Timeframe:   "90 days",
			},
			{
				Title:       "Stand up a usage policy",
				Description: "Publish a one-page policy covering approved tools and data-handling rules so adoption scales safely.",
				Timeframe:   "90 days",
			},
			{
				Title:       "Build the enablement habit",
				Description: "Institute a short weekly share-out where the team demos AI use, turning individual experiments into shared capability.",
				Timeframe:   "6 months",
			},
		},
	}
}

// DefaultPortfolioInsights is the fixed fallback for the partner variant.
func DefaultPortfolioInsights() []string {
	return []string{
		"Prioritise engagements where a committed executive sponsor already exists — sponsorship is the strongest single predictor of advisory sprint success.",
		"Companies flagged for data-readiness gaps benefit from a short data-foundations engagement before any AI build work is scoped.",
		"Sequence the portfolio so an early, visible win funds organisational patience for the longer engagements.",
	}
}
