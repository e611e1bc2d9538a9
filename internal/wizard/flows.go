package wizard

// Flow definitions for the funnel. IDs match the question IDs the scoring
// engine and comparison deriver key on, so a machine snapshot can be handed
// to assess/compare without remapping.

// likertOptions are the five agreement answers used across benchmark steps.
// The leading digit feeds the sum scorer.
var likertOptions = []string{
	"1 - Strongly Disagree",
	"2 - Disagree",
	"3 - Neutral",
	"4 - Agree",
	"5 - Strongly Agree",
}

// Assessment is the 6-question leadership benchmark. Every step auto-advances
// after a selection so the visitor sees their choice highlighted briefly
// before the next question appears.
func Assessment() Flow {
	steps := make([]Step, 0, 6)
	for _, id := range []string{"q1", "q2", "q3", "q4", "q5", "q6"} {
		steps = append(steps, Step{
			ID:          id,
			Kind:        KindSingle,
			Options:     likertOptions,
			AutoAdvance: true,
		})
	}
	return Flow{Name: "assessment", Steps: steps}
}

// ContactCapture sits between the quiz and the results view. Name, email and
// company are plain form fields validated by the API layer at submission;
// the wizard only drives the paced qualification steps.
func ContactCapture() Flow {
	return Flow{
		Name: "contact",
		Steps: []Step{
			{ID: "role", Kind: KindSingle, Options: []string{
				"Founder / CEO",
				"C-Suite Executive",
				"VP / Director",
				"Manager",
				"Other",
			}, AutoAdvance: true},
			{ID: "company_size", Kind: KindSingle, Options: []string{
				"1-10", "11-50", "51-200", "201-1000", "1000+",
			}, AutoAdvance: true},
			{ID: "motivation", Kind: KindText},
		},
	}
}

// DeepProfile is the optional 10-question extended questionnaire.
func DeepProfile() Flow {
	return Flow{
		Name: "deep_profile",
		Steps: []Step{
			{ID: "decision_style", Kind: KindSingle, Options: []string{
				"Data-driven", "Intuition-led", "Consensus-seeking", "Delegative",
			}, AutoAdvance: true},
			{ID: "team_size", Kind: KindSingle, Options: []string{
				"Solo", "2-5", "6-20", "21-100", "100+",
			}, AutoAdvance: true},
			{ID: "ai_usage_frequency", Kind: KindSingle, Options: []string{
				"Daily", "Weekly", "Monthly", "Rarely", "Never",
			}, AutoAdvance: true},
			{ID: "priorities", Kind: KindMultiExact, Required: 3, Options: []string{
				"Revenue growth",
				"Cost reduction",
				"Team capability",
				"Product innovation",
				"Customer experience",
				"Operational efficiency",
				"Competitive positioning",
			}},
			{ID: "tools", Kind: KindMulti, Options: []string{
				"ChatGPT", "Claude", "Copilot", "Gemini", "Internal tools", "None yet",
			}},
			{ID: "time_allocation", Kind: KindAllocation, Categories: []string{
				"strategy", "operations", "people", "sales", "admin",
			}},
			{ID: "blockers", Kind: KindMulti, Options: []string{
				"Budget", "Skills gap", "Data quality", "Security concerns", "Leadership buy-in", "Time",
			}},
			{ID: "horizon", Kind: KindSingle, Options: []string{
				"This quarter", "This year", "Next 2-3 years", "No timeline",
			}, AutoAdvance: true},
			{ID: "biggest_challenge", Kind: KindText},
			{ID: "success_definition", Kind: KindText},
		},
	}
}

// PartnerIntake is the partner-facing flow: firm details, pipeline sizing,
// and the portfolio-company scoring worksheet entry point.
func PartnerIntake() Flow {
	return Flow{
		Name: "partner_intake",
		Steps: []Step{
			{ID: "firm_type", Kind: KindSingle, Options: []string{
				"Venture capital", "Private equity", "Family office", "Accelerator", "Advisory firm",
			}, AutoAdvance: true},
			{ID: "portfolio_size", Kind: KindSingle, Options: []string{
				"1-5", "6-15", "16-40", "40+",
			}, AutoAdvance: true},
			{ID: "focus_sectors", Kind: KindMulti, Options: []string{
				"B2B SaaS", "Fintech", "Healthcare", "Industrial", "Consumer", "Deep tech",
			}},
			{ID: "engagement_goals", Kind: KindText},
		},
	}
}

// Flows returns the flow definition by name, or false for unknown names.
func Flows(name string) (Flow, bool) {
	switch name {
	case "assessment":
		return Assessment(), true
	case "contact":
		return ContactCapture(), true
	case "deep_profile":
		return DeepProfile(), true
	case "partner_intake":
		return PartnerIntake(), true
	default:
		return Flow{}, false
	}
}
