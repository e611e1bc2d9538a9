// Package portfolio implements the partner-side fit scoring for portfolio
// companies. The scorer is a weighted categorical table: eight inputs each
// contribute a signed delta to a base, clamped to [0,100] last. Evaluation is
// pure — the live-preview UI recomputes on every field change and depends on
// identical input producing identical output.
package portfolio

import "sort"

// Item is one assessed portfolio company. All eight scoring fields must be
// non-empty before the item is eligible for submission; the live preview
// scores partial items anyway (missing fields contribute nothing).
type Item struct {
	CompanyName     string `json:"company_name"`
	Sector          string `json:"sector"`
	Stage           string `json:"stage"`
	RevenueBand     string `json:"revenue_band"`
	AIMaturity      string `json:"ai_maturity"`
	DataReadiness   string `json:"data_readiness"`
	SponsorStrength string `json:"sponsor_strength"`
	ValuePressure   string `json:"value_pressure"`
	Urgency         string `json:"urgency"`
}

// Recommendation is the closed bucket set, ordered by engagement priority.
type Recommendation string

const (
	RecommendSprintNow  Recommendation = "advisory_sprint_now"
	RecommendEngage     Recommendation = "engage_this_quarter"
	RecommendPilotFirst Recommendation = "pilot_first"
	RecommendNurture    Recommendation = "nurture"
	RecommendNotReady   Recommendation = "not_ready"
)

// Evaluation is the derived view recomputed on every field change.
type Evaluation struct {
	FitScore       int            `json:"fit_score"`
	Recommendation Recommendation `json:"recommendation"`
	RiskFlags      []string       `json:"risk_flags"`
}

// fitBase is the starting score before any categorical deltas apply.
const fitBase = 50

// fieldWeights maps each scoring field's options to their signed deltas.
// Unrecognised or empty values contribute 0, so a partially filled item
// still previews without error.
var fieldWeights = map[string]map[string]int{
	"sector": {
		"B2B SaaS":   8,
		"Fintech":    6,
		"Healthcare": 4,
		"Industrial": 2,
		"Consumer":   0,
		"Deep tech":  4,
	},
	"stage": {
		"Seed":     -6,
		"Series A": 2,
		"Series B": 6,
		"Growth":   8,
		"Mature":   4,
	},
	"revenue_band": {
		"Pre-revenue": -8,
		"<$1M":        -4,
		"$1M-$10M":    4,
		"$10M-$50M":   8,
		"$50M+":       6,
	},
	"ai_maturity": {
		"None":         -6,
		"Exploring":    0,
		"Piloting":     6,
		"In production": 10,
	},
	"data_readiness": {
		"Fragmented":  -8,
		"Partial":     0,
		"Centralized": 8,
		"Instrumented": 12,
	},
	"sponsor_strength": {
		"No sponsor":       -10,
		"Interested manager": -2,
		"Committed exec":   8,
		"CEO mandate":      12,
	},
	"value_pressure": {
		"Low":      -4,
		"Moderate": 2,
		"High":     6,
		"Critical": 8,
	},
	"urgency": {
		"Exploratory": -4,
		"This year":   2,
		"This quarter": 6,
		"Immediate":   8,
	},
}

// fieldValues returns the item's scoring fields keyed the same way as
// fieldWeights.
func fieldValues(item Item) map[string]string {
	return map[string]string{
		"sector":           item.Sector,
		"stage":            item.Stage,
		"revenue_band":     item.RevenueBand,
		"ai_maturity":      item.AIMaturity,
		"data_readiness":   item.DataReadiness,
		"sponsor_strength": item.SponsorStrength,
		"value_pressure":   item.ValuePressure,
		"urgency":          item.Urgency,
	}
}

// Complete reports whether all eight scoring fields are filled — the
// submission gate.
func Complete(item Item) bool {
	for _, v := range fieldValues(item) {
		if v == "" {
			return false
		}
	}
	return true
}

// Score computes the 0–100 fit score.
func Score(item Item) int {
	score := fitBase
	for field, value := range fieldValues(item) {
		score += fieldWeights[field][value]
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Recommend buckets a score, with urgency able to promote a strong score
// into the immediate bucket.
func Recommend(item Item, score int) Recommendation {
	switch {
	case score >= 75 && (item.Urgency == "Immediate" || item.Urgency == "This quarter"):
		return RecommendSprintNow
	case score >= 75:
		return RecommendEngage
	case score >= 55:
		return RecommendPilotFirst
	case score >= 35:
		return RecommendNurture
	default:
		return RecommendNotReady
	}
}

// RiskFlags emits a flag for each contradictory input combination. Flags are
// sorted so identical inputs produce identical output ordering.
func RiskFlags(item Item) []string {
	var flags []string

	lowSponsor := item.SponsorStrength == "No sponsor" || item.SponsorStrength == "Interested manager"
	highPressure := item.ValuePressure == "High" || item.ValuePressure == "Critical"
	weakData := item.DataReadiness == "Fragmented"
	earlyStage := item.Stage == "Seed" || item.Stage == "Series A"

	if highPressure && lowSponsor {
		flags = append(flags, "High value pressure without a committed sponsor — engagement likely to stall at procurement")
	}
	if item.AIMaturity == "In production" && weakData {
		flags = append(flags, "Production AI claims on fragmented data — audit the deployment before scoping")
	}
	if item.Urgency == "Immediate" && earlyStage {
		flags = append(flags, "Immediate urgency at an early stage — verify budget authority before committing a sprint")
	}
	if item.RevenueBand == "Pre-revenue" && item.ValuePressure == "Critical" {
		flags = append(flags, "Critical pressure with no revenue base — advisory fit is questionable")
	}
	if item.AIMaturity == "None" && item.Urgency == "Immediate" {
		flags = append(flags, "Immediate timeline from a standing start — expectations need resetting")
	}

	sort.Strings(flags)
	return flags
}

// Evaluate is the one-call recompute used by the live preview and the intake
// submission path.
func Evaluate(item Item) Evaluation {
	score := Score(item)
	return Evaluation{
		FitScore:       score,
		Recommendation: Recommend(item, score),
		RiskFlags:      RiskFlags(item),
	}
}
