// Package assess implements the deterministic assessment scoring logic that
// mirrors the client-side quiz scorers. It is intentionally dependency-free:
// it imports nothing from internal/ and can be tested without a database.
package assess

import "fmt"

// Variant identifies which assessment a session belongs to. String values
// match the Postgres enum so they can be stored without conversion.
type Variant string

const (
	VariantBenchmark     Variant = "leadership_benchmark" // 6-question core benchmark, 30-point scale
	VariantLiteracy      Variant = "ai_literacy"          // keyword-bag literacy dimensions, 100-point
	VariantReadiness     Variant = "executive_readiness"  // keyword-bag readiness dimensions, 100-point
	VariantQualification Variant = "lead_qualification"   // sum-based lead qualifier, 100-point tiers
)

// Valid reports whether v names a known assessment variant.
func (v Variant) Valid() bool {
	switch v {
	case VariantBenchmark, VariantLiteracy, VariantReadiness, VariantQualification:
		return true
	}
	return false
}

// TierTable maps a numeric score onto an ordered closed set of tier labels.
// Thresholds are checked descending; the first match wins, and the final
// entry has threshold 0 so every score maps to exactly one tier.
type TierTable struct {
	Variant Variant
	Cutoffs []TierCutoff
}

// TierCutoff is a single threshold → label pair.
type TierCutoff struct {
	Min   int
	Label string
}

// Validate checks that cutoffs are strictly descending and terminate at 0,
// which together guarantee the table is exhaustive. Call once at startup for
// any table not defined in this package.
func (t TierTable) Validate() error {
	if len(t.Cutoffs) == 0 {
		return fmt.Errorf("tier table %s: no cutoffs", t.Variant)
	}
	for i := 1; i < len(t.Cutoffs); i++ {
		if t.Cutoffs[i].Min >= t.Cutoffs[i-1].Min {
			return fmt.Errorf("tier table %s: cutoffs not strictly descending at index %d", t.Variant, i)
		}
	}
	if last := t.Cutoffs[len(t.Cutoffs)-1]; last.Min != 0 {
		return fmt.Errorf("tier table %s: final cutoff must be 0, got %d", t.Variant, last.Min)
	}
	return nil
}

// Tier returns the label for score. Negative scores fall through to the final
// cutoff, so the lookup is total over all integers.
func (t TierTable) Tier(score int) string {
	for _, c := range t.Cutoffs {
		if score >= c.Min {
			return c.Label
		}
	}
	return t.Cutoffs[len(t.Cutoffs)-1].Label
}

// ─── TIER TABLES ─────────────────────────────────────────────────────────────

// Benchmark30 is the 6-question leadership benchmark table (sum scale 6–30).
var Benchmark30 = TierTable{
	Variant: VariantBenchmark,
	Cutoffs: []TierCutoff{
		{Min: 25, Label: "AI-Orchestrator"},
		{Min: 19, Label: "AI-Confident Leader"},
		{Min: 13, Label: "AI-Aware Leader"},
		{Min: 0, Label: "AI-Emerging Leader"},
	},
}

// Readiness100 classifies the 0–100 executive-readiness composites.
var Readiness100 = TierTable{
	Variant: VariantReadiness,
	Cutoffs: []TierCutoff{
		{Min: 80, Label: "Transformation-Ready"},
		{Min: 60, Label: "Scaling"},
		{Min: 40, Label: "Developing"},
		{Min: 0, Label: "Foundational"},
	},
}

// Literacy100 classifies the 0–100 AI-literacy composites.
var Literacy100 = TierTable{
	Variant: VariantLiteracy,
	Cutoffs: []TierCutoff{
		{Min: 80, Label: "Fluent"},
		{Min: 60, Label: "Practitioner"},
		{Min: 40, Label: "Explorer"},
		{Min: 0, Label: "Novice"},
	},
}

// Qualification100 classifies the 0–100 lead-qualification score.
var Qualification100 = TierTable{
	Variant: VariantQualification,
	Cutoffs: []TierCutoff{
		{Min: 80, Label: "Sales-Qualified"},
		{Min: 60, Label: "Marketing-Qualified"},
		{Min: 40, Label: "Nurture"},
		{Min: 0, Label: "Early"},
	},
}

// TableFor returns the tier table for a variant. Unknown variants get the
// benchmark table; the HTTP layer rejects unknown variants before this runs.
func TableFor(v Variant) TierTable {
	switch v {
	case VariantLiteracy:
		return Literacy100
	case VariantReadiness:
		return Readiness100
	case VariantQualification:
		return Qualification100
	default:
		return Benchmark30
	}
}
