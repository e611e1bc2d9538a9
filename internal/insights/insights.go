// Package insights defines the interface for AI-generated narrative insights
// and provides Anthropic- and DeepSeek-backed implementations plus the
// orchestration layer that guarantees the funnel never renders a broken
// state: any provider failure resolves to deterministic fallback content.
package insights

import (
	"context"

	"github.com/archwell/leadlens-backend/internal/assess"
	"github.com/archwell/leadlens-backend/internal/compare"
	"github.com/archwell/leadlens-backend/internal/portfolio"
)

// Initiative is one roadmap entry in the personalized insights.
type Initiative struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Timeframe   string `json:"timeframe"`
}

// Insights is the structured narrative block rendered on the results
// dashboard. Every field is required; RoadmapInitiatives must be non-empty.
type Insights struct {
	GrowthReadiness    string       `json:"growth_readiness"`
	LeadershipStage    string       `json:"leadership_stage"`
	KeyFocus           string       `json:"key_focus"`
	RoadmapInitiatives []Initiative `json:"roadmap_initiatives"`
}

// AssessmentData is the scored quiz state packaged for generation.
type AssessmentData struct {
	Variant assess.Variant    `json:"variant"`
	Answers map[string]string `json:"answers"`
	Score   int               `json:"score"`
	Tier    string            `json:"tier"`
}

// ContactData identifies the lead. Email is included so the model can avoid
// addressing the reader generically, never for delivery — email sending is
// the email package's concern.
type ContactData struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Role    string `json:"role"`
}

// Payload is everything the generation call receives.
type Payload struct {
	Assessment  AssessmentData       `json:"assessment_data"`
	Contact     ContactData          `json:"contact_data"`
	DeepProfile *compare.DeepProfile `json:"deep_profile_data,omitempty"`
}

// PortfolioPayload is the partner-intake variant.
type PortfolioPayload struct {
	Intake map[string]string `json:"intake_data"`
	Items  []ScoredItem      `json:"portfolio_items"`
}

// ScoredItem pairs a portfolio item with its deterministic evaluation so the
// model reasons from the same numbers the partner sees.
type ScoredItem struct {
	Item       portfolio.Item       `json:"item"`
	Evaluation portfolio.Evaluation `json:"evaluation"`
}

// Generator is the interface the orchestrator and worker use for narrative
// generation. Concrete implementations live in anthropic.go and deepseek.go;
// tests inject a stub that returns canned responses.
type Generator interface {
	// GenerateInsights returns the personalized insights block for a scored
	// assessment. Implementations must be safe to call concurrently. A non-nil
	// error means the entire call failed; callers fall back to
	// DefaultInsights.
	GenerateInsights(ctx context.Context, p Payload) (Insights, error)

	// GeneratePortfolioInsights returns advisory observations for a partner's
	// scored portfolio. Same failure semantics.
	GeneratePortfolioInsights(ctx context.Context, p PortfolioPayload) ([]string, error)
}

// Source records whether a Result carries generated or fallback content.
type Source string

const (
	SourceGenerated Source = "generated"
	SourceFallback  Source = "fallback"
)

// Result makes the degraded path explicit: callers branch on Source instead
// of a swallowed error, and tests assert on FallbackReason.
type Result struct {
	Insights       Insights `json:"personalized_insights"`
	Source         Source   `json:"source"`
	FallbackReason string   `json:"fallback_reason,omitempty"`
}

// PortfolioResult is the partner-intake counterpart.
type PortfolioResult struct {
	Insights       []string `json:"insights"`
	Source         Source   `json:"source"`
	FallbackReason string   `json:"fallback_reason,omitempty"`
}
