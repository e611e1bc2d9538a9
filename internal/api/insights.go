package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/archwell/leadlens-backend/internal/assess"
	"github.com/archwell/leadlens-backend/internal/compare"
	"github.com/archwell/leadlens-backend/internal/insights"
	"github.com/archwell/leadlens-backend/internal/portfolio"
)

// ─── POST /api/insights ──────────────────────────────────────────────────────
//
// Synchronous enrichment for the results dashboard. The browser sends the
// full scored state; the server re-derives score and tier (the client's
// numbers are previews, never trusted) and asks the orchestrator for the
// narrative. The response always carries renderable insights — the
// orchestrator substitutes deterministic fallback content on any failure.

type insightsRequest struct {
	Assessment  insights.AssessmentData `json:"assessment_data"`
	Contact     insights.ContactData    `json:"contact_data"`
	DeepProfile *compare.DeepProfile    `json:"deep_profile_data,omitempty"`
}

type insightsResponse struct {
	Insights       insights.Insights  `json:"personalized_insights"`
	Comparison     compare.Comparison `json:"comparison"`
	Source         insights.Source    `json:"source"`
	FallbackReason string             `json:"fallback_reason,omitempty"`
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	var req insightsRequest
	if !decode(w, r, &req) {
		return
	}

	variant := req.Assessment.Variant
	if !variant.Valid() {
		variant = assess.VariantBenchmark
	}

	// Recompute server-side; the client-sent score is display-only.
	score, tier := assess.ScoreAndTier(variant, req.Assessment.Answers)
	req.Assessment.Variant = variant
	req.Assessment.Score = score
	req.Assessment.Tier = tier

	result := s.insights.Request(r.Context(), insights.Payload{
		Assessment:  req.Assessment,
		Contact:     req.Contact,
		DeepProfile: req.DeepProfile,
	})

	respond(w, http.StatusOK, insightsResponse{
		Insights:       result.Insights,
		Comparison:     compare.Derive(req.Assessment.Answers, req.DeepProfile),
		Source:         result.Source,
		FallbackReason: result.FallbackReason,
	})
}

// ─── POST /api/portfolio/insights ────────────────────────────────────────────

type portfolioInsightsRequest struct {
	Intake map[string]string `json:"intake_data"`
	Items  []portfolio.Item  `json:"portfolio_items"`
}

type portfolioItemResponse struct {
	CompanyName string               `json:"company_name"`
	Evaluation  portfolio.Evaluation `json:"evaluation"`
}

type portfolioInsightsResponse struct {
	PlanID         string                  `json:"plan_id"`
	Items          []portfolioItemResponse `json:"items"`
	Insights       []string                `json:"insights"`
	Source         insights.Source         `json:"source"`
	FallbackReason string                  `json:"fallback_reason,omitempty"`
}

// handlePortfolioInsights scores the partner's portfolio deterministically,
// then asks the orchestrator for advisory observations over the scored set.
func (s *Server) handlePortfolioInsights(w http.ResponseWriter, r *http.Request) {
	var req portfolioInsightsRequest
	if !decode(w, r, &req) {
		return
	}

	if len(req.Items) == 0 {
		respondErr(w, http.StatusBadRequest, "portfolio_items must not be empty")
		return
	}

	scored := make([]insights.ScoredItem, len(req.Items))
	items := make([]portfolioItemResponse, len(req.Items))
	for i, item := range req.Items {
		eval := portfolio.Evaluate(item)
		scored[i] = insights.ScoredItem{Item: item, Evaluation: eval}
		items[i] = portfolioItemResponse{CompanyName: item.CompanyName, Evaluation: eval}
	}

	result := s.insights.RequestPortfolio(r.Context(), insights.PortfolioPayload{
		Intake: req.Intake,
		Items:  scored,
	})

	// Persist the plan snapshot so it can be shared later. The portfolio
	// column stores the scored items together with the generated insights.
	intakeJSON, err := json.Marshal(req.Intake)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("portfolio insights: marshal intake: %w", err))
		return
	}
	portfolioJSON, err := json.Marshal(map[string]any{
		"items":    items,
		"insights": result.Insights,
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("portfolio insights: marshal portfolio: %w", err))
		return
	}

	plan, err := s.store.CreatePlan(r.Context(), intakeJSON, portfolioJSON)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("portfolio insights: create plan: %w", err))
		return
	}

	respond(w, http.StatusOK, portfolioInsightsResponse{
		PlanID:         plan.ID.String(),
		Items:          items,
		Insights:       result.Insights,
		Source:         result.Source,
		FallbackReason: result.FallbackReason,
	})
}
