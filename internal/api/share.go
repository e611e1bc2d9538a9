package api

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/archwell/leadlens-backend/internal/store"
)

// ─── POST /api/share-links ───────────────────────────────────────────────────

type createShareLinkRequest struct {
	PlanID string `json:"plan_id" validate:"required,uuid4"`
}

type createShareLinkResponse struct {
	ShareSlug string `json:"share_slug"`
	ShareURL  string `json:"share_url"`
}

// handleCreateShareLink mints a share slug for a partner plan. Idempotent: a
// repeat call returns the slug minted first, never a replacement.
func (s *Server) handleCreateShareLink(w http.ResponseWriter, r *http.Request) {
	var req createShareLinkRequest
	if !decode(w, r, &req) {
		return
	}
	if !s.checkValid(w, &req) {
		return
	}

	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		respondErr(w, http.StatusBadRequest, "invalid plan_id")
		return
	}

	slugBytes := make([]byte, 9)
	if _, err := rand.Read(slugBytes); err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("share link: generate slug: %w", err))
		return
	}
	slug := base64.RawURLEncoding.EncodeToString(slugBytes)

	plan, err := s.store.AttachShareSlug(r.Context(), planID, slug)
	switch {
	case errors.Is(err, store.ErrShareSlugAlreadySet):
		// Return the surviving slug.
	case errors.Is(err, sql.ErrNoRows):
		respondErr(w, http.StatusNotFound, "plan not found")
		return
	case err != nil:
		s.respondInternalErr(w, r, fmt.Errorf("share link: %w", err))
		return
	}

	respond(w, http.StatusCreated, createShareLinkResponse{
		ShareSlug: plan.ShareSlug.String,
		ShareURL:  fmt.Sprintf("%s/share/%s", s.cfg.BaseURL, plan.ShareSlug.String),
	})
}

// ─── GET /api/share/:slug ────────────────────────────────────────────────────

type shareResponse struct {
	Intake    json.RawMessage `json:"intake"`
	Portfolio json.RawMessage `json:"portfolio"`
}

// handleGetShare serves the public read-only plan view. No auth — the slug
// is the capability.
func (s *Server) handleGetShare(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	plan, err := s.store.GetPlanBySlug(r.Context(), slug)
	if errors.Is(err, sql.ErrNoRows) {
		respondErr(w, http.StatusNotFound, "share link not found")
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("get share: %w", err))
		return
	}

	resp := shareResponse{}
	if plan.Intake.Valid {
		resp.Intake = plan.Intake.RawMessage
	}
	if plan.Portfolio.Valid {
		resp.Portfolio = plan.Portfolio.RawMessage
	}
	respond(w, http.StatusOK, resp)
}

// ─── GET /api/report/:accessToken ────────────────────────────────────────────

type reportResponse struct {
	Status    string          `json:"status"`
	Score     int             `json:"score"`
	Tier      string          `json:"tier"`
	Narrative string          `json:"narrative,omitempty"`
	Insights  json.RawMessage `json:"insights,omitempty"`
}

// handleGetReport serves the lead's scored report. The access token is an
// opaque random string minted at completion — no session authentication is
// needed; the lead receives the link in their email.
//
// Returns 404 for an unknown token. Returns 202 Accepted while the lead is
// still being enriched so the frontend can poll.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	accessToken := chi.URLParam(r, "accessToken")
	if accessToken == "" {
		respondErr(w, http.StatusBadRequest, "missing access token")
		return
	}

	lead, err := s.store.GetLeadByAccessToken(r.Context(), accessToken)
	if errors.Is(err, sql.ErrNoRows) {
		respondErr(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("get report: %w", err))
		return
	}

	switch lead.Status {
	case store.LeadReady:
		resp := reportResponse{
			Status:    string(lead.Status),
			Score:     int(lead.Score.Int32),
			Tier:      lead.Tier.String,
			Narrative: lead.Narrative.String,
		}
		if lead.Insights.Valid {
			resp.Insights = lead.Insights.RawMessage
		}
		respond(w, http.StatusOK, resp)
	case store.LeadError:
		// The deterministic core is still valid even when enrichment failed
		// permanently. Serve score and tier without the narrative.
		respond(w, http.StatusOK, reportResponse{
			Status: string(lead.Status),
			Score:  int(lead.Score.Int32),
			Tier:   lead.Tier.String,
		})
	default:
		respond(w, http.StatusAccepted, map[string]string{
			"status":  string(lead.Status),
			"message": "report is being prepared, please check back shortly",
		})
	}
}
