package api

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/archwell/leadlens-backend/internal/assess"
	"github.com/archwell/leadlens-backend/internal/store"
)

// ─── POST /api/session ────────────────────────────────────────────────────────

type createSessionRequest struct {
	// Variant selects which assessment this session runs. Defaults to the
	// main leadership benchmark when omitted.
	Variant string `json:"variant"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	AnonToken string `json:"anon_token"`
	Variant   string `json:"variant"`
}

// handleCreateSession creates an anonymous session for a new visitor.
// Called once when the funnel page first loads.
//
// The anon_token is returned to the browser and stored in sessionStorage.
// It is sent as X-Anon-Token on all subsequent session-scoped requests.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decode(w, r, &req) {
		return
	}

	variant := assess.Variant(req.Variant)
	if req.Variant == "" {
		variant = assess.VariantBenchmark
	}
	if !variant.Valid() {
		respondErr(w, http.StatusBadRequest, fmt.Sprintf("unknown variant %q", req.Variant))
		return
	}

	// Generate a cryptographically random token. 32 bytes → 64 hex chars.
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("generate anon token: %w", err))
		return
	}
	anonToken := hex.EncodeToString(tokenBytes)

	session, err := s.store.CreateSession(r.Context(), store.CreateSessionParams{
		AnonToken:   anonToken,
		Variant:     string(variant),
		UTMSource:   r.URL.Query().Get("utm_source"),
		UTMMedium:   r.URL.Query().Get("utm_medium"),
		UTMCampaign: r.URL.Query().Get("utm_campaign"),
		// Hash the real IP for funnel analytics — never store the raw IP.
		IPHash: hashIP(realIP(r)),
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("create session: %w", err))
		return
	}

	respond(w, http.StatusCreated, createSessionResponse{
		SessionID: session.ID.String(),
		AnonToken: anonToken,
		Variant:   session.Variant,
	})
}

// ─── PATCH /api/session/:sessionID/contact ────────────────────────────────────

type updateContactRequest struct {
	Name       string `json:"name" validate:"required,min=2"`
	Email      string `json:"email" validate:"required,email"`
	Company    string `json:"company"`
	Role       string `json:"role" validate:"required"`
	Motivation string `json:"motivation"`
}

type updateContactResponse struct {
	SessionID    string `json:"session_id"`
	Disqualified bool   `json:"disqualified"`
}

// handleUpdateContact persists the contact-capture step. Field validation
// failures return 422 and block the submission. A disqualifying role is NOT
// an error: the session is persisted with disqualified=true and the browser
// redirects to the alternate branch.
func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	var req updateContactRequest
	if !decode(w, r, &req) {
		return
	}
	if !s.checkValid(w, &req) {
		return
	}

	session, err := s.store.UpdateContact(r.Context(), store.UpdateContactParams{
		SessionID:    sessionIDFrom(r.Context()),
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Company:      strings.TrimSpace(req.Company),
		Role:         strings.TrimSpace(req.Role),
		Motivation:   strings.TrimSpace(req.Motivation),
		Disqualified: assess.Disqualified(req.Role),
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("update contact: %w", err))
		return
	}

	respond(w, http.StatusOK, updateContactResponse{
		SessionID:    session.ID.String(),
		Disqualified: session.Disqualified,
	})
}

// ─── PUT /api/session/:sessionID/answers ─────────────────────────────────────

type saveAnswersRequest struct {
	// Answers is the full current answer map, question ID → answer text. The
	// browser sends the whole map on every save, so replays are harmless.
	Answers map[string]string `json:"answers"`
}

type saveAnswersResponse struct {
	Saved int `json:"saved"`
}

func (s *Server) handleSaveAnswers(w http.ResponseWriter, r *http.Request) {
	var req saveAnswersRequest
	if !decode(w, r, &req) {
		return
	}

	if len(req.Answers) == 0 {
		respondErr(w, http.StatusBadRequest, "answers must not be empty")
		return
	}
	if len(req.Answers) > 100 {
		respondErr(w, http.StatusBadRequest, "too many answers in a single request (max 100)")
		return
	}
	for q := range req.Answers {
		if q == "" {
			respondErr(w, http.StatusBadRequest, "answer keys must be non-empty question ids")
			return
		}
	}

	if _, err := s.store.SaveAnswers(r.Context(), sessionIDFrom(r.Context()), req.Answers); err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("save answers: %w", err))
		return
	}

	respond(w, http.StatusOK, saveAnswersResponse{Saved: len(req.Answers)})
}

// ─── POST /api/session/:sessionID/complete ───────────────────────────────────

type completeResponse struct {
	Score       int    `json:"score"`
	Tier        string `json:"tier"`
	AccessToken string `json:"access_token"`
}

// handleCompleteAssessment scores the session's saved answers, finalizes the
// session atomically, creates the lead, and enqueues the background
// enrichment job. A double-submit returns the original result.
func (s *Server) handleCompleteAssessment(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFrom(r.Context())

	session, err := s.store.GetSessionByID(r.Context(), sessionID)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("complete: get session: %w", err))
		return
	}

	answers, err := session.AnswerMap()
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("complete: %w", err))
		return
	}
	if len(answers) == 0 {
		respondErr(w, http.StatusConflict, "no answers saved for this session")
		return
	}

	score, tier := assess.ScoreAndTier(assess.Variant(session.Variant), answers)

	tokenBytes := make([]byte, 24)
	if _, err := rand.Read(tokenBytes); err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("complete: generate access token: %w", err))
		return
	}

	_, lead, err := s.store.FinalizeAssessment(r.Context(), store.FinalizeAssessmentParams{
		SessionID:   sessionID,
		Score:       score,
		Tier:        tier,
		AccessToken: hex.EncodeToString(tokenBytes),
	})
	if errors.Is(err, store.ErrSessionAlreadyCompleted) {
		// Double submit — respond with the surviving lead, do not re-enqueue.
		respond(w, http.StatusOK, completeResponse{
			Score:       int(lead.Score.Int32),
			Tier:        lead.Tier.String,
			AccessToken: lead.AccessToken,
		})
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("complete: finalize: %w", err))
		return
	}

	// Hand off to the background pipeline. Enqueue failure is non-fatal: the
	// poller will pick the pending lead up on its next cycle.
	if err := s.worker.Enqueue(r.Context(), lead.ID); err != nil {
		s.logger.Warn("complete: enqueue failed, poller will recover",
			"lead_id", lead.ID, "error", err)
	}

	respond(w, http.StatusOK, completeResponse{
		Score:       score,
		Tier:        tier,
		AccessToken: lead.AccessToken,
	})
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

// hashIP returns the hex-encoded SHA-256 of the IP string.
func hashIP(ip string) string {
	h := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(h[:])
}

// realIP extracts the client IP, honouring X-Real-IP set by a reverse proxy.
func realIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	// RemoteAddr is "ip:port".
	if idx := strings.LastIndex(r.RemoteAddr, ":"); idx >= 0 {
		return r.RemoteAddr[:idx]
	}
	return r.RemoteAddr
}
