package api

import (
	"net/http"

	"github.com/archwell/leadlens-backend/internal/email"
	"github.com/archwell/leadlens-backend/internal/sheets"
)

// ─── POST /api/notify/contact, POST /api/notify/booking ─────────────────────
//
// Both endpoints fire a sales-inbox alert and report the outcome in the body
// rather than the status code: a failed notification must never break the
// visitor's flow, so the response is 200 with success=false and the error
// stays in the logs.

type notifyContactRequest struct {
	Name       string `json:"name" validate:"required,min=2"`
	Email      string `json:"email" validate:"required,email"`
	Company    string `json:"company"`
	Role       string `json:"role"`
	Motivation string `json:"motivation"`
	Score      int    `json:"score"`
	Tier       string `json:"tier"`
	Variant    string `json:"variant"`
}

type notifyResponse struct {
	Success bool   `json:"success"`
	EmailID string `json:"email_id,omitempty"`
}

func (s *Server) handleNotifyContact(w http.ResponseWriter, r *http.Request) {
	var req notifyContactRequest
	if !decode(w, r, &req) {
		return
	}
	if !s.checkValid(w, &req) {
		return
	}

	id, err := s.mailer.SendLeadNotification(r.Context(), email.LeadNotificationParams{
		Name:       req.Name,
		Email:      req.Email,
		Company:    req.Company,
		Role:       req.Role,
		Motivation: req.Motivation,
		Score:      req.Score,
		Tier:       req.Tier,
		Variant:    req.Variant,
	})
	if err != nil {
		s.logger.Error("notify contact: send failed", "error", err)
		respond(w, http.StatusOK, notifyResponse{Success: false})
		return
	}

	respond(w, http.StatusOK, notifyResponse{Success: true, EmailID: id})
}

type notifyBookingRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	Email       string `json:"email" validate:"required,email"`
	Company     string `json:"company"`
	CompanyName string `json:"company_name"`
	Score       int    `json:"score"`
	Tier        string `json:"tier"`
	Notes       string `json:"notes"`
}

func (s *Server) handleNotifyBooking(w http.ResponseWriter, r *http.Request) {
	var req notifyBookingRequest
	if !decode(w, r, &req) {
		return
	}
	if !s.checkValid(w, &req) {
		return
	}

	id, err := s.mailer.SendBookingNotification(r.Context(), email.BookingParams{
		Name:        req.Name,
		Email:       req.Email,
		Company:     req.Company,
		CompanyName: req.CompanyName,
		Score:       req.Score,
		Tier:        req.Tier,
		Notes:       req.Notes,
	})
	if err != nil {
		s.logger.Error("notify booking: send failed", "error", err)
		respond(w, http.StatusOK, notifyResponse{Success: false})
		return
	}

	// Booking requests also land on the booking tab of the tracking sheet.
	// Best effort — a sync failure is logged and forgotten.
	if syncErr := s.syncer.SyncRow(r.Context(), sheets.RowBooking, map[string]any{
		"name":    req.Name,
		"email":   req.Email,
		"company": req.Company,
		"score":   req.Score,
		"tier":    req.Tier,
	}); syncErr != nil {
		s.logger.Warn("notify booking: sheet sync failed", "error", syncErr)
	}

	respond(w, http.StatusOK, notifyResponse{Success: true, EmailID: id})
}
