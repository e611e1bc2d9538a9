package api

import (
	"context"
	"net/http"
	"time"

	"github.com/archwell/leadlens-backend/internal/sheets"
)

// ─── POST /api/sheets/sync ───────────────────────────────────────────────────

type sheetSyncRequest struct {
	Type sheets.RowType `json:"type"`
	Data map[string]any `json:"data"`
}

// handleSheetsSync accepts a row and forwards it to the spreadsheet webhook
// in the background. The caller gets 202 immediately and never sees the
// webhook's outcome — the frontend treats analytics as fire-and-forget.
func (s *Server) handleSheetsSync(w http.ResponseWriter, r *http.Request) {
	var req sheetSyncRequest
	if !decode(w, r, &req) {
		return
	}

	if !req.Type.Valid() {
		respondErr(w, http.StatusBadRequest, "type must be booking, analytics, or lead_scores")
		return
	}

	// Detached context: the forward must outlive this request.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.syncer.SyncRow(ctx, req.Type, req.Data); err != nil {
			s.logger.Warn("sheet sync failed", "type", req.Type, "error", err)
		}
	}()

	respond(w, http.StatusAccepted, map[string]bool{"accepted": true})
}
