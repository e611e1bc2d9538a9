package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/archwell/leadlens-backend/internal/wizard"
)

// ─── POST /api/session/:sessionID/flow/:flow/event ───────────────────────────
//
// The wizard machines live server-side, one per (session, flow), inside the
// registry. The browser sends one event per interaction and renders whatever
// state comes back; it never computes transitions itself.

type flowEventRequest struct {
	// Event is one of: select, toggle, text, allocate, next, back.
	Event    string `json:"event"`
	Value    string `json:"value,omitempty"`
	Category string `json:"category,omitempty"`
	Amount   int    `json:"amount,omitempty"`
}

type flowEventResponse struct {
	Flow       string         `json:"flow"`
	Step       int            `json:"step"`
	StepID     string         `json:"step_id"`
	TotalSteps int            `json:"total_steps"`
	Valid      bool           `json:"valid"`
	Completed  bool           `json:"completed"`
	Advanced   bool           `json:"advanced"`
	Allocation map[string]int `json:"allocation,omitempty"`
}

func (s *Server) handleFlowEvent(w http.ResponseWriter, r *http.Request) {
	flowName := chi.URLParam(r, "flow")
	flow, ok := wizard.Flows(flowName)
	if !ok {
		respondErr(w, http.StatusNotFound, fmt.Sprintf("unknown flow %q", flowName))
		return
	}

	var req flowEventRequest
	if !decode(w, r, &req) {
		return
	}

	m, err := s.flows.GetOrCreate(sessionIDFrom(r.Context()).String(), flowName)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("flow event: %w", err))
		return
	}

	advanced := false
	switch req.Event {
	case "select":
		err = m.Select(req.Value)
	case "toggle":
		err = m.Toggle(req.Value)
	case "text":
		err = m.SetText(req.Value)
	case "allocate":
		err = m.Allocate(req.Category, req.Amount)
	case "next":
		advanced = m.Next()
	case "back":
		m.Back()
	default:
		respondErr(w, http.StatusBadRequest, fmt.Sprintf("unknown event %q", req.Event))
		return
	}
	if err != nil {
		respondErr(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	step := m.Step()
	resp := flowEventResponse{
		Flow:       flowName,
		Step:       step,
		StepID:     flow.Steps[step-1].ID,
		TotalSteps: len(flow.Steps),
		Valid:      m.Valid(),
		Completed:  m.Completed(),
		Advanced:   advanced,
	}

	// Surface the rebalanced allocation so the sliders can re-render.
	if flow.Steps[step-1].Kind == wizard.KindAllocation {
		resp.Allocation = m.Snapshot().Allocation
	}

	respond(w, http.StatusOK, resp)
}
