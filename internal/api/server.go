// Package api implements the HTTP layer for the LeadLens funnel backend.
// Handlers are methods on *Server. Each handler file is responsible for one
// resource group and only imports the dependencies it actually uses.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/archwell/leadlens-backend/internal/email"
	"github.com/archwell/leadlens-backend/internal/insights"
	"github.com/archwell/leadlens-backend/internal/sheets"
	"github.com/archwell/leadlens-backend/internal/store"
	"github.com/archwell/leadlens-backend/internal/wizard"
	"github.com/archwell/leadlens-backend/internal/worker"
)

// Store is the narrow view of the persistence layer the handlers need.
// *store.Store satisfies it; tests inject a stub.
type Store interface {
	CreateSession(ctx context.Context, p store.CreateSessionParams) (store.Session, error)
	GetSessionByID(ctx context.Context, id uuid.UUID) (store.Session, error)
	GetSessionByAnonToken(ctx context.Context, token string) (store.Session, error)
	UpdateContact(ctx context.Context, p store.UpdateContactParams) (store.Session, error)
	SaveAnswers(ctx context.Context, sessionID uuid.UUID, answers map[string]string) (store.Session, error)
	FinalizeAssessment(ctx context.Context, p store.FinalizeAssessmentParams) (store.Session, store.Lead, error)
	GetLeadByAccessToken(ctx context.Context, token string) (store.Lead, error)
	CreatePlan(ctx context.Context, intakeJSON, portfolioJSON []byte) (store.Plan, error)
	GetPlanBySlug(ctx context.Context, slug string) (store.Plan, error)
	AttachShareSlug(ctx context.Context, planID uuid.UUID, slug string) (store.Plan, error)
}

// Config holds values read from environment variables at startup.
type Config struct {
	// BaseURL is used to construct report and share links.
	// e.g. "https://app.archwell.ai"
	BaseURL string

	// FrontendOrigin is the only origin admitted by CORS in production,
	// e.g. "https://www.archwell.co".
	FrontendOrigin string

	// Env is "production", "staging", or "development".
	Env string
}

// Server holds all shared dependencies. Each handler file attaches methods to
// this type and uses only the fields it needs.
type Server struct {
	store Store

	// flows holds the server-side wizard machines, one per (session, flow).
	flows *wizard.Registry

	// insights wraps the LLM generator chain with timeout + fallback.
	insights *insights.Orchestrator

	// worker enqueues lead-enrichment jobs after assessment completion.
	worker worker.Enqueuer

	// mailer sends the lead and booking notification emails.
	mailer email.Sender

	// syncer pushes rows to the spreadsheet webhook.
	syncer sheets.Syncer

	validate *validator.Validate
	cfg      Config
	logger   *slog.Logger
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to http.ListenAndServe.
func NewServer(
	st Store,
	flows *wizard.Registry,
	orch *insights.Orchestrator,
	enqueuer worker.Enqueuer,
	mailer email.Sender,
	syncer sheets.Syncer,
	cfg Config,
	logger *slog.Logger,
) http.Handler {
	s := &Server{
		store:    st,
		flows:    flows,
		insights: orch,
		worker:   enqueuer,
		mailer:   mailer,
		syncer:   syncer,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		cfg:      cfg,
		logger:   logger,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(middleware.Timeout(60 * time.Second))

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// ── API v1 ────────────────────────────────────────────────────────────────
	r.Route("/api", func(r chi.Router) {

		// Sessions — no auth required (anonymous creation).
		r.Post("/session", s.handleCreateSession)

		// Session-scoped routes — require a valid X-Anon-Token header.
		r.Route("/session/{sessionID}", func(r chi.Router) {
			r.Use(s.requireAnonToken)
			r.Patch("/contact", s.handleUpdateContact)
			r.Put("/answers", s.handleSaveAnswers)
			r.Post("/complete", s.handleCompleteAssessment)
			r.Post("/flow/{flow}/event", s.handleFlowEvent)
		})

		// Synchronous enrichment — no session required, the browser sends the
		// full payload.
		r.Post("/insights", s.handleInsights)
		r.Post("/portfolio/insights", s.handlePortfolioInsights)

		// Notifications and sheet sync.
		r.Post("/notify/contact", s.handleNotifyContact)
		r.Post("/notify/booking", s.handleNotifyBooking)
		r.Post("/sheets/sync", s.handleSheetsSync)

		// Partner plan share links.
		r.Post("/share-links", s.handleCreateShareLink)
		r.Get("/share/{slug}", s.handleGetShare)

		// Lead report access — no auth (opaque access token in URL).
		r.Get("/report/{accessToken}", s.handleGetReport)
	})

	return r
}
