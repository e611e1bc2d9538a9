package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/archwell/leadlens-backend/internal/assess"
	"github.com/archwell/leadlens-backend/internal/email"
	"github.com/archwell/leadlens-backend/internal/insights"
	"github.com/archwell/leadlens-backend/internal/sheets"
	"github.com/archwell/leadlens-backend/internal/store"
)

// Store is the slice of the persistence layer the worker needs. *store.Store
// satisfies it; tests substitute an in-memory stub.
type Store interface {
	GetSessionByID(ctx context.Context, id uuid.UUID) (store.Session, error)
	MarkLeadProcessing(ctx context.Context, id uuid.UUID) (store.Lead, error)
	FinalizeLead(ctx context.Context, p store.FinalizeLeadParams) (store.Lead, error)
	MarkLeadFailed(ctx context.Context, id uuid.UUID, reason string) (store.Lead, error)
	ListPendingLeads(ctx context.Context, stuckAfter time.Duration, limit int) ([]store.Lead, error)
}

// Job holds the dependencies for the lead enrichment pipeline. Each step is a
// separate method so they can be tested independently and so the Run method
// reads top to bottom.
type Job struct {
	store  Store
	orch   *insights.Orchestrator
	mailer email.Sender
	syncer sheets.Syncer
	logger *slog.Logger
}

// NewJob constructs a Job with all required dependencies.
func NewJob(
	st Store,
	orch *insights.Orchestrator,
	mailer email.Sender,
	syncer sheets.Syncer,
	logger *slog.Logger,
) *Job {
	return &Job{
		store:  st,
		orch:   orch,
		mailer: mailer,
		syncer: syncer,
		logger: logger,
	}
}

// Run executes the full enrichment pipeline for a single lead:
//
//  1. Claim the lead (status → processing, attempts+1).
//  2. Load the session for answers and contact details.
//  3. Generate personalized insights. Generation never hard-fails: the
//     orchestrator substitutes the static fallback on any provider error.
//  4. Persist the narrative and insights atomically (status → ready).
//  5. Deliver the report-ready email and notify sales. Both are best effort;
//     the report is already accessible via its token.
//  6. Append a row to the lead-scores tracking sheet, also best effort.
//
// Any error is returned to the Runner, which retries up to MaxRetries times
// before calling MarkLeadFailed.
func (j *Job) Run(ctx context.Context, leadID uuid.UUID) error {
	log := j.logger.With("lead_id", leadID)
	log.Info("job: starting")

	lead, err := j.store.MarkLeadProcessing(ctx, leadID)
	if err != nil {
		return fmt.Errorf("job: claim lead: %w", err)
	}

	session, err := j.store.GetSessionByID(ctx, lead.SessionID)
	if err != nil {
		return fmt.Errorf("job: get session: %w", err)
	}

	answers, err := session.AnswerMap()
	if err != nil {
		return fmt.Errorf("job: decode answers: %w", err)
	}
	if len(answers) == 0 {
		return fmt.Errorf("job: session %s has no answers", session.ID)
	}

	result := j.orch.Request(ctx, insights.Payload{
		Assessment: insights.AssessmentData{
			Variant: assess.Variant(session.Variant),
			Answers: answers,
			Score:   int(lead.Score.Int32),
			Tier:    lead.Tier.String,
		},
		Contact: insights.ContactData{
			Name:    session.Name.String,
			Email:   session.Email.String,
			Company: session.Company.String,
			Role:    session.Role.String,
		},
	})
	if result.Source == insights.SourceFallback {
		log.Warn("job: using fallback insights", "reason", result.FallbackReason)
	}

	insightsJSON, err := json.Marshal(result.Insights)
	if err != nil {
		return fmt.Errorf("job: marshal insights: %w", err)
	}

	final, err := j.store.FinalizeLead(ctx, store.FinalizeLeadParams{
		LeadID:       leadID,
		Narrative:    narrativeFrom(result.Insights),
		InsightsJSON: insightsJSON,
	})
	if err != nil {
		return fmt.Errorf("job: finalize lead: %w", err)
	}

	log.Info("job: lead enriched",
		"score", final.Score.Int32,
		"tier", final.Tier.String,
		"source", result.Source,
	)

	j.deliver(ctx, session, final, log)
	j.syncScoreRow(ctx, session, final, log)
	return nil
}

// deliver sends the report-ready email to the visitor and the lead
// notification to sales. Failures are logged, never returned: the report is
// already persisted and reachable via its access token.
func (j *Job) deliver(ctx context.Context, session store.Session, lead store.Lead, log *slog.Logger) {
	if session.Email.Valid && session.Email.String != "" {
		if _, err := j.mailer.SendReportReady(ctx, email.ReportReadyParams{
			To:          session.Email.String,
			Name:        session.Name.String,
			Tier:        lead.Tier.String,
			AccessToken: lead.AccessToken,
		}); err != nil {
			log.Error("job: report email failed", "to", session.Email.String, "error", err)
		}
	} else {
		log.Warn("job: session has no email address, skipping report delivery")
	}

	// Disqualified visitors get their report but never reach the sales inbox.
	if session.Disqualified {
		return
	}
	if _, err := j.mailer.SendLeadNotification(ctx, email.LeadNotificationParams{
		Name:       session.Name.String,
		Email:      session.Email.String,
		Company:    session.Company.String,
		Role:       session.Role.String,
		Motivation: session.Motivation.String,
		Score:      int(lead.Score.Int32),
		Tier:       lead.Tier.String,
		Variant:    session.Variant,
	}); err != nil {
		log.Error("job: sales notification failed", "error", err)
	}
}

// syncScoreRow appends the finished lead to the lead-scores sheet tab.
func (j *Job) syncScoreRow(ctx context.Context, session store.Session, lead store.Lead, log *slog.Logger) {
	if err := j.syncer.SyncRow(ctx, sheets.RowLeadScores, map[string]any{
		"session_id": session.ID.String(),
		"email":      session.Email.String,
		"variant":    session.Variant,
		"score":      lead.Score.Int32,
		"tier":       lead.Tier.String,
	}); err != nil {
		log.Warn("job: sheet sync failed", "error", err)
	}
}

// narrativeFrom flattens the structured insights into the plain-text summary
// stored on the lead row.
func narrativeFrom(ins insights.Insights) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{ins.GrowthReadiness, ins.LeadershipStage, ins.KeyFocus} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}
