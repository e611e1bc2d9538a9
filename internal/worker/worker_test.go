package worker_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/archwell/leadlens-backend/internal/email"
	"github.com/archwell/leadlens-backend/internal/insights"
	"github.com/archwell/leadlens-backend/internal/sheets"
	"github.com/archwell/leadlens-backend/internal/store"
	"github.com/archwell/leadlens-backend/internal/worker"
)

// ─── STUBS ────────────────────────────────────────────────────────────────────

type stubStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]store.Session
	leads    map[uuid.UUID]store.Lead
	pending  []store.Lead

	finalized []store.FinalizeLeadParams
	failed    map[uuid.UUID]string

	claimErr    error
	finalizeErr error
}

func (s *stubStore) leadStatus(id uuid.UUID) store.LeadStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leads[id].Status
}

func (s *stubStore) failedReason(id uuid.UUID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.failed[id]
	return r, ok
}

func newStubStore() *stubStore {
	return &stubStore{
		sessions: make(map[uuid.UUID]store.Session),
		leads:    make(map[uuid.UUID]store.Lead),
		failed:   make(map[uuid.UUID]string),
	}
}

func (s *stubStore) GetSessionByID(_ context.Context, id uuid.UUID) (store.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return store.Session{}, sql.ErrNoRows
	}
	return sess, nil
}

func (s *stubStore) MarkLeadProcessing(_ context.Context, id uuid.UUID) (store.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return store.Lead{}, s.claimErr
	}
	l, ok := s.leads[id]
	if !ok {
		return store.Lead{}, sql.ErrNoRows
	}
	l.Status = store.LeadProcessing
	l.Attempts++
	s.leads[id] = l
	return l, nil
}

func (s *stubStore) FinalizeLead(_ context.Context, p store.FinalizeLeadParams) (store.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalizeErr != nil {
		return store.Lead{}, s.finalizeErr
	}
	s.finalized = append(s.finalized, p)
	l := s.leads[p.LeadID]
	l.Status = store.LeadReady
	l.Narrative = sql.NullString{String: p.Narrative, Valid: true}
	l.Insights = pqtype.NullRawMessage{RawMessage: p.InsightsJSON, Valid: len(p.InsightsJSON) > 0}
	s.leads[p.LeadID] = l
	return l, nil
}

func (s *stubStore) MarkLeadFailed(_ context.Context, id uuid.UUID, reason string) (store.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[id] = reason
	l := s.leads[id]
	l.Status = store.LeadError
	s.leads[id] = l
	return l, nil
}

func (s *stubStore) ListPendingLeads(_ context.Context, _ time.Duration, _ int) ([]store.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending, nil
}

type stubGenerator struct {
	insights insights.Insights
	err      error
}

func (g *stubGenerator) GenerateInsights(_ context.Context, _ insights.Payload) (insights.Insights, error) {
	return g.insights, g.err
}

func (g *stubGenerator) GeneratePortfolioInsights(_ context.Context, _ insights.PortfolioPayload) ([]string, error) {
	return nil, g.err
}

type stubMailer struct {
	reports []email.ReportReadyParams
	leads   []email.LeadNotificationParams
	err     error
}

func (m *stubMailer) SendLeadNotification(_ context.Context, p email.LeadNotificationParams) (string, error) {
	m.leads = append(m.leads, p)
	return "em_1", m.err
}

func (m *stubMailer) SendBookingNotification(_ context.Context, _ email.BookingParams) (string, error) {
	return "em_2", m.err
}

func (m *stubMailer) SendReportReady(_ context.Context, p email.ReportReadyParams) (string, error) {
	m.reports = append(m.reports, p)
	return "em_3", m.err
}

type stubSyncer struct {
	rows []sheets.RowType
	err  error
}

func (s *stubSyncer) SyncRow(_ context.Context, rowType sheets.RowType, _ map[string]any) error {
	s.rows = append(s.rows, rowType)
	return s.err
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validInsights() insights.Insights {
	return insights.Insights{
		GrowthReadiness: "High readiness.",
		LeadershipStage: "Orchestrating.",
		KeyFocus:        "Scale one workflow.",
		RoadmapInitiatives: []insights.Initiative{
			{Title: "Audit", Description: "Map workflows.", Timeframe: "30 days"},
		},
	}
}

type jobDeps struct {
	store  *stubStore
	gen    *stubGenerator
	mailer *stubMailer
	syncer *stubSyncer
	job    *worker.Job
}

func newJobDeps() *jobDeps {
	st := newStubStore()
	gen := &stubGenerator{insights: validInsights()}
	ml := &stubMailer{}
	sy := &stubSyncer{}
	orch := insights.NewOrchestrator(gen, time.Second, discardLogger())
	return &jobDeps{
		store:  st,
		gen:    gen,
		mailer: ml,
		syncer: sy,
		job:    worker.NewJob(st, orch, ml, sy, discardLogger()),
	}
}

// seedLead creates a completed session plus its pending lead in the stub store.
func (d *jobDeps) seedLead(disqualified bool) store.Lead {
	answers, _ := json.Marshal(map[string]string{
		"q1": "5 - Strongly Agree",
		"q2": "4 - Agree",
	})
	session := store.Session{
		ID:           uuid.New(),
		AnonToken:    "tok",
		Variant:      "leadership_benchmark",
		Status:       "completed",
		Name:         sql.NullString{String: "Dana Whitfield", Valid: true},
		Email:        sql.NullString{String: "dana@example.com", Valid: true},
		Disqualified: disqualified,
		Answers:      pqtype.NullRawMessage{RawMessage: answers, Valid: true},
	}
	d.store.sessions[session.ID] = session

	lead := store.Lead{
		ID:          uuid.New(),
		SessionID:   session.ID,
		AccessToken: "access_tok",
		Status:      store.LeadPending,
		Score:       sql.NullInt32{Int32: 9, Valid: true},
		Tier:        sql.NullString{String: "AI-Emerging Leader", Valid: true},
	}
	d.store.leads[lead.ID] = lead
	return lead
}

// ─── JOB TESTS ───────────────────────────────────────────────────────────────

func TestJobRun_HappyPath(t *testing.T) {
	deps := newJobDeps()
	lead := deps.seedLead(false)

	if err := deps.job.Run(context.Background(), lead.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	final := deps.store.leads[lead.ID]
	if final.Status != store.LeadReady {
		t.Errorf("status = %q, want ready", final.Status)
	}
	if final.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", final.Attempts)
	}
	if !final.Narrative.Valid || final.Narrative.String == "" {
		t.Error("expected a narrative")
	}

	var stored insights.Insights
	if err := json.Unmarshal(final.Insights.RawMessage, &stored); err != nil {
		t.Fatalf("stored insights do not decode: %v", err)
	}
	if stored.KeyFocus != "Scale one workflow." {
		t.Errorf("stored key focus = %q", stored.KeyFocus)
	}

	if len(deps.mailer.reports) != 1 || deps.mailer.reports[0].AccessToken != "access_tok" {
		t.Errorf("report emails = %+v", deps.mailer.reports)
	}
	if len(deps.mailer.leads) != 1 {
		t.Errorf("sent %d sales notifications, want 1", len(deps.mailer.leads))
	}
	if len(deps.syncer.rows) != 1 || deps.syncer.rows[0] != sheets.RowLeadScores {
		t.Errorf("synced rows = %v, want one lead_scores row", deps.syncer.rows)
	}
}

func TestJobRun_ProviderFailureFallsBack(t *testing.T) {
	deps := newJobDeps()
	deps.gen.err = errors.New("provider down")
	lead := deps.seedLead(false)

	if err := deps.job.Run(context.Background(), lead.ID); err != nil {
		t.Fatalf("Run must not fail on provider error: %v", err)
	}

	final := deps.store.leads[lead.ID]
	if final.Status != store.LeadReady {
		t.Errorf("status = %q, want ready", final.Status)
	}
	var stored insights.Insights
	if err := json.Unmarshal(final.Insights.RawMessage, &stored); err != nil {
		t.Fatalf("stored insights do not decode: %v", err)
	}
	if len(stored.RoadmapInitiatives) == 0 {
		t.Error("fallback insights must carry roadmap initiatives")
	}
}

func TestJobRun_DisqualifiedSkipsSalesNotification(t *testing.T) {
	deps := newJobDeps()
	lead := deps.seedLead(true)

	if err := deps.job.Run(context.Background(), lead.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(deps.mailer.reports) != 1 {
		t.Errorf("report emails = %d, want 1 (visitor still gets their report)", len(deps.mailer.reports))
	}
	if len(deps.mailer.leads) != 0 {
		t.Errorf("sales notifications = %d, want 0 for disqualified lead", len(deps.mailer.leads))
	}
}

func TestJobRun_EmailFailureIsNonFatal(t *testing.T) {
	deps := newJobDeps()
	deps.mailer.err = errors.New("resend down")
	lead := deps.seedLead(false)

	if err := deps.job.Run(context.Background(), lead.ID); err != nil {
		t.Fatalf("Run must not fail on email error: %v", err)
	}
	if deps.store.leads[lead.ID].Status != store.LeadReady {
		t.Error("lead should still be ready")
	}
}

func TestJobRun_FinalizeFailurePropagates(t *testing.T) {
	deps := newJobDeps()
	deps.store.finalizeErr = errors.New("db down")
	lead := deps.seedLead(false)

	if err := deps.job.Run(context.Background(), lead.ID); err == nil {
		t.Fatal("expected an error when persistence fails")
	}
	if len(deps.mailer.reports) != 0 {
		t.Error("no email should be sent when the lead was not persisted")
	}
}

func TestJobRun_UnknownLead(t *testing.T) {
	deps := newJobDeps()
	if err := deps.job.Run(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected an error for an unknown lead")
	}
}

// ─── RUNNER TESTS ────────────────────────────────────────────────────────────

func TestRunner_ProcessesEnqueuedLead(t *testing.T) {
	deps := newJobDeps()
	lead := deps.seedLead(false)

	runner := worker.NewRunner(deps.job, deps.store, worker.RunnerConfig{
		Workers:      1,
		PollInterval: time.Hour, // keep the poller out of this test
		JobTimeout:   time.Second,
		MaxRetries:   1,
	}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runner.Start(ctx)
		close(done)
	}()

	if err := runner.Enqueue(context.Background(), lead.ID); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for deps.store.leadStatus(lead.ID) != store.LeadReady {
		select {
		case <-deadline:
			t.Fatal("lead was not processed in time")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestRunner_PollerRecoversPendingLead(t *testing.T) {
	deps := newJobDeps()
	lead := deps.seedLead(false)
	deps.store.pending = []store.Lead{lead}

	runner := worker.NewRunner(deps.job, deps.store, worker.RunnerConfig{
		Workers:      1,
		PollInterval: time.Hour, // only the startup poll runs
		JobTimeout:   time.Second,
		MaxRetries:   1,
	}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runner.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for deps.store.leadStatus(lead.ID) != store.LeadReady {
		select {
		case <-deadline:
			t.Fatal("poller did not recover the pending lead")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestRunner_ExhaustedRetriesMarkLeadFailed(t *testing.T) {
	deps := newJobDeps()
	deps.store.claimErr = errors.New("db down")
	lead := deps.seedLead(false)

	runner := worker.NewRunner(deps.job, deps.store, worker.RunnerConfig{
		Workers:      1,
		PollInterval: time.Hour,
		JobTimeout:   time.Second,
		MaxRetries:   1, // no backoff sleeps with a single attempt
	}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runner.Start(ctx)
		close(done)
	}()

	if err := runner.Enqueue(context.Background(), lead.ID); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := deps.store.failedReason(lead.ID); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("lead was not marked failed")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestDefaultRunnerConfig(t *testing.T) {
	cfg := worker.DefaultRunnerConfig()
	if cfg.Workers != 3 || cfg.MaxRetries != 3 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.PollInterval != 30*time.Second || cfg.JobTimeout != 5*time.Minute {
		t.Errorf("defaults = %+v", cfg)
	}
}
