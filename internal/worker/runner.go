// Package worker contains the background pipeline that enriches a finished
// assessment into a full lead report: insight generation, persistence, email
// delivery, sheet sync. It is intentionally decoupled from the HTTP layer:
// the api package holds a worker.Enqueuer interface and calls Enqueue — it
// never imports the concrete Runner or Job types.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ─── ENQUEUER INTERFACE ───────────────────────────────────────────────────────

// Enqueuer is the narrow interface the api package uses to hand off work when
// an assessment completes. Keeping it here (not in api/) means api/ does not
// need to import worker/.
//
// The concrete implementation is *Runner. In tests, any struct with an Enqueue
// method satisfies the interface.
type Enqueuer interface {
	Enqueue(ctx context.Context, leadID uuid.UUID) error
}

// ─── RUNNER ───────────────────────────────────────────────────────────────────

// RunnerConfig holds tuning parameters for the Runner. All fields have
// sensible defaults if zero-valued; call DefaultRunnerConfig() to get them.
type RunnerConfig struct {
	// Workers is the number of concurrent job goroutines. Default: 3.
	Workers int

	// PollInterval is how often the fallback poller checks ListPendingLeads
	// for jobs that were missed by the in-process channel (e.g. after a crash
	// or restart). Default: 30s.
	PollInterval time.Duration

	// JobTimeout is the per-job context deadline. Default: 5 minutes.
	// Set this longer than your AI provider's p99 latency.
	JobTimeout time.Duration

	// MaxRetries is the number of times a job is retried before the lead is
	// marked as permanently failed. Default: 3.
	MaxRetries int
}

// DefaultRunnerConfig returns safe production defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Workers:      3,
		PollInterval: 30 * time.Second,
		JobTimeout:   5 * time.Minute,
		MaxRetries:   3,
	}
}

// Runner manages a pool of worker goroutines. It accepts jobs via an
// in-process channel (fast path, used for freshly completed assessments) and
// also polls the database periodically to pick up any leads that were
// in-flight when the process last restarted (recovery path).
type Runner struct {
	job    *Job
	store  Store
	cfg    RunnerConfig
	logger *slog.Logger

	queue chan uuid.UUID
	wg    sync.WaitGroup
}

// NewRunner constructs a Runner. Call Start() to begin processing.
func NewRunner(job *Job, st Store, cfg RunnerConfig, logger *slog.Logger) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultRunnerConfig().Workers
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultRunnerConfig().PollInterval
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = DefaultRunnerConfig().JobTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultRunnerConfig().MaxRetries
	}

	return &Runner{
		job:    job,
		store:  st,
		cfg:    cfg,
		logger: logger,
		// Buffer = Workers*2 so Enqueue never blocks under normal load.
		queue: make(chan uuid.UUID, cfg.Workers*2),
	}
}

// Enqueue pushes a leadID onto the in-process channel. It satisfies the
// Enqueuer interface. If the channel is full (very unlikely given the buffer
// sizing) it returns an error rather than blocking the HTTP response.
func (r *Runner) Enqueue(_ context.Context, leadID uuid.UUID) error {
	select {
	case r.queue <- leadID:
		r.logger.Info("worker: enqueued lead", "lead_id", leadID)
		return nil
	default:
		return errors.New("worker: queue is full, lead will be picked up by poller")
	}
}

// Start launches the worker pool and the fallback poller. It blocks until ctx
// is cancelled. Call it in a goroutine from main:
//
//	go runner.Start(ctx)
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("worker: starting", "workers", r.cfg.Workers, "poll_interval", r.cfg.PollInterval)

	for i := 0; i < r.cfg.Workers; i++ {
		r.wg.Add(1)
		go r.work(ctx, i)
	}

	r.wg.Add(1)
	go r.poll(ctx)

	r.wg.Wait()
	r.logger.Info("worker: stopped")
}

// work is the inner loop for each worker goroutine.
func (r *Runner) work(ctx context.Context, id int) {
	defer r.wg.Done()
	log := r.logger.With("worker_id", id)
	log.Info("worker: goroutine started")

	for {
		select {
		case <-ctx.Done():
			log.Info("worker: goroutine stopping")
			return
		case leadID := <-r.queue:
			r.runWithRetry(ctx, leadID, log)
		}
	}
}

// poll queries the database on PollInterval for pending leads that were not
// delivered via the channel (e.g. leads from before a restart, or stuck in
// processing after a crash).
func (r *Runner) poll(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	// Run once immediately on startup to pick up anything from before restart.
	r.pollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pollOnce(ctx)
		}
	}
}

func (r *Runner) pollOnce(ctx context.Context) {
	// A lead stuck in processing for two job timeouts belongs to a dead worker.
	leads, err := r.store.ListPendingLeads(ctx, 2*r.cfg.JobTimeout, r.cfg.Workers*2)
	if err != nil {
		r.logger.Error("worker: poll failed", "error", err)
		return
	}
	for _, l := range leads {
		select {
		case r.queue <- l.ID:
			r.logger.Debug("worker: poller enqueued lead", "lead_id", l.ID)
		default:
			// Queue full — will be picked up next poll cycle.
		}
	}
}

// runWithRetry executes the job up to MaxRetries times. After exhausting
// retries it calls MarkLeadFailed so the lead is not picked up again.
func (r *Runner) runWithRetry(ctx context.Context, leadID uuid.UUID, log *slog.Logger) {
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxRetries; attempt++ {
		jobCtx, cancel := context.WithTimeout(ctx, r.cfg.JobTimeout)
		lastErr = r.job.Run(jobCtx, leadID)
		cancel()

		if lastErr == nil {
			log.Info("worker: job completed", "lead_id", leadID, "attempt", attempt)
			return
		}

		log.Warn("worker: job attempt failed",
			"lead_id", leadID,
			"attempt", attempt,
			"max", r.cfg.MaxRetries,
			"error", lastErr,
		)

		if attempt < r.cfg.MaxRetries {
			// Exponential back-off: 2s, 4s, 8s …
			backoff := time.Duration(1<<attempt) * time.Second
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
		}
	}

	log.Error("worker: job permanently failed", "lead_id", leadID, "error", lastErr)
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if _, err := r.store.MarkLeadFailed(failCtx, leadID, lastErr.Error()); err != nil {
		log.Error("worker: failed to mark lead as failed", "lead_id", leadID, "error", err)
	}
}
