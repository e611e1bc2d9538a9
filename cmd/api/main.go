package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/archwell/leadlens-backend/internal/api"
	"github.com/archwell/leadlens-backend/internal/config"
	"github.com/archwell/leadlens-backend/internal/email"
	"github.com/archwell/leadlens-backend/internal/insights"
	"github.com/archwell/leadlens-backend/internal/sheets"
	"github.com/archwell/leadlens-backend/internal/store"
	"github.com/archwell/leadlens-backend/internal/wizard"
	"github.com/archwell/leadlens-backend/internal/worker"
)

func main() {
	// ── Logger ────────────────────────────────────────────────────────────────
	// JSON in production, pretty text in development.
	var logger *slog.Logger
	if os.Getenv("ENV") == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// ── Config ────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port)

	// ── Database ──────────────────────────────────────────────────────────────
	openCtx, cancelOpen := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := store.Open(openCtx, cfg.DatabaseURL)
	cancelOpen()
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	logger.Info("database connected")

	st := store.New(pool)

	// ── Insights ──────────────────────────────────────────────────────────────
	// Anthropic is primary. DeepSeek becomes the fallback when DEEPSEEK_API_KEY
	// is also set. In production, set both keys for maximum resilience.
	var gen insights.Generator
	switch {
	case cfg.AnthropicAPIKey != "" && cfg.DeepSeekAPIKey != "":
		primary := insights.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		secondary := insights.NewDeepSeekClient(cfg.DeepSeekAPIKey, cfg.DeepSeekModel)
		gen = insights.NewFallbackGenerator(primary, secondary, logger)
		logger.Info("insights: using Anthropic with DeepSeek fallback")
	case cfg.AnthropicAPIKey != "":
		gen = insights.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		logger.Info("insights: using Anthropic only")
	default:
		gen = insights.NewDeepSeekClient(cfg.DeepSeekAPIKey, cfg.DeepSeekModel)
		logger.Info("insights: using DeepSeek only")
	}
	orch := insights.NewOrchestrator(gen, cfg.InsightsTimeout, logger)

	// ── Email (Resend) ────────────────────────────────────────────────────────
	mailer := email.NewResendClient(
		cfg.ResendAPIKey,
		cfg.EmailFromAddr,
		cfg.EmailFromName,
		cfg.SalesNotifyAddr,
		cfg.BaseURL,
	)

	// ── Sheets ────────────────────────────────────────────────────────────────
	var syncer sheets.Syncer
	if cfg.SheetsSyncURL != "" {
		syncer = sheets.NewWebhookClient(cfg.SheetsSyncURL)
	} else {
		syncer = sheets.Disabled()
		logger.Info("sheets: no webhook URL configured, sync disabled")
	}

	// ── Wizard machines ───────────────────────────────────────────────────────
	flows := wizard.NewRegistry(wizard.DefaultIdleTTL)
	defer flows.Close()

	// ── Worker ────────────────────────────────────────────────────────────────
	job := worker.NewJob(st, orch, mailer, syncer, logger)
	runner := worker.NewRunner(job, st, worker.RunnerConfig{
		Workers:      cfg.WorkerCount,
		PollInterval: cfg.PollInterval,
		JobTimeout:   cfg.JobTimeout,
		MaxRetries:   cfg.MaxRetries,
	}, logger)

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.NewServer(
		st,
		flows,
		orch,
		runner, // *Runner satisfies worker.Enqueuer
		mailer,
		syncer,
		api.Config{
			BaseURL:        cfg.BaseURL,
			FrontendOrigin: cfg.FrontendOrigin,
			Env:            cfg.Env,
		},
		logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // generous — insight endpoints wait on the provider
		IdleTimeout:  120 * time.Second,
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	// Root context cancelled by OS signal. Worker and HTTP server both respect it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the worker pool in a background goroutine. It blocks until ctx is done.
	go runner.Start(ctx)

	// Start the HTTP server in a background goroutine.
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until either a signal arrives or the server dies unexpectedly.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	// Give in-flight HTTP requests up to 20 seconds to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// The worker goroutine exits when ctx is cancelled (already done).
	// runner.Start blocks until all worker goroutines finish — nothing extra needed.
	logger.Info("shutdown complete")
	return nil
}
