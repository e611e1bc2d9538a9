package insights

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const defaultTimeout = 45 * time.Second

// Orchestrator wraps a Generator with a hard timeout, schema validation and
// the deterministic fallback. Its methods never return an error: generation
// failures are absorbed into a fallback Result and logged, so a handler can
// always render something.
type Orchestrator struct {
	gen     Generator
	timeout time.Duration
	logger  *slog.Logger
}

func NewOrchestrator(gen Generator, timeout time.Duration, logger *slog.Logger) *Orchestrator {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Orchestrator{gen: gen, timeout: timeout, logger: logger}
}

// Request produces insights for an individual assessment. On any failure the
// Result carries Source == SourceFallback and a reason, never an error.
func (o *Orchestrator) Request(ctx context.Context, payload Payload) Result {
	if o.gen == nil {
		return o.fallback(payload, "no generator configured")
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	out, err := o.gen.GenerateInsights(ctx, payload)
	if err != nil {
		return o.fallback(payload, fmt.Sprintf("generation failed: %v", err))
	}
	if err := ValidateInsights(out); err != nil {
		return o.fallback(payload, fmt.Sprintf("invalid response: %v", err))
	}

	return Result{Insights: out, Source: SourceGenerated}
}

// RequestPortfolio produces portfolio-level observations for the partner
// intake. Same contract as Request: fallback on any failure, never an error.
func (o *Orchestrator) RequestPortfolio(ctx context.Context, payload PortfolioPayload) PortfolioResult {
	if o.gen == nil {
		return o.portfolioFallback("no generator configured")
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	out, err := o.gen.GeneratePortfolioInsights(ctx, payload)
	if err != nil {
		return o.portfolioFallback(fmt.Sprintf("generation failed: %v", err))
	}
	if err := ValidatePortfolioInsights(out); err != nil {
		return o.portfolioFallback(fmt.Sprintf("invalid response: %v", err))
	}

	return PortfolioResult{Insights: out, Source: SourceGenerated}
}

func (o *Orchestrator) fallback(payload Payload, reason string) Result {
	if o.logger != nil {
		o.logger.Warn("serving fallback insights", "reason", reason, "variant", payload.Assessment.Variant)
	}
	return Result{
		Insights:       DefaultInsights(payload.Assessment.Tier),
		Source:         SourceFallback,
		FallbackReason: reason,
	}
}

func (o *Orchestrator) portfolioFallback(reason string) PortfolioResult {
	if o.logger != nil {
		o.logger.Warn("serving fallback portfolio insights", "reason", reason)
	}
	return PortfolioResult{
		Insights:       DefaultPortfolioInsights(),
		Source:         SourceFallback,
		FallbackReason: reason,
	}
}
