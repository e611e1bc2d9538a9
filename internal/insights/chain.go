package insights

import (
	"context"
	"fmt"
	"log/slog"
)

// fallbackGenerator wraps two Generator implementations. It calls the primary
// first; if that returns an error it logs the failure and tries the
// secondary. The choice of which provider is primary is made in main.go.
type fallbackGenerator struct {
	primary   Generator
	secondary Generator
	logger    *slog.Logger
}

// NewFallbackGenerator returns a Generator that calls primary and, on
// failure, falls back to secondary. Either argument may be nil — if primary
// is nil it goes straight to secondary; if secondary is nil and primary
// fails, the primary error is returned directly; with both nil every call
// returns an error.
func NewFallbackGenerator(primary, secondary Generator, logger *slog.Logger) Generator {
	return &fallbackGenerator{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

func (f *fallbackGenerator) GenerateInsights(ctx context.Context, p Payload) (Insights, error) {
	if f.primary == nil && f.secondary == nil {
		return Insights{}, fmt.Errorf("insights: no generator configured")
	}
	if f.primary != nil {
		result, err := f.primary.GenerateInsights(ctx, p)
		if err == nil {
			return result, nil
		}
		f.logger.Warn("insights: primary generator failed, trying secondary", "error", err)
		if f.secondary == nil {
			return Insights{}, fmt.Errorf("insights: primary failed and no secondary configured: %w", err)
		}
	}
	return f.secondary.GenerateInsights(ctx, p)
}

func (f *fallbackGenerator) GeneratePortfolioInsights(ctx context.Context, p PortfolioPayload) ([]string, error) {
	if f.primary == nil && f.secondary == nil {
		return nil, fmt.Errorf("insights: no generator configured")
	}
	if f.primary != nil {
		result, err := f.primary.GeneratePortfolioInsights(ctx, p)
		if err == nil {
			return result, nil
		}
		f.logger.Warn("insights: primary generator failed, trying secondary", "error", err)
		if f.secondary == nil {
			return nil, fmt.Errorf("insights: primary failed and no secondary configured: %w", err)
		}
	}
	return f.secondary.GeneratePortfolioInsights(ctx, p)
}
