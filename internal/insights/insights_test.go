package insights

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type stubGenerator struct {
	insights     Insights
	observations []string
	err          error
	delay        time.Duration
	calls        int
}

func (s *stubGenerator) GenerateInsights(ctx context.Context, p Payload) (Insights, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Insights{}, ctx.Err()
		}
	}
	if s.err != nil {
		return Insights{}, s.err
	}
	return s.insights, nil
}

func (s *stubGenerator) GeneratePortfolioInsights(ctx context.Context, p PortfolioPayload) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.observations, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validInsights() Insights {
	return Insights{
		GrowthReadiness: "Strong appetite for growth.",
		LeadershipStage: "Confident leader.",
		KeyFocus:        "Ship one workflow.",
		RoadmapInitiatives: []Initiative{
			{Title: "Audit", Description: "Map workflows.", Timeframe: "30 days"},
		},
	}
}

func TestFallbackGeneratorPrefersPrimary(t *testing.T) {
	primary := &stubGenerator{insights: validInsights()}
	secondary := &stubGenerator{insights: Insights{GrowthReadiness: "secondary"}}

	gen := NewFallbackGenerator(primary, secondary, discardLogger())
	got, err := gen.GenerateInsights(context.Background(), Payload{})
	if err != nil {
		t.Fatalf("GenerateInsights: %v", err)
	}
	if got.GrowthReadiness != "Strong appetite for growth." {
		t.Errorf("got %q, want primary content", got.GrowthReadiness)
	}
	if secondary.calls != 0 {
		t.Errorf("secondary called %d times, want 0", secondary.calls)
	}
}

func TestFallbackGeneratorUsesSecondaryOnPrimaryFailure(t *testing.T) {
	primary := &stubGenerator{err: errors.New("rate limited")}
	secondary := &stubGenerator{insights: validInsights()}

	gen := NewFallbackGenerator(primary, secondary, discardLogger())
	got, err := gen.GenerateInsights(context.Background(), Payload{})
	if err != nil {
		t.Fatalf("GenerateInsights: %v", err)
	}
	if got.GrowthReadiness == "" {
		t.Error("expected secondary content")
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", primary.calls, secondary.calls)
	}
}

func TestFallbackGeneratorBothFail(t *testing.T) {
	primary := &stubGenerator{err: errors.New("down")}
	secondary := &stubGenerator{err: errors.New("also down")}

	gen := NewFallbackGenerator(primary, secondary, discardLogger())
	if _, err := gen.GenerateInsights(context.Background(), Payload{}); err == nil {
		t.Fatal("expected error when both providers fail")
	}
}

func TestFallbackGeneratorNoProviders(t *testing.T) {
	gen := NewFallbackGenerator(nil, nil, discardLogger())

	if _, err := gen.GenerateInsights(context.Background(), Payload{}); err == nil {
		t.Fatal("expected error with no providers configured")
	}
	if _, err := gen.GeneratePortfolioInsights(context.Background(), PortfolioPayload{}); err == nil {
		t.Fatal("expected error with no providers configured")
	}
}

func TestOrchestratorGeneratedPath(t *testing.T) {
	o := NewOrchestrator(&stubGenerator{insights: validInsights()}, time.Second, discardLogger())

	res := o.Request(context.Background(), Payload{})
	if res.Source != SourceGenerated {
		t.Fatalf("Source = %q, want %q (reason: %s)", res.Source, SourceGenerated, res.FallbackReason)
	}
	if res.FallbackReason != "" {
		t.Errorf("unexpected fallback reason %q", res.FallbackReason)
	}
}

func TestOrchestratorFallbackOnError(t *testing.T) {
	o := NewOrchestrator(&stubGenerator{err: errors.New("provider down")}, time.Second, discardLogger())

	res := o.Request(context.Background(), Payload{Assessment: AssessmentData{Tier: "AI-Confident Leader"}})
	if res.Source != SourceFallback {
		t.Fatalf("Source = %q, want %q", res.Source, SourceFallback)
	}
	if !strings.Contains(res.FallbackReason, "provider down") {
		t.Errorf("FallbackReason = %q, want provider error mentioned", res.FallbackReason)
	}
	if !strings.Contains(res.Insights.LeadershipStage, "AI-Confident Leader") {
		t.Errorf("fallback stage %q should mention the computed tier", res.Insights.LeadershipStage)
	}
	if err := ValidateInsights(res.Insights); err != nil {
		t.Errorf("fallback content must be schema-valid: %v", err)
	}
}

func TestOrchestratorFallbackOnInvalidResponse(t *testing.T) {
	// Missing key_focus and empty roadmap.
	bad := Insights{GrowthReadiness: "x", LeadershipStage: "y"}
	o := NewOrchestrator(&stubGenerator{insights: bad}, time.Second, discardLogger())

	res := o.Request(context.Background(), Payload{})
	if res.Source != SourceFallback {
		t.Fatalf("Source = %q, want fallback for schema-invalid response", res.Source)
	}
	if !strings.Contains(res.FallbackReason, "invalid response") {
		t.Errorf("FallbackReason = %q", res.FallbackReason)
	}
}

func TestOrchestratorFallbackOnTimeout(t *testing.T) {
	o := NewOrchestrator(&stubGenerator{insights: validInsights(), delay: 200 * time.Millisecond}, 10*time.Millisecond, discardLogger())

	res := o.Request(context.Background(), Payload{})
	if res.Source != SourceFallback {
		t.Fatalf("Source = %q, want fallback on timeout", res.Source)
	}
}

func TestOrchestratorNilGenerator(t *testing.T) {
	o := NewOrchestrator(nil, time.Second, discardLogger())
	res := o.Request(context.Background(), Payload{})
	if res.Source != SourceFallback {
		t.Fatalf("Source = %q, want fallback with nil generator", res.Source)
	}
}

func TestOrchestratorPortfolio(t *testing.T) {
	o := NewOrchestrator(&stubGenerator{observations: []string{"prioritise sponsored engagements"}}, time.Second, discardLogger())
	res := o.RequestPortfolio(context.Background(), PortfolioPayload{})
	if res.Source != SourceGenerated {
		t.Fatalf("Source = %q, want generated", res.Source)
	}

	o = NewOrchestrator(&stubGenerator{err: errors.New("down")}, time.Second, discardLogger())
	res = o.RequestPortfolio(context.Background(), PortfolioPayload{})
	if res.Source != SourceFallback {
		t.Fatalf("Source = %q, want fallback", res.Source)
	}
	if len(res.Insights) == 0 {
		t.Error("fallback portfolio insights must be non-empty")
	}
}

func TestValidateInsights(t *testing.T) {
	if err := ValidateInsights(validInsights()); err != nil {
		t.Errorf("valid insights rejected: %v", err)
	}
	if err := ValidateInsights(DefaultInsights("")); err != nil {
		t.Errorf("default insights rejected: %v", err)
	}

	missing := validInsights()
	missing.KeyFocus = ""
	if err := ValidateInsights(missing); err == nil {
		t.Error("empty key_focus should fail validation")
	}

	empty := validInsights()
	empty.RoadmapInitiatives = nil
	if err := ValidateInsights(empty); err == nil {
		t.Error("empty roadmap should fail validation")
	}
}

func TestValidatePortfolioInsights(t *testing.T) {
	if err := ValidatePortfolioInsights([]string{"keep sponsor momentum"}); err != nil {
		t.Errorf("valid observations rejected: %v", err)
	}
	if err := ValidatePortfolioInsights(nil); err == nil {
		t.Error("empty observations should fail validation")
	}
	if err := ValidatePortfolioInsights([]string{"  "}); err == nil {
		t.Error("blank observation should fail validation")
	}
}

func TestStripFences(t *testing.T) {
	raw := "```json\n{\"a\":1}\n```"
	if got := stripFences(raw); got != "{\"a\":1}" {
		t.Errorf("stripFences = %q", got)
	}
	if got := stripFences("{\"a\":1}"); got != "{\"a\":1}" {
		t.Errorf("stripFences without fences = %q", got)
	}
}
