package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// anthropicClient is the concrete Generator backed by the Anthropic Messages
// API.
type anthropicClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewAnthropicClient returns a Generator that calls the Anthropic API.
//   - apiKey: your ANTHROPIC_API_KEY
//   - model:  e.g. "claude-sonnet-4-5"
func NewAnthropicClient(apiKey, model string) Generator {
	return &anthropicClient{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ─── ANTHROPIC API SHAPES ─────────────────────────────────────────────────────

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ─── PROMPTS ─────────────────────────────────────────────────────────────────

const insightsSystemPrompt = `You are an executive advisor specialising in AI adoption for business leaders.
You will receive an executive's assessment results: their answers, numeric score, tier label, and optionally an extended work-style profile.

Produce a JSON object with exactly these fields:
1. growth_readiness: 2-3 sentences on how ready this leader is to grow with AI. Specific to their answers, not generic.
2. leadership_stage: one short sentence naming where they are on the AI leadership curve, consistent with their tier label.
3. key_focus: one sentence naming the single highest-leverage focus area for the next quarter.
4. roadmap_initiatives: an array of 3-4 objects, each {"title": "...", "description": "...", "timeframe": "..."}. Timeframes like "30 days", "90 days", "6 months". Concrete actions, no padding.

Respond ONLY with valid JSON matching that shape, no markdown fences, no preamble.`

const portfolioSystemPrompt = `You are an advisor to investment partners evaluating portfolio companies for AI advisory engagements.
You will receive the partner's intake answers and a list of portfolio companies, each with a deterministic fit score (0-100), a recommendation bucket, and risk flags.

Respond ONLY with valid JSON of the shape {"insights": ["...", "..."]}: an array of 3-5 observations about the portfolio as a whole — sequencing, shared risks, which engagements to run first and why. Reference companies by name. No markdown fences, no preamble.`

// buildInsightsPrompt serialises the payload into a compact prompt string.
func buildInsightsPrompt(p Payload) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Executive: %s, %s at %s\n", p.Contact.Name, p.Contact.Role, p.Contact.Company)
	fmt.Fprintf(&sb, "Assessment: %s, score %d, tier %q\n\n", p.Assessment.Variant, p.Assessment.Score, p.Assessment.Tier)

	sb.WriteString("Answers:\n")
	for id, answer := range p.Assessment.Answers {
		fmt.Fprintf(&sb, "  %s: %s\n", id, answer)
	}

	if p.DeepProfile != nil {
		sb.WriteString("\nExtended profile:\n")
		profileJSON, err := json.Marshal(p.DeepProfile)
		if err == nil {
			sb.Write(profileJSON)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func buildPortfolioPrompt(p PortfolioPayload) string {
	var sb strings.Builder
	sb.WriteString("Partner intake:\n")
	for id, answer := range p.Intake {
		fmt.Fprintf(&sb, "  %s: %s\n", id, answer)
	}
	sb.WriteString("\nPortfolio companies:\n")
	for _, si := range p.Items {
		fmt.Fprintf(&sb, "company: %s\n", si.Item.CompanyName)
		fmt.Fprintf(&sb, "fit_score: %d, recommendation: %s\n", si.Evaluation.FitScore, si.Evaluation.Recommendation)
		for _, flag := range si.Evaluation.RiskFlags {
			fmt.Fprintf(&sb, "risk: %s\n", flag)
		}
		sb.WriteString("---\n")
	}
	return sb.String()
}

// stripFences removes any accidental markdown fences around a model response.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}

// ─── IMPLEMENTATION ───────────────────────────────────────────────────────────

// GenerateInsights calls the Anthropic API and parses the structured
// insights JSON from the first text block.
func (c *anthropicClient) GenerateInsights(ctx context.Context, p Payload) (Insights, error) {
	raw, err := c.call(ctx, anthropicRequest{
		Model:     c.model,
		MaxTokens: 1536,
		System:    insightsSystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: buildInsightsPrompt(p)},
		},
	})
	if err != nil {
		return Insights{}, err
	}

	var parsed Insights
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		return Insights{}, fmt.Errorf("insights: parse response JSON: %w (raw: %.200s)", err, raw)
	}
	return parsed, nil
}

// GeneratePortfolioInsights calls the Anthropic API for the partner variant.
func (c *anthropicClient) GeneratePortfolioInsights(ctx context.Context, p PortfolioPayload) ([]string, error) {
	raw, err := c.call(ctx, anthropicRequest{
		Model:     c.model,
		MaxTokens: 1024,
		System:    portfolioSystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: buildPortfolioPrompt(p)},
		},
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Insights []string `json:"insights"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("insights: parse portfolio response JSON: %w (raw: %.200s)", err, raw)
	}
	return parsed.Insights, nil
}

// call sends one request to the Anthropic Messages API and returns the text
// content of the first content block.
func (c *anthropicClient) call(ctx context.Context, reqBody anthropicRequest) (string, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("insights: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.anthropic.com/v1/messages",
		bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return "", fmt.Errorf("insights: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("insights: http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB cap
	if err != nil {
		return "", fmt.Errorf("insights: read response body: %w", err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", fmt.Errorf("insights: unmarshal response: %w", err)
	}

	if parsed.Error != nil {
		return "", fmt.Errorf("insights: API error %s: %s", parsed.Error.Type, parsed.Error.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("insights: unexpected status %d: %.200s", resp.StatusCode, string(respBytes))
	}

	for _, block := range parsed.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	return "", fmt.Errorf("insights: no text content in response")
}
