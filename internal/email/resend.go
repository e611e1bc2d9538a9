package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"
)

// resendClient is the concrete Sender backed by the Resend API.
type resendClient struct {
	apiKey     string
	fromAddr   string // e.g. "funnels@archwell.ai"
	fromName   string // e.g. "Archwell Advisory"
	salesAddr  string // internal inbox for lead and booking alerts
	baseURL    string // report access URL base, e.g. "https://app.archwell.ai"
	httpClient *http.Client
}

// NewResendClient returns a Sender that delivers email via Resend.
func NewResendClient(apiKey, fromAddr, fromName, salesAddr, baseURL string) Sender {
	return &resendClient{
		apiKey:    apiKey,
		fromAddr:  fromAddr,
		fromName:  fromName,
		salesAddr: salesAddr,
		baseURL:   baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ─── RESEND API SHAPES ────────────────────────────────────────────────────────

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Name       string `json:"name"`
		Message    string `json:"message"`
		StatusCode int    `json:"statusCode"`
	} `json:"error"`
}

// ─── SENDER IMPLEMENTATION ────────────────────────────────────────────────────

// SendLeadNotification sends the internal new-lead alert to the sales inbox.
func (c *resendClient) SendLeadNotification(ctx context.Context, p LeadNotificationParams) (string, error) {
	subject := fmt.Sprintf("New lead: %s", p.Name)
	if p.Company != "" {
		subject = fmt.Sprintf("New lead: %s (%s)", p.Name, p.Company)
	}

	return c.send(ctx, resendRequest{
		From:    c.from(),
		To:      []string{c.salesAddr},
		ReplyTo: p.Email,
		Subject: subject,
		HTML:    leadNotificationHTML(p),
	})
}

// SendBookingNotification sends the advisory-sprint booking alert.
func (c *resendClient) SendBookingNotification(ctx context.Context, p BookingParams) (string, error) {
	subject := fmt.Sprintf("Advisory sprint request: %s", p.Name)
	if p.CompanyName != "" {
		subject = fmt.Sprintf("Advisory sprint request: %s — %s", p.Name, p.CompanyName)
	}

	return c.send(ctx, resendRequest{
		From:    c.from(),
		To:      []string{c.salesAddr},
		ReplyTo: p.Email,
		Subject: subject,
		HTML:    bookingHTML(p),
	})
}

// SendReportReady sends the lead their permanent report link.
func (c *resendClient) SendReportReady(ctx context.Context, p ReportReadyParams) (string, error) {
	subject := "Your AI Leadership Report is Ready"
	if p.Tier != "" {
		subject = fmt.Sprintf("Your AI Leadership Report is Ready — %s", p.Tier)
	}

	reportURL := fmt.Sprintf("%s/report/%s", c.baseURL, p.AccessToken)

	return c.send(ctx, resendRequest{
		From:    c.from(),
		To:      []string{p.To},
		Subject: subject,
		HTML:    reportReadyHTML(p.Name, p.Tier, reportURL),
	})
}

// ─── HTTP SEND ────────────────────────────────────────────────────────────────

func (c *resendClient) from() string {
	return fmt.Sprintf("%s <%s>", c.fromName, c.fromAddr)
}

func (c *resendClient) send(ctx context.Context, reqBody resendRequest) (string, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("email: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.resend.com/emails",
		bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return "", fmt.Errorf("email: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("email: http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", fmt.Errorf("email: read response: %w", err)
	}

	var parsed resendResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", fmt.Errorf("email: unmarshal response (status %d): %w", resp.StatusCode, err)
	}

	if parsed.Error != nil {
		return "", fmt.Errorf("email: Resend error %s: %s", parsed.Error.Name, parsed.Error.Message)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("email: unexpected status %d: %.200s", resp.StatusCode, string(respBytes))
	}

	return parsed.ID, nil
}

// ─── HTML TEMPLATES ───────────────────────────────────────────────────────────

func leadNotificationHTML(p LeadNotificationParams) string {
	scoreRow := ""
	if p.Tier != "" {
		scoreRow = fmt.Sprintf(`<tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Assessment</td>
    <td style="padding: 4px 0;"><strong>%d</strong> · %s (%s)</td></tr>`,
			p.Score, html.EscapeString(p.Tier), html.EscapeString(p.Variant))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; color: #1a1a1a; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2 style="margin-bottom: 8px;">New Lead</h2>
  <table style="border-collapse: collapse; font-size: 14px;">
    <tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Name</td><td style="padding: 4px 0;">%s</td></tr>
    <tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Email</td><td style="padding: 4px 0;">%s</td></tr>
    <tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Company</td><td style="padding: 4px 0;">%s</td></tr>
    <tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Role</td><td style="padding: 4px 0;">%s</td></tr>
    %s
  </table>
  <p style="margin-top: 16px; font-size: 14px;">%s</p>
  <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 32px 0;">
  <p style="color: #9ca3af; font-size: 12px;">Archwell AI Leadership Funnel · reply goes to the lead</p>
</body>
</html>`,
		html.EscapeString(p.Name),
		html.EscapeString(p.Email),
		html.EscapeString(p.Company),
		html.EscapeString(p.Role),
		scoreRow,
		html.EscapeString(p.Motivation),
	)
}

func bookingHTML(p BookingParams) string {
	scopeRow := ""
	if p.CompanyName != "" {
		scopeRow = fmt.Sprintf(`<tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Sprint scope</td>
    <td style="padding: 4px 0;">%s</td></tr>`, html.EscapeString(p.CompanyName))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; color: #1a1a1a; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2 style="margin-bottom: 8px;">Advisory Sprint Request</h2>
  <table style="border-collapse: collapse; font-size: 14px;">
    <tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Name</td><td style="padding: 4px 0;">%s</td></tr>
    <tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Email</td><td style="padding: 4px 0;">%s</td></tr>
    <tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Company</td><td style="padding: 4px 0;">%s</td></tr>
    %s
    <tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Fit score</td><td style="padding: 4px 0;"><strong>%d</strong> · %s</td></tr>
  </table>
  <p style="margin-top: 16px; font-size: 14px;">%s</p>
  <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 32px 0;">
  <p style="color: #9ca3af; font-size: 12px;">Archwell AI Leadership Funnel · reply goes to the requester</p>
</body>
</html>`,
		html.EscapeString(p.Name),
		html.EscapeString(p.Email),
		html.EscapeString(p.Company),
		scopeRow,
		p.Score,
		html.EscapeString(p.Tier),
		html.EscapeString(p.Notes),
	)
}

func reportReadyHTML(name, tier, reportURL string) string {
	greeting := "Hello"
	if name != "" {
		greeting = fmt.Sprintf("Hello %s", html.EscapeString(name))
	}

	tierLine := ""
	if tier != "" {
		tierLine = fmt.Sprintf(`<p>Your assessment places you at the <strong>%s</strong> stage.</p>`,
			html.EscapeString(tier))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; color: #1a1a1a; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2 style="margin-bottom: 8px;">Your AI Leadership Report is Ready</h2>
  <p>%s,</p>
  <p>Your AI leadership assessment has been scored and your personalised report
  is ready. It breaks down where you stand, how you compare to peers, and the
  roadmap we recommend for your next two quarters.</p>
  %s
  <p style="margin: 32px 0;">
    <a href="%s"
       style="background: #0f172a; color: #ffffff; padding: 12px 24px;
              border-radius: 6px; text-decoration: none; font-weight: 600;">
      View Your Report
    </a>
  </p>
  <p style="color: #6b7280; font-size: 14px;">
    Bookmark this link — it is your permanent access to your report.<br>
    If the button above does not work, copy this URL:<br>
    <a href="%s" style="color: #6b7280;">%s</a>
  </p>
  <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 32px 0;">
  <p style="color: #9ca3af; font-size: 12px;">
    Archwell AI Leadership Assessment · No account required
  </p>
</body>
</html>`, greeting, tierLine, reportURL, reportURL, reportURL)
}
