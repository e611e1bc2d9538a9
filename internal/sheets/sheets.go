// Package sheets pushes funnel events to the spreadsheet sync webhook.
// Sync failures are reported to the caller but must never fail the funnel:
// handlers log and move on.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RowType selects the destination tab on the receiving sheet.
type RowType string

const (
	RowBooking    RowType = "booking"
	RowAnalytics  RowType = "analytics"
	RowLeadScores RowType = "lead_scores"
)

// Valid reports whether t is one of the accepted row types.
func (t RowType) Valid() bool {
	switch t {
	case RowBooking, RowAnalytics, RowLeadScores:
		return true
	}
	return false
}

// Syncer is the interface handlers and the worker use to push rows.
// Tests inject a stub that records calls.
type Syncer interface {
	// SyncRow posts one row of the given type. Data is forwarded verbatim.
	SyncRow(ctx context.Context, rowType RowType, data map[string]any) error
}

// webhookClient posts rows to a configured webhook URL (typically an Apps
// Script endpoint wired to a Google Sheet).
type webhookClient struct {
	url        string
	httpClient *http.Client
}

// NewWebhookClient returns a Syncer posting to the given webhook URL.
func NewWebhookClient(url string) Syncer {
	return &webhookClient{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Disabled returns a Syncer that accepts and drops every row. Used when no
// webhook URL is configured.
func Disabled() Syncer { return disabledSyncer{} }

type disabledSyncer struct{}

func (disabledSyncer) SyncRow(context.Context, RowType, map[string]any) error { return nil }

type syncRequest struct {
	Type RowType        `json:"type"`
	Data map[string]any `json:"data"`
}

func (c *webhookClient) SyncRow(ctx context.Context, rowType RowType, data map[string]any) error {
	if !rowType.Valid() {
		return fmt.Errorf("sheets: unknown row type %q", rowType)
	}
	if c.url == "" {
		return fmt.Errorf("sheets: no webhook URL configured")
	}

	bodyBytes, err := json.Marshal(syncRequest{Type: rowType, Data: data})
	if err != nil {
		return fmt.Errorf("sheets: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("sheets: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sheets: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return fmt.Errorf("sheets: unexpected status %d: %.200s", resp.StatusCode, string(respBytes))
	}

	return nil
}
