package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// LeadStatus is the lead-processing lifecycle.
type LeadStatus string

const (
	LeadPending    LeadStatus = "pending"
	LeadProcessing LeadStatus = "processing"
	LeadReady      LeadStatus = "ready"
	LeadError      LeadStatus = "error"
)

// Lead is the sales side-channel row created when a session completes an
// assessment. The worker enriches it (narrative, insights snapshot) and the
// report endpoint serves it by access token.
type Lead struct {
	ID           uuid.UUID
	SessionID    uuid.UUID
	AccessToken  string
	Status       LeadStatus
	Score        sql.NullInt32
	Tier         sql.NullString
	Narrative    sql.NullString
	Insights     pqtype.NullRawMessage
	ErrorMessage sql.NullString
	Attempts     int32
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const leadColumns = `id, session_id, access_token, status, score, tier,
	narrative, insights, error_message, attempts, created_at, updated_at`

func scanLead(row interface{ Scan(...any) error }) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.SessionID, &l.AccessToken, &l.Status, &l.Score, &l.Tier,
		&l.Narrative, &l.Insights, &l.ErrorMessage, &l.Attempts,
		&l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

func getLeadBySessionID(ctx context.Context, q dbtx, sessionID uuid.UUID) (Lead, error) {
	return scanLead(q.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE session_id = $1`, sessionID))
}

// GetLeadByAccessToken serves the public report endpoint. Returns
// sql.ErrNoRows when the token matches nothing.
func (s *Store) GetLeadByAccessToken(ctx context.Context, token string) (Lead, error) {
	lead, err := scanLead(s.pool.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE access_token = $1`, token))
	if err != nil {
		return Lead{}, fmt.Errorf("GetLeadByAccessToken: %w", err)
	}
	return lead, nil
}

// GetLeadByID fetches one lead row.
func (s *Store) GetLeadByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	lead, err := scanLead(s.pool.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if err != nil {
		return Lead{}, fmt.Errorf("GetLeadByID: %w", err)
	}
	return lead, nil
}

// ListPendingLeads is the worker's recovery poll: leads still pending, plus
// leads stuck in processing longer than stuckAfter (a crashed worker never
// wrote a terminal status). Oldest first, bounded by limit.
func (s *Store) ListPendingLeads(ctx context.Context, stuckAfter time.Duration, limit int) ([]Lead, error) {
	rows, err := s.pool.QueryContext(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE status = 'pending'
		   OR (status = 'processing' AND updated_at < now() - $1::interval)
		ORDER BY created_at
		LIMIT $2`,
		fmt.Sprintf("%d seconds", int(stuckAfter.Seconds())), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ListPendingLeads: %w", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("ListPendingLeads: scan: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListPendingLeads: %w", err)
	}
	return leads, nil
}

// MarkLeadProcessing claims a lead for the worker and bumps the attempt
// counter.
func (s *Store) MarkLeadProcessing(ctx context.Context, id uuid.UUID) (Lead, error) {
	lead, err := scanLead(s.pool.QueryRowContext(ctx, `
		UPDATE leads
		SET status = 'processing', attempts = attempts + 1, updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns, id))
	if err != nil {
		return Lead{}, fmt.Errorf("MarkLeadProcessing: %w", err)
	}
	return lead, nil
}

// FinalizeLeadParams is everything the worker hands back once enrichment is
// complete. InsightsJSON may be nil when generation fell back and the
// narrative alone is stored.
type FinalizeLeadParams struct {
	LeadID       uuid.UUID
	Narrative    string
	InsightsJSON []byte
}

// FinalizeLead atomically writes the enrichment output and flips the lead to
// ready. Runs in a transaction so a partially written narrative is never
// visible to the report endpoint.
func (s *Store) FinalizeLead(ctx context.Context, p FinalizeLeadParams) (Lead, error) {
	var lead Lead

	err := s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		lead, err = scanLead(tx.QueryRowContext(ctx, `
			UPDATE leads
			SET status = 'ready', narrative = NULLIF($2, ''), insights = $3,
			    error_message = NULL, updated_at = now()
			WHERE id = $1
			RETURNING `+leadColumns,
			p.LeadID, p.Narrative,
			pqtype.NullRawMessage{RawMessage: p.InsightsJSON, Valid: len(p.InsightsJSON) > 0},
		))
		if err != nil {
			return fmt.Errorf("FinalizeLead: %w", err)
		}
		return nil
	})
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// MarkLeadFailed sets the lead status to error with a descriptive message.
// Called by the worker after exhausting retries.
func (s *Store) MarkLeadFailed(ctx context.Context, id uuid.UUID, reason string) (Lead, error) {
	lead, err := scanLead(s.pool.QueryRowContext(ctx, `
		UPDATE leads
		SET status = 'error', error_message = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns, id, reason))
	if err != nil {
		return Lead{}, fmt.Errorf("MarkLeadFailed: %w", err)
	}
	return lead, nil
}
