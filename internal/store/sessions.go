package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// ─── ROW TYPES ───────────────────────────────────────────────────────────────

// Session is one anonymous funnel session. Contact fields stay NULL until the
// contact-capture step; score and tier stay NULL until completion.
type Session struct {
	ID            uuid.UUID
	AnonToken     string
	Variant       string
	Name          sql.NullString
	Email         sql.NullString
	Company       sql.NullString
	Role          sql.NullString
	Motivation    sql.NullString
	Disqualified  bool
	Answers       pqtype.NullRawMessage
	Score         sql.NullInt32
	Tier          sql.NullString
	Status        string // open | completed
	UTMSource     sql.NullString
	UTMMedium     sql.NullString
	UTMCampaign   sql.NullString
	IPHash        sql.NullString
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   sql.NullTime
}

const sessionColumns = `id, anon_token, variant, name, email, company, role,
	motivation, disqualified, answers, score, tier, status,
	utm_source, utm_medium, utm_campaign, ip_hash,
	created_at, updated_at, completed_at`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var s Session
	err := row.Scan(
		&s.ID, &s.AnonToken, &s.Variant, &s.Name, &s.Email, &s.Company,
		&s.Role, &s.Motivation, &s.Disqualified, &s.Answers, &s.Score,
		&s.Tier, &s.Status, &s.UTMSource, &s.UTMMedium, &s.UTMCampaign,
		&s.IPHash, &s.CreatedAt, &s.UpdatedAt, &s.CompletedAt,
	)
	return s, err
}

// ─── INPUT TYPES ─────────────────────────────────────────────────────────────

// CreateSessionParams holds the fields captured when the funnel first loads.
type CreateSessionParams struct {
	AnonToken   string
	Variant     string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	IPHash      string
}

// UpdateContactParams groups the contact-capture fields written together.
type UpdateContactParams struct {
	SessionID    uuid.UUID
	Name         string
	Email        string
	Company      string
	Role         string
	Motivation   string
	Disqualified bool
}

// FinalizeAssessmentParams carries the deterministic scoring result plus the
// freshly generated report access token for the lead row.
type FinalizeAssessmentParams struct {
	SessionID   uuid.UUID
	Score       int
	Tier        string
	AccessToken string
}

// ─── ERRORS ──────────────────────────────────────────────────────────────────

// ErrSessionAlreadyCompleted is returned by FinalizeAssessment when the
// session has already been finalized. The handler should treat this as
// idempotent success — a double-submit of the final step must not create a
// second lead — and respond with the existing lead's access token.
var ErrSessionAlreadyCompleted = errors.New("store: session already completed")

// ─── METHODS ─────────────────────────────────────────────────────────────────

// CreateSession inserts a new open session.
func (s *Store) CreateSession(ctx context.Context, p CreateSessionParams) (Session, error) {
	row := s.pool.QueryRowContext(ctx, `
		INSERT INTO sessions (id, anon_token, variant, utm_source, utm_medium, utm_campaign, ip_hash)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''))
		RETURNING `+sessionColumns,
		uuid.New(), p.AnonToken, p.Variant, p.UTMSource, p.UTMMedium, p.UTMCampaign, p.IPHash,
	)
	sess, err := scanSession(row)
	if err != nil {
		return Session{}, fmt.Errorf("CreateSession: %w", err)
	}
	return sess, nil
}

// GetSessionByID fetches one session. Returns sql.ErrNoRows when absent.
func (s *Store) GetSessionByID(ctx context.Context, id uuid.UUID) (Session, error) {
	row := s.pool.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	sess, err := scanSession(row)
	if err != nil {
		return Session{}, fmt.Errorf("GetSessionByID: %w", err)
	}
	return sess, nil
}

// GetSessionByAnonToken resolves the X-Anon-Token header to its session.
func (s *Store) GetSessionByAnonToken(ctx context.Context, token string) (Session, error) {
	row := s.pool.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE anon_token = $1`, token)
	sess, err := scanSession(row)
	if err != nil {
		return Session{}, fmt.Errorf("GetSessionByAnonToken: %w", err)
	}
	return sess, nil
}

// UpdateContact writes the contact-capture fields, including the
// disqualification verdict computed by the handler.
func (s *Store) UpdateContact(ctx context.Context, p UpdateContactParams) (Session, error) {
	row := s.pool.QueryRowContext(ctx, `
		UPDATE sessions
		SET name = $2, email = $3, company = NULLIF($4, ''), role = $5,
		    motivation = NULLIF($6, ''), disqualified = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+sessionColumns,
		p.SessionID, p.Name, p.Email, p.Company, p.Role, p.Motivation, p.Disqualified,
	)
	sess, err := scanSession(row)
	if err != nil {
		return Session{}, fmt.Errorf("UpdateContact: %w", err)
	}
	return sess, nil
}

// SaveAnswers replaces the session's answer map with the given snapshot.
// The client sends the full map on every save, so a plain overwrite is
// correct and keeps the write idempotent.
func (s *Store) SaveAnswers(ctx context.Context, sessionID uuid.UUID, answers map[string]string) (Session, error) {
	raw, err := json.Marshal(answers)
	if err != nil {
		return Session{}, fmt.Errorf("SaveAnswers: marshal answers: %w", err)
	}

	row := s.pool.QueryRowContext(ctx, `
		UPDATE sessions
		SET answers = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+sessionColumns,
		sessionID, pqtype.NullRawMessage{RawMessage: raw, Valid: true},
	)
	sess, err := scanSession(row)
	if err != nil {
		return Session{}, fmt.Errorf("SaveAnswers: %w", err)
	}
	return sess, nil
}

// FinalizeAssessment atomically:
//
//  1. Re-reads the session and guards against double completion.
//  2. Writes score, tier, status=completed and the completion timestamp.
//  3. Creates a pending lead row with the report access token.
//
// On a double-submit the sentinel ErrSessionAlreadyCompleted is returned
// together with the existing lead, so the handler can respond with the
// original access token rather than erroring.
func (s *Store) FinalizeAssessment(ctx context.Context, p FinalizeAssessmentParams) (Session, Lead, error) {
	var (
		session Session
		lead    Lead
	)

	err := s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		existing, err := scanSession(tx.QueryRowContext(ctx,
			`SELECT `+sessionColumns+` FROM sessions WHERE id = $1 FOR UPDATE`, p.SessionID))
		if err != nil {
			return fmt.Errorf("FinalizeAssessment: get session: %w", err)
		}

		if existing.Status == "completed" {
			session = existing
			lead, err = getLeadBySessionID(ctx, tx, p.SessionID)
			if err != nil {
				return fmt.Errorf("FinalizeAssessment: get existing lead: %w", err)
			}
			return ErrSessionAlreadyCompleted
		}

		session, err = scanSession(tx.QueryRowContext(ctx, `
			UPDATE sessions
			SET score = $2, tier = $3, status = 'completed',
			    completed_at = now(), updated_at = now()
			WHERE id = $1
			RETURNING `+sessionColumns,
			p.SessionID, p.Score, p.Tier,
		))
		if err != nil {
			return fmt.Errorf("FinalizeAssessment: update session: %w", err)
		}

		lead, err = scanLead(tx.QueryRowContext(ctx, `
			INSERT INTO leads (id, session_id, access_token, status, score, tier)
			VALUES ($1, $2, $3, 'pending', $4, $5)
			RETURNING `+leadColumns,
			uuid.New(), p.SessionID, p.AccessToken, p.Score, p.Tier,
		))
		if err != nil {
			return fmt.Errorf("FinalizeAssessment: create lead: %w", err)
		}

		return nil
	})

	// Unwrap the sentinel so callers can check with errors.Is without
	// digging through the wrapped chain.
	if errors.Is(err, ErrSessionAlreadyCompleted) {
		return session, lead, ErrSessionAlreadyCompleted
	}
	if err != nil {
		return Session{}, Lead{}, err
	}

	return session, lead, nil
}

// AnswerMap decodes the stored JSONB answer snapshot. A NULL column decodes
// to an empty map.
func (s Session) AnswerMap() (map[string]string, error) {
	if !s.Answers.Valid {
		return map[string]string{}, nil
	}
	var m map[string]string
	if err := json.Unmarshal(s.Answers.RawMessage, &m); err != nil {
		return nil, fmt.Errorf("store: decode answers: %w", err)
	}
	return m, nil
}
