package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// Plan is a partner-intake record: the intake answers plus the scored
// portfolio snapshot, optionally published under a share slug.
type Plan struct {
	ID        uuid.UUID
	Intake    pqtype.NullRawMessage
	Portfolio pqtype.NullRawMessage
	ShareSlug sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

const planColumns = `id, intake, portfolio, share_slug, created_at, updated_at`

func scanPlan(row interface{ Scan(...any) error }) (Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.Intake, &p.Portfolio, &p.ShareSlug, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ErrShareSlugAlreadySet is returned by AttachShareSlug when the plan already
// has a slug. The handler should treat this as idempotent success and return
// the existing slug — a second share click must not mint a second link.
var ErrShareSlugAlreadySet = errors.New("store: share slug already set for plan")

// CreatePlan inserts a partner plan snapshot.
func (s *Store) CreatePlan(ctx context.Context, intakeJSON, portfolioJSON []byte) (Plan, error) {
	plan, err := scanPlan(s.pool.QueryRowContext(ctx, `
		INSERT INTO plans (id, intake, portfolio)
		VALUES ($1, $2, $3)
		RETURNING `+planColumns,
		uuid.New(),
		pqtype.NullRawMessage{RawMessage: intakeJSON, Valid: len(intakeJSON) > 0},
		pqtype.NullRawMessage{RawMessage: portfolioJSON, Valid: len(portfolioJSON) > 0},
	))
	if err != nil {
		return Plan{}, fmt.Errorf("CreatePlan: %w", err)
	}
	return plan, nil
}

// GetPlanByID fetches one plan.
func (s *Store) GetPlanByID(ctx context.Context, id uuid.UUID) (Plan, error) {
	plan, err := scanPlan(s.pool.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM plans WHERE id = $1`, id))
	if err != nil {
		return Plan{}, fmt.Errorf("GetPlanByID: %w", err)
	}
	return plan, nil
}

// GetPlanBySlug serves the public share endpoint. Returns sql.ErrNoRows when
// the slug matches nothing.
func (s *Store) GetPlanBySlug(ctx context.Context, slug string) (Plan, error) {
	plan, err := scanPlan(s.pool.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM plans WHERE share_slug = $1`, slug))
	if err != nil {
		return Plan{}, fmt.Errorf("GetPlanBySlug: %w", err)
	}
	return plan, nil
}

// AttachShareSlug atomically guards against double-minting a share link.
//
// Race scenario without this guard: two browser tabs click share
// simultaneously, both read the plan, see no slug, and each writes its own —
// the second write silently orphans the first link already copied to a
// clipboard. Under serializable isolation the second transaction sees the
// first commit, hits the already-set check, and returns the sentinel with
// the surviving slug.
func (s *Store) AttachShareSlug(ctx context.Context, planID uuid.UUID, slug string) (Plan, error) {
	var plan Plan

	err := s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		existing, err := scanPlan(tx.QueryRowContext(ctx,
			`SELECT `+planColumns+` FROM plans WHERE id = $1 FOR UPDATE`, planID))
		if err != nil {
			return fmt.Errorf("AttachShareSlug: get plan: %w", err)
		}

		if existing.ShareSlug.Valid && existing.ShareSlug.String != "" {
			plan = existing
			return ErrShareSlugAlreadySet
		}

		plan, err = scanPlan(tx.QueryRowContext(ctx, `
			UPDATE plans
			SET share_slug = $2, updated_at = now()
			WHERE id = $1
			RETURNING `+planColumns,
			planID, slug,
		))
		if err != nil {
			return fmt.Errorf("AttachShareSlug: set slug: %w", err)
		}
		return nil
	})

	if errors.Is(err, ErrShareSlugAlreadySet) {
		return plan, ErrShareSlugAlreadySet
	}
	if err != nil {
		return Plan{}, err
	}

	return plan, nil
}
