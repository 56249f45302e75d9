package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/founders-outreach/internal/domain"
)

// SuppressionRepo implements suppression.Repository against PostgreSQL.
type SuppressionRepo struct{ db *sql.DB }

// NewSuppressionRepo creates a Postgres-backed suppression repository.
func NewSuppressionRepo(db *sql.DB) *SuppressionRepo { return &SuppressionRepo{db: db} }

func (r *SuppressionRepo) Suppressed(ctx context.Context, emails []string) ([]string, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT email FROM outreach_suppressions WHERE email = ANY($1)
		UNION
		SELECT email FROM outreach_unsubscribes WHERE email = ANY($1)
	`, pq.Array(emails))
	if err != nil {
		return nil, fmt.Errorf("lookup suppressions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan suppression: %w", err)
		}
		out = append(out, email)
	}
	return out, rows.Err()
}

func (r *SuppressionRepo) Upsert(ctx context.Context, s *domain.Suppression) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO outreach_suppressions (email, reason, source, recorded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET reason = EXCLUDED.reason, source = EXCLUDED.source, recorded_at = EXCLUDED.recorded_at
	`, s.Email, s.Reason, s.Source, s.RecordedAt)
	if err != nil {
		return fmt.Errorf("upsert suppression: %w", err)
	}
	return nil
}

func (r *SuppressionRepo) Unsubscribe(ctx context.Context, email string, source domain.SuppressionSource) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO outreach_unsubscribes (email, source, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (email) DO NOTHING
	`, email, source)
	if err != nil {
		return fmt.Errorf("global unsubscribe: %w", err)
	}
	return nil
}

func (r *SuppressionRepo) Get(ctx context.Context, email string) (*domain.Suppression, error) {
	s := &domain.Suppression{}
	err := r.db.QueryRowContext(ctx,
		`SELECT email, reason, source, recorded_at FROM outreach_suppressions WHERE email = $1`,
		email,
	).Scan(&s.Email, &s.Reason, &s.Source, &s.RecordedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get suppression: %w", err)
	}
	return s, nil
}

func (r *SuppressionRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outreach_suppressions`).Scan(&n)
	return n, err
}
