package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// MemberRepo counts members for the phase guard's capacity check.
type MemberRepo struct{ db *sql.DB }

// NewMemberRepo creates a Postgres-backed member counter.
func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

// CountTier returns the number of members holding the given tier.
func (r *MemberRepo) CountTier(ctx context.Context, tier string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM members WHERE membership_tier = $1`, tier,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}
