package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/founders-outreach/internal/domain"
	"github.com/ignite/founders-outreach/internal/service/campaign"
)

// CampaignRepo implements campaign.Repository and the campaign half of
// phase.Repository against PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

const campaignColumns = `
	id, name, status, COALESCE(phase_tag,''), COALESCE(paused_by,''), daily_send_limit,
	total_recipients, total_sent, total_opened, total_clicked, total_converted,
	activated_at, paused_at, completed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(s rowScanner) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	var activated, paused, completed sql.NullTime
	err := s.Scan(
		&c.ID, &c.Name, &c.Status, &c.PhaseTag, &c.PausedBy, &c.DailySendLimit,
		&c.TotalRecipients, &c.TotalSent, &c.TotalOpened, &c.TotalClicked, &c.TotalConverted,
		&activated, &paused, &completed, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ActivatedAt = timePtr(activated)
	c.PausedAt = timePtr(paused)
	c.CompletedAt = timePtr(completed)
	return c, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func (r *CampaignRepo) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM outreach_campaigns WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) List(ctx context.Context, f campaign.ListFilter) ([]domain.Campaign, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	where := ""
	args := []interface{}{}
	if f.Status != "" {
		where = " WHERE status = $1"
		args = append(args, f.Status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outreach_campaigns`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}

	q := fmt.Sprintf(`SELECT %s FROM outreach_campaigns%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		campaignColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, q, append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO outreach_campaigns (id, name, status, phase_tag, daily_send_limit, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $6)
	`, c.ID, c.Name, c.Status, string(c.PhaseTag), c.DailySendLimit, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepo) Transition(ctx context.Context, id string, t campaign.StatusChange) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE outreach_campaigns SET
			status = $3,
			paused_by = NULLIF($4, ''),
			paused_at = CASE WHEN $3 = 'paused' THEN $5 ELSE NULL END,
			activated_at = CASE WHEN $3 = 'active' THEN COALESCE(activated_at, $5) ELSE activated_at END,
			completed_at = CASE WHEN $3 = 'completed' THEN $5 ELSE completed_at END,
			updated_at = $5
		WHERE id = $1 AND status = $2
	`, id, t.From, t.To, string(t.PausedBy), t.At)
	if err != nil {
		return fmt.Errorf("transition campaign: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrInvalidTransition
	}
	return nil
}

func (r *CampaignRepo) TakeOverPause(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE outreach_campaigns
		SET paused_by = 'operator', paused_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'paused' AND paused_by = 'phase_guard'
	`, id, at)
	if err != nil {
		return false, fmt.Errorf("take over pause: %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// ListForPhase returns one page of campaigns with the given phase tag and
// status, ordered by id and starting after afterID. When pausedBy is set
// only campaigns paused for that cause are returned.
func (r *CampaignRepo) ListForPhase(ctx context.Context, tag domain.Phase, status domain.CampaignStatus, pausedBy domain.PauseCause, afterID string, limit int) ([]domain.CampaignRef, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name FROM outreach_campaigns
		WHERE phase_tag = $1 AND status = $2 AND ($3 = '' OR paused_by = $3)
		  AND id::text > $4
		ORDER BY id::text
		LIMIT $5
	`, tag, status, string(pausedBy), afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list campaigns for phase: %w", err)
	}
	defer rows.Close()

	var out []domain.CampaignRef
	for rows.Next() {
		var ref domain.CampaignRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("scan campaign ref: %w", err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// PauseForPhase pauses an active campaign on behalf of the phase guard.
// Returns false when the campaign was no longer active.
func (r *CampaignRepo) PauseForPhase(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE outreach_campaigns
		SET status = 'paused', paused_by = 'phase_guard', paused_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'active'
	`, id, at)
	if err != nil {
		return false, fmt.Errorf("pause campaign: %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// ResumeFromPhase reactivates a campaign only if the phase guard paused it.
func (r *CampaignRepo) ResumeFromPhase(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE outreach_campaigns
		SET status = 'active', paused_by = NULL, paused_at = NULL, updated_at = $2
		WHERE id = $1 AND status = 'paused' AND paused_by = 'phase_guard'
	`, id, at)
	if err != nil {
		return false, fmt.Errorf("resume campaign: %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}
