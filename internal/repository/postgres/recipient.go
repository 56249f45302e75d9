package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/ignite/founders-outreach/internal/domain"
	"github.com/ignite/founders-outreach/internal/service/drip"
	"github.com/ignite/founders-outreach/internal/service/engagement"
)

// RecipientRepo implements recipient.Repository, engagement.Repository and
// drip.Repository against PostgreSQL. Every state change is a single
// conditional statement; callers read RowsAffected to learn whether their
// write won.
type RecipientRepo struct{ db *sql.DB }

// NewRecipientRepo creates a Postgres-backed recipient repository.
func NewRecipientRepo(db *sql.DB) *RecipientRepo { return &RecipientRepo{db: db} }

const inSequence = `('queued','sent','opened','clicked','resend')`

const recipientColumns = `
	id, campaign_id, email, COALESCE(name,''), COALESCE(company,''), COALESCE(title,''),
	persona, invite_code, status, sequence_stage, next_send_at, last_sent_at,
	opened_at, clicked_at, unsubscribed_at, created_at, updated_at`

const dueColumns = `
	r.id, r.campaign_id, r.email, COALESCE(r.name,''), COALESCE(r.company,''), COALESCE(r.title,''),
	r.persona, r.invite_code, r.status, r.sequence_stage, r.next_send_at, r.last_sent_at,
	r.opened_at, r.clicked_at, r.unsubscribed_at, r.created_at, r.updated_at`

func scanRecipient(s rowScanner, extra ...any) (*domain.Recipient, error) {
	r := &domain.Recipient{}
	var next, last, opened, clicked, unsub sql.NullTime
	dest := []any{
		&r.ID, &r.CampaignID, &r.Email, &r.Name, &r.Company, &r.Title,
		&r.Persona, &r.InviteCode, &r.Status, &r.SequenceStage, &next, &last,
		&opened, &clicked, &unsub, &r.CreatedAt, &r.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	r.NextSendAt = timePtr(next)
	r.LastSentAt = timePtr(last)
	r.OpenedAt = timePtr(opened)
	r.ClickedAt = timePtr(clicked)
	r.UnsubscribedAt = timePtr(unsub)
	return r, nil
}

// ---- ingest ----

func (r *RecipientRepo) CampaignExists(ctx context.Context, campaignID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM outreach_campaigns WHERE id::text = $1)`, campaignID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("campaign exists: %w", err)
	}
	return exists, nil
}

func (r *RecipientRepo) ExistingEmails(ctx context.Context, campaignID string, emails []string) ([]string, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT email FROM outreach_recipients WHERE campaign_id = $1 AND email = ANY($2)`,
		campaignID, pq.Array(emails),
	)
	if err != nil {
		return nil, fmt.Errorf("existing emails: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *RecipientRepo) InsertQueued(ctx context.Context, campaignID string, rs []domain.Recipient) (int, error) {
	if len(rs) == 0 {
		return 0, nil
	}

	const cols = 12
	values := make([]string, 0, len(rs))
	args := make([]interface{}, 0, len(rs)*cols)
	for i, rec := range rs {
		base := i * cols
		ph := make([]string, cols)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", base+j+1)
		}
		values = append(values, "("+strings.Join(ph, ", ")+")")
		args = append(args,
			rec.ID, campaignID, rec.Email, rec.Name, rec.Company, rec.Title,
			rec.Persona, rec.InviteCode, rec.Status, rec.SequenceStage, rec.NextSendAt, rec.CreatedAt,
		)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO outreach_recipients
			(id, campaign_id, email, name, company, title,
			 persona, invite_code, status, sequence_stage, next_send_at, created_at)
		VALUES `+strings.Join(values, ", ")+`
		ON CONFLICT (campaign_id, email) DO NOTHING
	`, args...)
	if err != nil {
		return 0, fmt.Errorf("insert recipients: %w", err)
	}
	n, _ := res.RowsAffected()

	if n > 0 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE outreach_campaigns SET total_recipients = total_recipients + $2, updated_at = NOW()
			WHERE id = $1
		`, campaignID, n); err != nil {
			return 0, fmt.Errorf("bump total_recipients: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int(n), nil
}

// ---- engagement ----

func (r *RecipientRepo) GetRecipient(ctx context.Context, id string) (*domain.Recipient, error) {
	rec, err := scanRecipient(r.db.QueryRowContext(ctx,
		`SELECT `+recipientColumns+` FROM outreach_recipients WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, engagement.ErrRecipientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recipient: %w", err)
	}
	return rec, nil
}

func (r *RecipientRepo) RecipientIDsByEmail(ctx context.Context, email string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM outreach_recipients WHERE email = $1`, email)
	if err != nil {
		return nil, fmt.Errorf("recipients by email: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan recipient id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// MarkOpened sets opened_at if unset and bumps total_opened in one statement.
func (r *RecipientRepo) MarkOpened(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.firstWrite(ctx, `
		WITH r AS (
			UPDATE outreach_recipients
			SET opened_at = $2,
			    status = CASE WHEN status IN ('queued','sent','resend') THEN 'opened' ELSE status END,
			    updated_at = $2
			WHERE id = $1 AND opened_at IS NULL
			RETURNING campaign_id
		)
		UPDATE outreach_campaigns c SET total_opened = c.total_opened + 1
		FROM r WHERE c.id = r.campaign_id
	`, id, at)
}

// MarkClicked sets clicked_at if unset and bumps total_clicked in one statement.
func (r *RecipientRepo) MarkClicked(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.firstWrite(ctx, `
		WITH r AS (
			UPDATE outreach_recipients
			SET clicked_at = $2,
			    status = CASE WHEN status IN `+inSequence+` THEN 'clicked' ELSE status END,
			    updated_at = $2
			WHERE id = $1 AND clicked_at IS NULL
			RETURNING campaign_id
		)
		UPDATE outreach_campaigns c SET total_clicked = c.total_clicked + 1
		FROM r WHERE c.id = r.campaign_id
	`, id, at)
}

func (r *RecipientRepo) firstWrite(ctx context.Context, q, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, q, id, at)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func (r *RecipientRepo) MarkNegative(ctx context.Context, id string, status domain.RecipientStatus, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outreach_recipients
		SET status = $2,
		    next_send_at = NULL,
		    unsubscribed_at = CASE WHEN $2 = 'unsubscribed' THEN COALESCE(unsubscribed_at, $3) ELSE unsubscribed_at END,
		    updated_at = $3
		WHERE id = $1
	`, id, status, at)
	if err != nil {
		return fmt.Errorf("mark negative: %w", err)
	}
	return nil
}

// ---- drip ----

func (r *RecipientRepo) DueRecipients(ctx context.Context, now time.Time, limit int, exclude []string) ([]drip.DueRecipient, error) {
	if exclude == nil {
		exclude = []string{}
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+dueColumns+`, c.daily_send_limit
		FROM outreach_recipients r
		JOIN outreach_campaigns c ON c.id = r.campaign_id
		WHERE c.status = 'active'
		  AND r.status IN `+inSequence+`
		  AND r.next_send_at <= $1
		  AND c.id::text <> ALL($3::text[])
		ORDER BY r.next_send_at
		LIMIT $2
	`, now, limit, pq.Array(exclude))
	if err != nil {
		return nil, fmt.Errorf("due recipients: %w", err)
	}
	defer rows.Close()

	var out []drip.DueRecipient
	for rows.Next() {
		var dailyLimit int
		rec, err := scanRecipient(rows, &dailyLimit)
		if err != nil {
			return nil, fmt.Errorf("scan due recipient: %w", err)
		}
		out = append(out, drip.DueRecipient{Recipient: *rec, DailySendLimit: dailyLimit})
	}
	return out, rows.Err()
}

func (r *RecipientRepo) SentSince(ctx context.Context, campaignID string, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outreach_recipients WHERE campaign_id = $1 AND last_sent_at >= $2`,
		campaignID, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sent since: %w", err)
	}
	return n, nil
}

func (r *RecipientRepo) Claim(ctx context.Context, id string, stage int, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE outreach_recipients SET next_send_at = NULL, updated_at = $3
		WHERE id = $1 AND sequence_stage = $2 AND next_send_at <= $3 AND status IN `+inSequence,
		id, stage, now)
	if err != nil {
		return false, fmt.Errorf("claim recipient: %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// MarkSent advances the stage. A negative status that landed while the
// mail was in flight is kept.
func (r *RecipientRepo) MarkSent(ctx context.Context, s drip.StageSent) error {
	_, err := r.db.ExecContext(ctx, `
		WITH r AS (
			UPDATE outreach_recipients
			SET sequence_stage = $3,
			    last_sent_at = $6,
			    next_send_at = CASE WHEN status IN `+inSequence+` THEN $4 ELSE NULL END,
			    status = CASE
			        WHEN status NOT IN `+inSequence+` THEN status
			        WHEN $5 THEN 'completed'
			        WHEN status IN ('queued','resend') THEN 'sent'
			        ELSE status END,
			    updated_at = $6
			WHERE id = $1 AND sequence_stage = $2
			RETURNING campaign_id
		)
		UPDATE outreach_campaigns c SET total_sent = c.total_sent + 1
		FROM r WHERE c.id = r.campaign_id
	`, s.RecipientID, s.FromStage, s.NextStage, s.NextSendAt, s.Completed, s.SentAt)
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

func (r *RecipientRepo) MarkFailed(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outreach_recipients SET status = 'failed', next_send_at = NULL, updated_at = $2
		WHERE id = $1 AND status IN `+inSequence,
		id, at)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}
