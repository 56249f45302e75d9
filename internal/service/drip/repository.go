package drip

import (
	"context"
	"time"

	"github.com/ignite/founders-outreach/internal/domain"
)

// DueRecipient is a recipient ready for its next stage, with the campaign
// settings the scheduler needs.
type DueRecipient struct {
	domain.Recipient
	DailySendLimit int
}

// Repository defines the data access contract for the drip scheduler.
type Repository interface {
	// DueRecipients returns up to limit in-sequence recipients of active
	// campaigns whose next_send_at is at or before now, leaving out the
	// campaigns in exclude.
	DueRecipients(ctx context.Context, now time.Time, limit int, exclude []string) ([]DueRecipient, error)

	// SentSince counts recipients of a campaign last sent at or after since.
	SentSince(ctx context.Context, campaignID string, since time.Time) (int, error)

	// Claim takes a due recipient at the given stage by clearing its
	// schedule. False means another run already took it or it left the
	// sequence.
	Claim(ctx context.Context, id string, stage int, now time.Time) (bool, error)

	// MarkSent records a delivered stage and bumps the campaign's total_sent.
	MarkSent(ctx context.Context, s StageSent) error

	// MarkFailed moves a claimed recipient to failed.
	MarkFailed(ctx context.Context, id string, at time.Time) error

	// AppendEvent writes an audit row.
	AppendEvent(ctx context.Context, ev *domain.EngagementEvent) error
}

// StageSent describes the write after a successful send.
type StageSent struct {
	RecipientID string
	CampaignID  string
	FromStage   int
	NextStage   int
	NextSendAt  *time.Time
	Completed   bool
	SentAt      time.Time
}

// Renderer resolves and renders the template for a persona and stage.
type Renderer interface {
	Render(persona string, stage int, vars map[string]any) (subject, html string, err error)
}
