package recipient

import (
	"context"

	"github.com/ignite/founders-outreach/internal/domain"
)

// Repository defines the data access contract for recipient ingest.
type Repository interface {
	// CampaignExists reports whether the campaign is known.
	CampaignExists(ctx context.Context, campaignID string) (bool, error)

	// ExistingEmails returns which of emails are already recipients of the campaign.
	ExistingEmails(ctx context.Context, campaignID string, emails []string) ([]string, error)

	// InsertQueued inserts recipients, skipping any (campaign, email) pair
	// that already exists, and bumps the campaign's total_recipients by the
	// number actually inserted. Returns the inserted count.
	InsertQueued(ctx context.Context, campaignID string, rs []domain.Recipient) (int, error)
}

// SuppressionFilter is the registry subset ingest depends on.
type SuppressionFilter interface {
	FilterSuppressed(ctx context.Context, emails []string) (map[string]bool, error)
}
