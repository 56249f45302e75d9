package engagement

import (
	"context"
	"time"

	"github.com/ignite/founders-outreach/internal/domain"
)

// Repository defines the recipient writes engagement depends on.
type Repository interface {
	// GetRecipient returns a recipient or ErrRecipientNotFound.
	GetRecipient(ctx context.Context, id string) (*domain.Recipient, error)

	// RecipientIDsByEmail returns every recipient sharing an address.
	RecipientIDsByEmail(ctx context.Context, email string) ([]string, error)

	// AppendEvent writes an audit row. Never conditional.
	AppendEvent(ctx context.Context, ev *domain.EngagementEvent) error

	// MarkOpened sets opened_at only if unset and, in the same write, bumps
	// the campaign's total_opened. Reports whether this call made the change.
	MarkOpened(ctx context.Context, id string, at time.Time) (bool, error)

	// MarkClicked is MarkOpened for clicked_at / total_clicked.
	MarkClicked(ctx context.Context, id string, at time.Time) (bool, error)

	// MarkNegative moves the recipient to a negative terminal status and
	// clears its pending send. unsubscribed_at is stamped if unset when
	// status is unsubscribed.
	MarkNegative(ctx context.Context, id string, status domain.RecipientStatus, at time.Time) error
}

// Suppressor is the registry subset engagement writes to.
type Suppressor interface {
	Suppress(ctx context.Context, email string, reason domain.SuppressionReason, source domain.SuppressionSource) error
	Unsubscribe(ctx context.Context, email string, source domain.SuppressionSource) error
}
