package suppression

import (
	"context"

	"github.com/ignite/founders-outreach/internal/domain"
)

// Repository defines the data access contract for the suppression registry.
// All emails passed in are already trimmed and lower-cased.
type Repository interface {
	// Suppressed returns the subset of emails present in either the
	// suppression list or the global unsubscribe list.
	Suppressed(ctx context.Context, emails []string) ([]string, error)

	// Upsert records a suppression. An existing entry has its reason and
	// source overwritten.
	Upsert(ctx context.Context, s *domain.Suppression) error

	// Unsubscribe adds the email to the global unsubscribe list. Idempotent.
	Unsubscribe(ctx context.Context, email string, source domain.SuppressionSource) error

	// Get returns the suppression entry for an email, or nil when absent.
	Get(ctx context.Context, email string) (*domain.Suppression, error)

	// Count returns the number of suppression entries.
	Count(ctx context.Context) (int, error)
}
