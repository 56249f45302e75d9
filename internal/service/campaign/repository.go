package campaign

import (
	"context"
	"time"

	"github.com/ignite/founders-outreach/internal/domain"
)

// Repository defines the data access contract for campaigns.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single campaign. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Campaign, error)

	// List returns campaigns matching the given filter, ordered by created_at DESC.
	List(ctx context.Context, filter ListFilter) ([]domain.Campaign, int, error)

	// Create inserts a new campaign.
	Create(ctx context.Context, c *domain.Campaign) error

	// Transition moves a campaign from one status to another only if it is
	// still in from. Returns ErrInvalidTransition when no row matched.
	Transition(ctx context.Context, id string, t StatusChange) error

	// TakeOverPause re-labels a campaign paused by the phase guard as
	// paused by an operator. False means it was not a guard pause anymore.
	TakeOverPause(ctx context.Context, id string, at time.Time) (bool, error)
}

// StatusChange describes one conditional lifecycle write.
type StatusChange struct {
	From     domain.CampaignStatus
	To       domain.CampaignStatus
	PausedBy domain.PauseCause
	At       time.Time
}

// ListFilter controls pagination and filtering for campaign lists.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}
