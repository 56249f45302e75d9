package campaign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/founders-outreach/internal/domain"
	"github.com/ignite/founders-outreach/internal/pkg/logger"
)

// Service implements campaign business logic.
// All public methods are safe for concurrent use if the underlying
// repository is concurrency-safe.
type Service struct {
	repo Repository
	now  func() time.Time
	log  *logger.Logger
}

// NewService creates a campaign service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
		log:  logger.With("component", "campaign"),
	}
}

// CreateInput holds the fields for creating a new campaign.
type CreateInput struct {
	Name           string       `json:"name"`
	PhaseTag       domain.Phase `json:"phase_tag"`
	DailySendLimit int          `json:"daily_send_limit"`
}

// Create validates and persists a new campaign in draft status.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Campaign, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	switch input.PhaseTag {
	case "", domain.PhaseFounding, domain.PhaseStandard:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPhaseTag, input.PhaseTag)
	}
	limit := input.DailySendLimit
	if limit < 0 {
		limit = 0
	}

	now := s.now()
	c := &domain.Campaign{
		ID:             uuid.New().String(),
		Name:           name,
		Status:         domain.CampaignDraft,
		PhaseTag:       input.PhaseTag,
		DailySendLimit: limit,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns a single campaign. Malformed ids are reported as ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// List returns campaigns matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Campaign, int, error) {
	return s.repo.List(ctx, f)
}

// Activate starts a draft campaign.
func (s *Service) Activate(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.transition(ctx, id, domain.CampaignDraft, domain.CampaignActive, "")
}

// Pause stops sending for an active campaign on an operator's request.
// Operator pauses are never lifted by the phase guard, so pausing a
// campaign the guard already paused hands the pause over to the operator.
func (s *Service) Pause(ctx context.Context, id string) (*domain.Campaign, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != domain.CampaignPaused || c.PausedBy != domain.PausedByPhaseGuard {
		return s.transition(ctx, id, domain.CampaignActive, domain.CampaignPaused, domain.PausedByOperator)
	}

	ok, err := s.repo.TakeOverPause(ctx, c.ID, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: campaign is no longer paused by the phase guard", ErrInvalidTransition)
	}
	s.log.Info("operator took over phase guard pause", "campaign_id", c.ID)
	return s.repo.Get(ctx, c.ID)
}

// Resume reactivates a paused campaign regardless of who paused it.
func (s *Service) Resume(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.transition(ctx, id, domain.CampaignPaused, domain.CampaignActive, "")
}

// Complete ends an active campaign.
func (s *Service) Complete(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.transition(ctx, id, domain.CampaignActive, domain.CampaignCompleted, "")
}

func (s *Service) transition(ctx context.Context, id string, from, to domain.CampaignStatus, cause domain.PauseCause) (*domain.Campaign, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != from || !c.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.Status, to)
	}

	change := StatusChange{From: from, To: to, PausedBy: cause, At: s.now()}
	if err := s.repo.Transition(ctx, id, change); err != nil {
		return nil, err
	}

	s.log.Info("campaign transitioned", "campaign_id", id, "from", string(from), "to", string(to))
	return s.repo.Get(ctx, id)
}
