package campaign_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/founders-outreach/internal/domain"
	"github.com/ignite/founders-outreach/internal/service/campaign"
	"github.com/ignite/founders-outreach/internal/service/phase"
)

// memRepo is an in-memory campaign repository for unit testing.
type memRepo struct {
	mu        sync.Mutex
	campaigns map[string]*domain.Campaign
}

func newMemRepo() *memRepo {
	return &memRepo{campaigns: make(map[string]*domain.Campaign)}
}

func (m *memRepo) Get(_ context.Context, id string) (*domain.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, campaign.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, f campaign.ListFilter) ([]domain.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Campaign
	for _, c := range m.campaigns {
		if f.Status != "" && string(c.Status) != f.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *memRepo) Create(_ context.Context, c *domain.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.campaigns[c.ID] = &cp
	return nil
}

func (m *memRepo) Transition(_ context.Context, id string, t campaign.StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.Status != t.From {
		return campaign.ErrInvalidTransition
	}
	c.Status = t.To
	c.PausedBy = t.PausedBy
	at := t.At
	switch t.To {
	case domain.CampaignActive:
		if c.ActivatedAt == nil {
			c.ActivatedAt = &at
		}
		c.PausedAt = nil
	case domain.CampaignPaused:
		c.PausedAt = &at
	case domain.CampaignCompleted:
		c.CompletedAt = &at
	}
	return nil
}

func (m *memRepo) TakeOverPause(_ context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.Status != domain.CampaignPaused || c.PausedBy != domain.PausedByPhaseGuard {
		return false, nil
	}
	c.PausedBy = domain.PausedByOperator
	c.PausedAt = &at
	return true, nil
}

// The phase guard writes through the same store in production; these let
// the tests run a real guard against memRepo.

func (m *memRepo) ListForPhase(_ context.Context, tag domain.Phase, status domain.CampaignStatus, pausedBy domain.PauseCause, afterID string, limit int) ([]domain.CampaignRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CampaignRef
	for _, c := range m.campaigns {
		if c.PhaseTag == tag && c.Status == status && c.ID > afterID && (pausedBy == "" || c.PausedBy == pausedBy) {
			out = append(out, domain.CampaignRef{ID: c.ID, Name: c.Name})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) PauseForPhase(_ context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.Status != domain.CampaignActive {
		return false, nil
	}
	c.Status = domain.CampaignPaused
	c.PausedBy = domain.PausedByPhaseGuard
	c.PausedAt = &at
	return true, nil
}

func (m *memRepo) ResumeFromPhase(_ context.Context, id string, _ time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.Status != domain.CampaignPaused || c.PausedBy != domain.PausedByPhaseGuard {
		return false, nil
	}
	c.Status = domain.CampaignActive
	c.PausedBy = ""
	c.PausedAt = nil
	return true, nil
}

type memberCount struct{ n int }

func (m *memberCount) CountTier(context.Context, string) (int, error) { return m.n, nil }

func TestCreate(t *testing.T) {
	svc := campaign.NewService(newMemRepo())
	ctx := context.Background()

	c, err := svc.Create(ctx, campaign.CreateInput{Name: "  Founders wave 1 ", PhaseTag: domain.PhaseFounding, DailySendLimit: 200})
	require.NoError(t, err)
	assert.Equal(t, "Founders wave 1", c.Name)
	assert.Equal(t, domain.CampaignDraft, c.Status)
	assert.NotEmpty(t, c.ID)

	_, err = svc.Create(ctx, campaign.CreateInput{Name: ""})
	assert.ErrorIs(t, err, campaign.ErrNameRequired)

	_, err = svc.Create(ctx, campaign.CreateInput{Name: "x", PhaseTag: "vip"})
	assert.ErrorIs(t, err, campaign.ErrInvalidPhaseTag)
}

func TestLifecycle(t *testing.T) {
	svc := campaign.NewService(newMemRepo())
	ctx := context.Background()

	c, err := svc.Create(ctx, campaign.CreateInput{Name: "wave"})
	require.NoError(t, err)

	_, err = svc.Pause(ctx, c.ID)
	assert.ErrorIs(t, err, campaign.ErrInvalidTransition, "draft cannot be paused")

	c, err = svc.Activate(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignActive, c.Status)
	assert.NotNil(t, c.ActivatedAt)

	c, err = svc.Pause(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignPaused, c.Status)
	assert.Equal(t, domain.PausedByOperator, c.PausedBy)

	c, err = svc.Resume(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignActive, c.Status)
	assert.Empty(t, c.PausedBy)

	c, err = svc.Complete(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignCompleted, c.Status)

	_, err = svc.Activate(ctx, c.ID)
	assert.ErrorIs(t, err, campaign.ErrInvalidTransition)
}

func TestGet_NotFound(t *testing.T) {
	svc := campaign.NewService(newMemRepo())
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, campaign.ErrNotFound)
}

func TestPause_TakesOverGuardPause(t *testing.T) {
	repo := newMemRepo()
	svc := campaign.NewService(repo)
	members := &memberCount{n: 50}
	guard := phase.NewGuard(members, repo, 50, "founding")
	ctx := context.Background()

	c, err := svc.Create(ctx, campaign.CreateInput{Name: "founders", PhaseTag: domain.PhaseFounding})
	require.NoError(t, err)
	_, err = svc.Activate(ctx, c.ID)
	require.NoError(t, err)

	res, err := guard.Run(ctx)
	require.NoError(t, err)
	require.Len(t, res.Actions.Paused, 1)

	c, err = svc.Pause(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignPaused, c.Status)
	assert.Equal(t, domain.PausedByOperator, c.PausedBy)

	members.n = 10
	res, err = guard.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Actions.Activated, "operator pause is left alone")

	c, err = svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignPaused, c.Status)
	assert.Equal(t, domain.PausedByOperator, c.PausedBy)

	_, err = svc.Pause(ctx, c.ID)
	assert.ErrorIs(t, err, campaign.ErrInvalidTransition, "already paused by an operator")
}
