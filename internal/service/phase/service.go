package phase

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/founders-outreach/internal/domain"
	"github.com/ignite/founders-outreach/internal/pkg/logger"
)

// Actions lists the campaigns a run acted upon.
type Actions struct {
	Paused    []domain.CampaignRef `json:"paused"`
	Activated []domain.CampaignRef `json:"activated"`
}

// Result is the outcome of one guard run.
type Result struct {
	Phase    domain.Phase    `json:"phase"`
	Founders domain.Capacity `json:"founders"`
	Actions  Actions         `json:"actions"`
}

// PageSize is how many campaigns the guard reads per query.
const PageSize = 200

// Guard recomputes the capacity phase and gates founding campaigns.
type Guard struct {
	members   MemberCounter
	campaigns CampaignStore
	cap       int
	tier      string
	pageSize  int
	now       func() time.Time
	log       *logger.Logger
}

// NewGuard creates a phase guard for the given cap and member tier.
func NewGuard(members MemberCounter, campaigns CampaignStore, cap int, tier string) *Guard {
	return &Guard{
		members:   members,
		campaigns: campaigns,
		cap:       cap,
		tier:      tier,
		pageSize:  PageSize,
		now:       func() time.Time { return time.Now().UTC() },
		log:       logger.With("component", "phase_guard"),
	}
}

// Status computes the current phase without touching any campaign.
func (g *Guard) Status(ctx context.Context) (domain.Phase, domain.Capacity, error) {
	total, err := g.members.CountTier(ctx, g.tier)
	if err != nil {
		return "", domain.Capacity{}, fmt.Errorf("%w: %v", ErrCountUnavailable, err)
	}
	p, c := domain.PhaseFor(total, g.cap)
	return p, c, nil
}

// Run computes the phase and applies it. Only a failed member count is an
// error; a failed campaign write is logged and skipped.
func (g *Guard) Run(ctx context.Context) (*Result, error) {
	p, capacity, err := g.Status(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Phase:    p,
		Founders: capacity,
		Actions:  Actions{Paused: []domain.CampaignRef{}, Activated: []domain.CampaignRef{}},
	}
	now := g.now()

	if p == domain.PhaseStandard {
		err = g.eachPage(ctx, domain.CampaignActive, "", func(c domain.CampaignRef) {
			ok, err := g.campaigns.PauseForPhase(ctx, c.ID, now)
			if err != nil {
				g.log.Error("pause campaign failed", "campaign_id", c.ID, "error", err)
				return
			}
			if ok {
				res.Actions.Paused = append(res.Actions.Paused, c)
			}
		})
		if err != nil {
			g.log.Error("list active founding campaigns failed", "error", err)
		}
	} else {
		err = g.eachPage(ctx, domain.CampaignPaused, domain.PausedByPhaseGuard, func(c domain.CampaignRef) {
			ok, err := g.campaigns.ResumeFromPhase(ctx, c.ID, now)
			if err != nil {
				g.log.Error("resume campaign failed", "campaign_id", c.ID, "error", err)
				return
			}
			if ok {
				res.Actions.Activated = append(res.Actions.Activated, c)
			}
		})
		if err != nil {
			g.log.Error("list guard-paused campaigns failed", "error", err)
		}
	}

	if len(res.Actions.Paused) > 0 || len(res.Actions.Activated) > 0 {
		g.log.Info("phase guard acted",
			"phase", string(p), "total", capacity.Total, "cap", capacity.Cap,
			"paused", len(res.Actions.Paused), "activated", len(res.Actions.Activated))
	}
	return res, nil
}

// eachPage walks founding campaigns in the given state one page at a time.
// Keyset paging by id keeps the walk finite while fn moves campaigns out of
// the listed state.
func (g *Guard) eachPage(ctx context.Context, status domain.CampaignStatus, pausedBy domain.PauseCause, fn func(domain.CampaignRef)) error {
	after := ""
	for {
		page, err := g.campaigns.ListForPhase(ctx, domain.PhaseFounding, status, pausedBy, after, g.pageSize)
		if err != nil {
			return err
		}
		for _, c := range page {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fn(c)
		}
		if len(page) < g.pageSize {
			return nil
		}
		after = page[len(page)-1].ID
	}
}
