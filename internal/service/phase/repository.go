package phase

import (
	"context"
	"time"

	"github.com/ignite/founders-outreach/internal/domain"
)

// MemberCounter is the capacity-tier counter source.
type MemberCounter interface {
	CountTier(ctx context.Context, tier string) (int, error)
}

// CampaignStore is the campaign subset the guard writes through.
type CampaignStore interface {
	// ListForPhase returns up to limit campaigns with the given tag and
	// status whose id sorts after afterID, ordered by id; a non-empty
	// pausedBy restricts the result to that pause cause.
	ListForPhase(ctx context.Context, tag domain.Phase, status domain.CampaignStatus, pausedBy domain.PauseCause, afterID string, limit int) ([]domain.CampaignRef, error)

	// PauseForPhase pauses an active campaign. False means it was not active.
	PauseForPhase(ctx context.Context, id string, at time.Time) (bool, error)

	// ResumeFromPhase reactivates a guard-paused campaign. False means it was
	// not paused by the guard.
	ResumeFromPhase(ctx context.Context, id string, at time.Time) (bool, error)
}
