package domain

import (
	"time"
)

// CampaignStatus enumerates the lifecycle states of an outreach campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

// PauseCause records who paused a campaign. Only campaigns paused by the
// phase guard are ever resumed automatically.
type PauseCause string

const (
	PausedByPhaseGuard PauseCause = "phase_guard"
	PausedByOperator   PauseCause = "operator"
)

// Campaign is a named outreach effort with aggregate engagement counters.
type Campaign struct {
	ID             string         `json:"id" db:"id"`
	Name           string         `json:"name" db:"name"`
	Status         CampaignStatus `json:"status" db:"status"`
	PhaseTag       Phase          `json:"phase_tag,omitempty" db:"phase_tag"`
	PausedBy       PauseCause     `json:"paused_by,omitempty" db:"paused_by"`
	DailySendLimit int            `json:"daily_send_limit" db:"daily_send_limit"`

	TotalRecipients int `json:"total_recipients" db:"total_recipients"`
	TotalSent       int `json:"total_sent" db:"total_sent"`
	TotalOpened     int `json:"total_opened" db:"total_opened"`
	TotalClicked    int `json:"total_clicked" db:"total_clicked"`
	TotalConverted  int `json:"total_converted" db:"total_converted"`

	ActivatedAt *time.Time `json:"activated_at" db:"activated_at"`
	PausedAt    *time.Time `json:"paused_at" db:"paused_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// CanTransition reports whether a campaign may move from its current status
// to next. Allowed: draft->active, active<->paused, active->completed.
func (c *Campaign) CanTransition(next CampaignStatus) bool {
	switch c.Status {
	case CampaignDraft:
		return next == CampaignActive
	case CampaignActive:
		return next == CampaignPaused || next == CampaignCompleted
	case CampaignPaused:
		return next == CampaignActive
	}
	return false
}

// CampaignRef is the id/name pair reported for campaigns acted upon.
type CampaignRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
