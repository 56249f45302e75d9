package domain

import "time"

// RecipientStatus enumerates the states a recipient can be in.
type RecipientStatus string

const (
	RecipientQueued       RecipientStatus = "queued"
	RecipientSent         RecipientStatus = "sent"
	RecipientOpened       RecipientStatus = "opened"
	RecipientClicked      RecipientStatus = "clicked"
	RecipientResend       RecipientStatus = "resend"
	RecipientBounced      RecipientStatus = "bounced"
	RecipientDropped      RecipientStatus = "dropped"
	RecipientSpamReport   RecipientStatus = "spamreport"
	RecipientUnsubscribed RecipientStatus = "unsubscribed"
	RecipientFailed       RecipientStatus = "failed"
	RecipientCompleted    RecipientStatus = "completed"
)

// DefaultPersona is the content persona used when a row carries none, and
// the fallback when a persona has no template for a stage.
const DefaultPersona = "general"

// IsNegativeTerminal reports whether the status blocks all further mail and
// may not be overwritten by a positive engagement event.
func (s RecipientStatus) IsNegativeTerminal() bool {
	switch s {
	case RecipientBounced, RecipientDropped, RecipientSpamReport, RecipientUnsubscribed:
		return true
	}
	return false
}

// InSequence reports whether the drip scheduler may still send to a
// recipient in this status.
func (s RecipientStatus) InSequence() bool {
	switch s {
	case RecipientQueued, RecipientSent, RecipientOpened, RecipientClicked, RecipientResend:
		return true
	}
	return false
}

// Recipient is one addressee within exactly one campaign.
type Recipient struct {
	ID            string          `json:"id" db:"id"`
	CampaignID    string          `json:"campaign_id" db:"campaign_id"`
	Email         string          `json:"email" db:"email"`
	Name          string          `json:"name" db:"name"`
	Company       string          `json:"company" db:"company"`
	Title         string          `json:"title" db:"title"`
	Persona       string          `json:"persona" db:"persona"`
	InviteCode    string          `json:"invite_code" db:"invite_code"`
	Status        RecipientStatus `json:"status" db:"status"`
	SequenceStage int             `json:"sequence_stage" db:"sequence_stage"`
	NextSendAt    *time.Time      `json:"next_send_at" db:"next_send_at"`

	LastSentAt     *time.Time `json:"last_sent_at" db:"last_sent_at"`
	OpenedAt       *time.Time `json:"opened_at" db:"opened_at"`
	ClickedAt      *time.Time `json:"clicked_at" db:"clicked_at"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at" db:"unsubscribed_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// RecipientRow is one raw row of a bulk upload before normalization.
type RecipientRow struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Company    string `json:"company"`
	Title      string `json:"title"`
	Persona    string `json:"persona"`
	InviteCode string `json:"invite_code"`
}
