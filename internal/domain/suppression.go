package domain

import "time"

// SuppressionReason enumerates why an email was suppressed.
type SuppressionReason string

const (
	ReasonUnsubscribed SuppressionReason = "unsubscribed"
	ReasonBounced      SuppressionReason = "bounced"
	ReasonSpamReport   SuppressionReason = "spam_report"
	ReasonDropped      SuppressionReason = "dropped"
)

// SuppressionSource indicates where the suppression signal originated.
type SuppressionSource string

const (
	SourceWebhook     SuppressionSource = "esp_webhook"
	SourceTracking    SuppressionSource = "tracking"
	SourceUnsubscribe SuppressionSource = "unsubscribe_page"
	SourceManual      SuppressionSource = "manual"
)

// Suppression is a single entry in the global suppression list. Presence
// blocks the address from every future upload, regardless of campaign.
type Suppression struct {
	Email      string            `json:"email" db:"email"`
	Reason     SuppressionReason `json:"reason" db:"reason"`
	Source     SuppressionSource `json:"source" db:"source"`
	RecordedAt time.Time         `json:"recorded_at" db:"recorded_at"`
}
