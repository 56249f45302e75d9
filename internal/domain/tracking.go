package domain

import "time"

// EventType enumerates the engagement event types recorded in the audit log.
type EventType string

const (
	EventOpen         EventType = "open"
	EventClick        EventType = "click"
	EventBounce       EventType = "bounce"
	EventDropped      EventType = "dropped"
	EventSpamReport   EventType = "spamreport"
	EventUnsubscribed EventType = "unsubscribed"
	EventError        EventType = "error"
)

// ParseEventType maps a tracking or webhook event name onto an EventType.
// Provider aliases (e.g. "unsubscribe", "group_unsubscribe") are accepted.
func ParseEventType(s string) (EventType, bool) {
	switch s {
	case "open", "opened":
		return EventOpen, true
	case "click", "clicked":
		return EventClick, true
	case "bounce", "bounced":
		return EventBounce, true
	case "dropped":
		return EventDropped, true
	case "spamreport", "spam_report":
		return EventSpamReport, true
	case "unsubscribe", "unsubscribed", "group_unsubscribe":
		return EventUnsubscribed, true
	case "error":
		return EventError, true
	}
	return "", false
}

// EngagementEvent is an immutable audit record behind a recipient's status.
type EngagementEvent struct {
	ID          string         `json:"id"`
	RecipientID string         `json:"recipient_id"`
	EventType   EventType      `json:"event_type"`
	Detail      map[string]any `json:"detail,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
}
