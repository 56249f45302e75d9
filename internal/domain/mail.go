package domain

import "time"

// OutboundEmail is the fully rendered message handed to a mail provider.
// CustomArgs must round-trip to the provider's webhook so events can be
// correlated back to a recipient.
type OutboundEmail struct {
	To         string            `json:"to"`
	ToName     string            `json:"to_name"`
	FromEmail  string            `json:"from_email"`
	FromName   string            `json:"from_name"`
	ReplyTo    string            `json:"reply_to"`
	Subject    string            `json:"subject"`
	HTML       string            `json:"html"`
	CustomArgs map[string]string `json:"custom_args"`
}

// SendResult is returned by a mail provider after an accepted send.
type SendResult struct {
	MessageID string    `json:"message_id"`
	Provider  string    `json:"provider"`
	SentAt    time.Time `json:"sent_at"`
}

// Custom argument keys carried on every outbound email.
const (
	ArgRecipientID = "recipient_id"
	ArgCampaignID  = "campaign_id"
)
