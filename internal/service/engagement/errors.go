package engagement

import "errors"

// Sentinel errors for the engagement service layer.
var (
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrUnknownEvent      = errors.New("unknown event type")
)
