package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/ignite/founders-outreach/internal/domain"
)

// Sender delivers one rendered email. An error means the provider did not
// accept the message.
type Sender interface {
	Send(ctx context.Context, msg domain.OutboundEmail) (*domain.SendResult, error)
}

// ErrNotConfigured is returned by a sender missing its credentials.
var ErrNotConfigured = errors.New("mail provider not configured")

func validateOutbound(msg domain.OutboundEmail) error {
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	if msg.FromEmail == "" {
		return errors.New("from address is required")
	}
	if msg.Subject == "" {
		return errors.New("subject is required")
	}
	return nil
}
