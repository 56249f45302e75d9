package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/ignite/founders-outreach/internal/domain"
	"github.com/ignite/founders-outreach/internal/pkg/logger"
)

const sendPath = "/v3/mail/send"

// SendGridSender sends through the SendGrid v3 Mail Send API. Custom
// arguments ride on the personalization so the event webhook echoes them
// back on every event.
type SendGridSender struct {
	apiKey  string
	host    string
	timeout time.Duration
}

// NewSendGridSender creates a SendGrid sender. host overrides the API
// origin and is empty in production.
func NewSendGridSender(apiKey, host string, timeout time.Duration) *SendGridSender {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SendGridSender{apiKey: apiKey, host: host, timeout: timeout}
}

func (s *SendGridSender) client() *sendgrid.Client {
	if s.host == "" {
		return sendgrid.NewSendClient(s.apiKey)
	}
	req := sendgrid.GetRequest(s.apiKey, sendPath, s.host)
	req.Method = "POST"
	return &sendgrid.Client{Request: req}
}

// Send delivers a single email through SendGrid.
func (s *SendGridSender) Send(ctx context.Context, msg domain.OutboundEmail) (*domain.SendResult, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("sendgrid: %w", ErrNotConfigured)
	}
	if err := validateOutbound(msg); err != nil {
		return nil, err
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail(msg.FromName, msg.FromEmail))
	m.Subject = msg.Subject
	if msg.ReplyTo != "" {
		m.SetReplyTo(sgmail.NewEmail("", msg.ReplyTo))
	}
	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.To))
	for k, v := range msg.CustomArgs {
		p.SetCustomArg(k, v)
	}
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/html", msg.HTML))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client().SendWithContext(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("sendgrid error %d: %s", resp.StatusCode, resp.Body)
	}

	messageID := ""
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}
	if messageID == "" {
		messageID = uuid.New().String()
	}

	logger.Debug("sendgrid accepted", "to", logger.RedactEmail(msg.To), "message_id", messageID)
	return &domain.SendResult{MessageID: messageID, Provider: "sendgrid", SentAt: time.Now().UTC()}, nil
}
