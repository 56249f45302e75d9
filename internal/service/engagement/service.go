package engagement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/founders-outreach/internal/domain"
	"github.com/ignite/founders-outreach/internal/pkg/logger"
)

// negativeRule maps a negative event onto its terminal status and
// suppression reason. global marks events that also opt the address out
// of every campaign.
type negativeRule struct {
	status domain.RecipientStatus
	reason domain.SuppressionReason
	global bool
}

var negativeRules = map[domain.EventType]negativeRule{
	domain.EventBounce:       {domain.RecipientBounced, domain.ReasonBounced, true},
	domain.EventDropped:      {domain.RecipientDropped, domain.ReasonDropped, false},
	domain.EventSpamReport:   {domain.RecipientSpamReport, domain.ReasonSpamReport, true},
	domain.EventUnsubscribed: {domain.RecipientUnsubscribed, domain.ReasonUnsubscribed, true},
}

// Tracker applies engagement events to recipients.
type Tracker struct {
	repo       Repository
	suppressor Suppressor
	now        func() time.Time
	log        *logger.Logger
}

// NewTracker creates an engagement tracker.
func NewTracker(repo Repository, suppressor Suppressor) *Tracker {
	return &Tracker{
		repo:       repo,
		suppressor: suppressor,
		now:        func() time.Time { return time.Now().UTC() },
		log:        logger.With("component", "engagement"),
	}
}

// RecordEvent records an event seen by the tracking endpoints.
func (t *Tracker) RecordEvent(ctx context.Context, recipientID string, et domain.EventType, detail map[string]any) error {
	return t.record(ctx, recipientID, et, detail, domain.SourceTracking)
}

// Unsubscribe records an unsubscribe from the unsubscribe page.
func (t *Tracker) Unsubscribe(ctx context.Context, recipientID string) error {
	return t.record(ctx, recipientID, domain.EventUnsubscribed, map[string]any{"via": "unsubscribe_page"}, domain.SourceUnsubscribe)
}

// UnsubscribeEmail opts an address out everywhere: the registry entry is
// written even if no recipient carries the address.
func (t *Tracker) UnsubscribeEmail(ctx context.Context, email string) error {
	if err := t.suppressor.Suppress(ctx, email, domain.ReasonUnsubscribed, domain.SourceUnsubscribe); err != nil {
		return err
	}
	if err := t.suppressor.Unsubscribe(ctx, email, domain.SourceUnsubscribe); err != nil {
		return err
	}
	ids, err := t.repo.RecipientIDsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup recipients by email: %w", err)
	}
	for _, id := range ids {
		if err := t.record(ctx, id, domain.EventUnsubscribed, map[string]any{"via": "unsubscribe_token"}, domain.SourceUnsubscribe); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tracker) record(ctx context.Context, recipientID string, et domain.EventType, detail map[string]any, source domain.SuppressionSource) error {
	if _, err := uuid.Parse(recipientID); err != nil {
		return ErrRecipientNotFound
	}
	r, err := t.repo.GetRecipient(ctx, recipientID)
	if err != nil {
		return err
	}

	now := t.now()
	if err := t.repo.AppendEvent(ctx, &domain.EngagementEvent{
		ID:          uuid.New().String(),
		RecipientID: r.ID,
		EventType:   et,
		Detail:      detail,
		OccurredAt:  now,
	}); err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	switch et {
	case domain.EventOpen:
		changed, err := t.repo.MarkOpened(ctx, r.ID, now)
		if err != nil {
			return fmt.Errorf("mark opened: %w", err)
		}
		if changed {
			t.log.Debug("first open", "recipient_id", r.ID, "campaign_id", r.CampaignID)
		}
		return nil

	case domain.EventClick:
		changed, err := t.repo.MarkClicked(ctx, r.ID, now)
		if err != nil {
			return fmt.Errorf("mark clicked: %w", err)
		}
		if changed {
			t.log.Debug("first click", "recipient_id", r.ID, "campaign_id", r.CampaignID)
		}
		return nil

	case domain.EventError:
		return nil
	}

	rule, ok := negativeRules[et]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, et)
	}
	if err := t.repo.MarkNegative(ctx, r.ID, rule.status, now); err != nil {
		return fmt.Errorf("mark %s: %w", rule.status, err)
	}
	if err := t.suppressor.Suppress(ctx, r.Email, rule.reason, source); err != nil {
		return err
	}
	if rule.global {
		if err := t.suppressor.Unsubscribe(ctx, r.Email, source); err != nil {
			return err
		}
	}
	t.log.Info("recipient suppressed", "recipient_id", r.ID, "status", string(rule.status), "email", r.Email)
	return nil
}
