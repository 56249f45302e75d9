package engagement

import (
	"context"
	"errors"
	"fmt"

	"github.com/ignite/founders-outreach/internal/domain"
)

// WebhookResult summarizes one webhook delivery.
type WebhookResult struct {
	Received  int `json:"received"`
	Processed int `json:"processed"`
	Ignored   int `json:"ignored"`
	Failed    int `json:"failed"`
}

// ProcessWebhook applies a batch of provider events. Events are keyed by
// the recipient_id custom argument; events without one, or of a type the
// tracker does not handle (delivered, processed, deferred), are ignored.
// A failing event never stops the rest of the batch.
func (t *Tracker) ProcessWebhook(ctx context.Context, events []map[string]any) WebhookResult {
	res := WebhookResult{Received: len(events)}
	for _, ev := range events {
		name, _ := ev["event"].(string)
		et, ok := domain.ParseEventType(name)
		if !ok || et == domain.EventError {
			res.Ignored++
			continue
		}
		rid := customArg(ev, domain.ArgRecipientID)
		if rid == "" {
			res.Ignored++
			continue
		}

		err := t.record(ctx, rid, et, ev, domain.SourceWebhook)
		switch {
		case err == nil:
			res.Processed++
		case errors.Is(err, ErrRecipientNotFound):
			res.Ignored++
		default:
			res.Failed++
			t.log.Warn("webhook event failed", "recipient_id", rid, "event", name, "error", err)
		}
	}
	return res
}

// customArg reads a custom argument, which SendGrid flattens onto the
// event; unique_args is the legacy nesting.
func customArg(ev map[string]any, key string) string {
	if v, ok := ev[key]; ok {
		return fmt.Sprint(v)
	}
	if nested, ok := ev["unique_args"].(map[string]any); ok {
		if v, ok := nested[key]; ok {
			return fmt.Sprint(v)
		}
	}
	return ""
}
