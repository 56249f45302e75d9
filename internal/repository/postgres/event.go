package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ignite/founders-outreach/internal/domain"
)

// AppendEvent writes an engagement audit row. The detail map is stored as JSONB.
func (r *RecipientRepo) AppendEvent(ctx context.Context, ev *domain.EngagementEvent) error {
	detail := []byte("{}")
	if len(ev.Detail) > 0 {
		b, err := json.Marshal(ev.Detail)
		if err != nil {
			return fmt.Errorf("marshal event detail: %w", err)
		}
		detail = b
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO outreach_events (id, recipient_id, event_type, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`, ev.ID, ev.RecipientID, ev.EventType, detail, ev.OccurredAt)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}
