package changefeed

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/realtime/events"
)

// OutboxRecord is one row of change_outbox
type OutboxRecord struct {
	ID        uuid.UUID       `json:"id"`
	SessionID uuid.UUID       `json:"session_id"`
	TableName string          `json:"table_name"`
	EventType string          `json:"event_type"`
	NewRecord json.RawMessage `json:"new_record,omitempty"`
	OldRecord json.RawMessage `json:"old_record,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}

// ChangeEvent converts the outbox row to the event delivered to subscribers.
// The outbox id doubles as the event id so redeliveries can be deduplicated.
func (r OutboxRecord) ChangeEvent() events.ChangeEvent {
	return events.ChangeEvent{
		ID:              r.ID,
		Table:           r.TableName,
		EventType:       events.EventType(r.EventType),
		SessionID:       r.SessionID,
		CommitTimestamp: r.CreatedAt,
		New:             r.NewRecord,
		Old:             r.OldRecord,
	}
}
