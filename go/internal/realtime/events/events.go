package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/models"
)

// Tables that emit change events
const (
	TableSessions = "sessions"
	TableUsers    = "users"
)

// EventType is the row operation that produced a change
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// ErrMalformedEvent is returned when a change payload cannot be decoded into a row
var ErrMalformedEvent = errors.New("malformed change event")

// ChangeEvent is a row-level change of a session or one of its participants.
// New is absent for DELETE, Old is absent for INSERT.
type ChangeEvent struct {
	ID              uuid.UUID       `json:"id"`
	Table           string          `json:"table"`
	EventType       EventType       `json:"eventType"`
	SessionID       uuid.UUID       `json:"session_id"`
	CommitTimestamp time.Time       `json:"commit_timestamp"`
	New             json.RawMessage `json:"new,omitempty"`
	Old             json.RawMessage `json:"old,omitempty"`
}

// Subject returns the bus subject the event is published on under prefix
func (e ChangeEvent) Subject(prefix string) string {
	return fmt.Sprintf("%s.%s", prefix, e.SessionID)
}

// DecodeSession decodes the new record of a sessions change
func (e ChangeEvent) DecodeSession() (*models.Session, error) {
	var s models.Session
	if err := decodeRecord(e.New, &s); err != nil {
		return nil, err
	}
	if s.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: session record without id", ErrMalformedEvent)
	}
	return &s, nil
}

// DecodeParticipant decodes the new record of a users change
func (e ChangeEvent) DecodeParticipant() (*models.Participant, error) {
	var p models.Participant
	if err := decodeRecord(e.New, &p); err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: participant record without id", ErrMalformedEvent)
	}
	return &p, nil
}

// OldParticipant is what a DELETE carries about the removed row. Name may be
// empty when the old record was truncated to its primary key.
type OldParticipant struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// DecodeOldParticipant decodes the old record of a users DELETE
func (e ChangeEvent) DecodeOldParticipant() (*OldParticipant, error) {
	var p OldParticipant
	if err := decodeRecord(e.Old, &p); err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: old record without id", ErrMalformedEvent)
	}
	return &p, nil
}

func decodeRecord(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("%w: missing record", ErrMalformedEvent)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return nil
}
