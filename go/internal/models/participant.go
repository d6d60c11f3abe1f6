package models

import (
	"time"

	"github.com/google/uuid"
)

// Participant is one joined identity within a session (a row of the users table).
// One row exists per client/session pairing, not per person.
type Participant struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Name      string    `json:"name"`
	Vote      *string   `json:"vote"`
	CreatedAt time.Time `json:"created_at"`
}

// HasVoted reports whether the participant has picked a card.
func (p Participant) HasVoted() bool {
	return p.Vote != nil && *p.Vote != ""
}
