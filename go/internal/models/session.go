package models

import (
	"time"

	"github.com/google/uuid"
)

// Session represents a shared estimation room.
type Session struct {
	ID            uuid.UUID `json:"id"`
	VotesRevealed bool      `json:"votes_revealed"`
	CreatedAt     time.Time `json:"created_at"`
}
