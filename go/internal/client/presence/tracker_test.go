package presence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/models"
	"github.com/mcdev12/scrumpoker/go/internal/realtime/events"
	"github.com/stretchr/testify/assert"
)

// Scenario E
func TestSyncDeduplicatesAcrossConnections(t *testing.T) {
	tr := NewTracker()
	tr.Sync(events.PresenceState{
		"conn1": {{UserID: "u1"}},
		"conn2": {{UserID: "u1"}},
	})

	assert.Equal(t, []string{"u1"}, tr.Online())
	assert.True(t, tr.IsOnline("u1"))
}

func TestSyncIsIdempotentAndFull(t *testing.T) {
	state := events.PresenceState{
		"a": {{UserID: "u1"}, {UserID: "u2"}},
		"b": {{UserID: ""}},
	}

	tr := NewTracker()
	tr.Sync(state)
	first := tr.Online()
	tr.Sync(state)
	assert.Equal(t, first, tr.Online())
	assert.Equal(t, []string{"u1", "u2"}, first)

	// A later snapshot replaces rather than merges
	tr.Sync(events.PresenceState{"b": {{UserID: "u3"}}})
	assert.Equal(t, []string{"u3"}, tr.Online())
	assert.False(t, tr.IsOnline("u1"))

	tr.Sync(nil)
	assert.Empty(t, tr.Online())
}

func TestRosterDisplayPolicy(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	alice := models.Participant{ID: uuid.New(), Name: "Alice", CreatedAt: base}
	bob := models.Participant{ID: uuid.New(), Name: "Bob", CreatedAt: base.Add(time.Minute)}
	carol := models.Participant{ID: uuid.New(), Name: "Carol", CreatedAt: base.Add(2 * time.Minute)}

	tr := NewTracker()
	tr.Sync(events.PresenceState{"k": {{UserID: carol.ID.String()}}})

	// Bob is the viewer and offline (reconnect gap); Alice is offline and hidden
	roster := Roster([]models.Participant{alice, bob, carol}, tr, bob.ID)
	if assert.Len(t, roster, 2) {
		assert.Equal(t, "Bob", roster[0].Participant.Name)
		assert.True(t, roster[0].IsViewer)
		assert.False(t, roster[0].Online)

		assert.Equal(t, "Carol", roster[1].Participant.Name)
		assert.True(t, roster[1].Online)
		assert.False(t, roster[1].IsViewer)
	}
}
