package gateway

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/realtime/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceRegistrySameKeyTwoConnections(t *testing.T) {
	r := NewPresenceRegistry()
	sessionID := uuid.New()
	now := time.Now()

	r.Track(sessionID, "p1", events.PresenceMeta{UserID: "p1", Name: "Alice", Ref: "c1", OnlineAt: now})
	r.Track(sessionID, "p1", events.PresenceMeta{UserID: "p1", Name: "Alice", Ref: "c2", OnlineAt: now})

	state := r.Snapshot(sessionID)
	require.Len(t, state, 1)
	assert.Len(t, state["p1"], 2)

	assert.True(t, r.Untrack(sessionID, "p1", "c1"))
	state = r.Snapshot(sessionID)
	require.Len(t, state["p1"], 1)
	assert.Equal(t, "c2", state["p1"][0].Ref)
}

func TestPresenceRegistryTrackReplacesSameRef(t *testing.T) {
	r := NewPresenceRegistry()
	sessionID := uuid.New()

	r.Track(sessionID, "p1", events.PresenceMeta{UserID: "p1", Name: "Al", Ref: "c1"})
	r.Track(sessionID, "p1", events.PresenceMeta{UserID: "p1", Name: "Alice", Ref: "c1"})

	state := r.Snapshot(sessionID)
	require.Len(t, state["p1"], 1)
	assert.Equal(t, "Alice", state["p1"][0].Name)
	assert.Equal(t, 1, r.Count())
}

func TestPresenceRegistryUntrackUnknown(t *testing.T) {
	r := NewPresenceRegistry()
	sessionID := uuid.New()

	assert.False(t, r.Untrack(sessionID, "p1", "c1"))

	r.Track(sessionID, "p1", events.PresenceMeta{UserID: "p1", Ref: "c1"})
	assert.False(t, r.Untrack(sessionID, "p1", "c9"))
	assert.True(t, r.Untrack(sessionID, "p1", "c1"))
	assert.False(t, r.Untrack(sessionID, "p1", "c1"))
	assert.Empty(t, r.Snapshot(sessionID))
	assert.Equal(t, 0, r.Count())
}

func TestPresenceRegistrySnapshotIsolation(t *testing.T) {
	r := NewPresenceRegistry()
	a, b := uuid.New(), uuid.New()

	r.Track(a, "p1", events.PresenceMeta{UserID: "p1", Ref: "c1"})
	r.Track(b, "p2", events.PresenceMeta{UserID: "p2", Ref: "c2"})

	snap := r.Snapshot(a)
	assert.Equal(t, snap, r.Snapshot(a))
	assert.NotContains(t, snap, "p2")

	snap["p1"][0].Name = "mutated"
	assert.Empty(t, r.Snapshot(a)["p1"][0].Name)
}
