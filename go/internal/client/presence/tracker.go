// Package presence tracks which participants currently hold a live channel.
package presence

import (
	"sort"

	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/models"
	"github.com/mcdev12/scrumpoker/go/internal/realtime/events"
)

// Tracker holds the online set derived from the latest presence snapshot.
// Like the reconciler it is confined to the view's event goroutine.
type Tracker struct {
	online map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{online: make(map[string]struct{})}
}

// Sync replaces the online set with the distinct user ids of state
func (t *Tracker) Sync(state events.PresenceState) {
	t.online = state.UserIDs()
}

// IsOnline reports whether userID is in the online set
func (t *Tracker) IsOnline(userID string) bool {
	_, ok := t.online[userID]
	return ok
}

// Online returns the online user ids in sorted order
func (t *Tracker) Online() []string {
	out := make([]string, 0, len(t.online))
	for id := range t.online {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Entry is one row of the visible roster
type Entry struct {
	Participant models.Participant
	Online      bool
	IsViewer    bool
}

// Roster applies the display policy: a participant is listed when online or
// when it is the viewer; everyone else is hidden. Order is preserved.
func Roster(participants []models.Participant, tracker *Tracker, viewerID uuid.UUID) []Entry {
	entries := make([]Entry, 0, len(participants))
	for _, p := range participants {
		online := tracker.IsOnline(p.ID.String())
		viewer := p.ID == viewerID
		if !online && !viewer {
			continue
		}
		entries = append(entries, Entry{Participant: p, Online: online, IsViewer: viewer})
	}
	return entries
}
