package gateway

import (
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/realtime/events"
)

// PresenceRegistry holds the ephemeral presence state of every session.
// Metas are identified by their presence_ref, which is the id of the connection that tracked them.
type PresenceRegistry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[string][]events.PresenceMeta
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		sessions: make(map[uuid.UUID]map[string][]events.PresenceMeta),
	}
}

// Track stores meta under key, replacing a previous meta with the same ref
func (r *PresenceRegistry) Track(sessionID uuid.UUID, key string, meta events.PresenceMeta) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys, ok := r.sessions[sessionID]
	if !ok {
		keys = make(map[string][]events.PresenceMeta)
		r.sessions[sessionID] = keys
	}

	metas := keys[key]
	for i := range metas {
		if metas[i].Ref == meta.Ref {
			metas[i] = meta
			return
		}
	}
	keys[key] = append(metas, meta)
}

// Untrack removes the meta with ref from key and reports whether anything was removed
func (r *PresenceRegistry) Untrack(sessionID uuid.UUID, key, ref string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys, ok := r.sessions[sessionID]
	if !ok {
		return false
	}

	metas := keys[key]
	for i := range metas {
		if metas[i].Ref != ref {
			continue
		}

		metas = append(metas[:i], metas[i+1:]...)
		if len(metas) == 0 {
			delete(keys, key)
		} else {
			keys[key] = metas
		}
		if len(keys) == 0 {
			delete(r.sessions, sessionID)
		}
		return true
	}
	return false
}

// Snapshot returns a copy of the presence state of a session
func (r *PresenceRegistry) Snapshot(sessionID uuid.UUID) events.PresenceState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state := make(events.PresenceState, len(r.sessions[sessionID]))
	for key, metas := range r.sessions[sessionID] {
		state[key] = append([]events.PresenceMeta(nil), metas...)
	}
	return state
}

// Count returns the number of tracked metas across all sessions
func (r *PresenceRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, keys := range r.sessions {
		for _, metas := range keys {
			n += len(metas)
		}
	}
	return n
}
