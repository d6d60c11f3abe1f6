package events

import "time"

// PresenceMeta is one tracked presence of a client
type PresenceMeta struct {
	UserID   string    `json:"user_id"`
	Name     string    `json:"name"`
	Ref      string    `json:"presence_ref,omitempty"`
	OnlineAt time.Time `json:"online_at"`
}

// PresenceState maps a presence key to every meta tracked under it.
// One key may hold several metas when the same participant has several connections.
type PresenceState map[string][]PresenceMeta

// UserIDs returns every non-empty user id in the state, deduplicated
func (s PresenceState) UserIDs() map[string]struct{} {
	ids := make(map[string]struct{})
	for _, metas := range s {
		for _, m := range metas {
			if m.UserID == "" {
				continue
			}
			ids[m.UserID] = struct{}{}
		}
	}
	return ids
}
