package events

// MessageType identifies a frame on the realtime websocket
type MessageType string

const (
	// Server -> client
	TypeSubscribed      MessageType = "subscribed"
	TypePresenceSync    MessageType = "presence_sync"
	TypePostgresChanges MessageType = "postgres_changes"
	TypeError           MessageType = "error"

	// Client -> server
	TypeTrack   MessageType = "track"
	TypeUntrack MessageType = "untrack"
)

// Message is the single envelope used in both directions on the realtime websocket
type Message struct {
	Type     MessageType   `json:"type"`
	Change   *ChangeEvent  `json:"change,omitempty"`
	Presence PresenceState `json:"presence,omitempty"`
	Meta     *PresenceMeta `json:"meta,omitempty"`
	Error    string        `json:"error,omitempty"`
}
