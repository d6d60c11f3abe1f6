package gateway

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/scrumpoker/go/internal/realtime/events"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMsg struct {
	jetstream.Msg
	data          []byte
	acked, termed bool
}

func (m *fakeMsg) Data() []byte    { return m.data }
func (m *fakeMsg) Subject() string { return "poker.changes.test" }
func (m *fakeMsg) Ack() error      { m.acked = true; return nil }
func (m *fakeMsg) Term() error     { m.termed = true; return nil }

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []events.ChangeEvent
}

func (b *recordingBroadcaster) BroadcastChange(event events.ChangeEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func TestHandleMessageBroadcastsAndAcks(t *testing.T) {
	b := &recordingBroadcaster{}
	ec := &EventConsumer{broadcaster: b}

	event := events.ChangeEvent{
		ID:        uuid.New(),
		Table:     events.TableUsers,
		EventType: events.EventDelete,
		SessionID: uuid.New(),
		Old:       json.RawMessage(`{"id":"x","name":"Bob"}`),
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)

	msg := &fakeMsg{data: data}
	ec.handleMessage(msg)

	assert.True(t, msg.acked)
	assert.False(t, msg.termed)
	require.Len(t, b.events, 1)
	assert.Equal(t, event.ID, b.events[0].ID)
	assert.Equal(t, event.SessionID, b.events[0].SessionID)
}

func TestHandleMessageTerminatesUndecodable(t *testing.T) {
	for _, data := range []string{`{broken`, `{"id":"` + uuid.NewString() + `","table":"users"}`} {
		b := &recordingBroadcaster{}
		ec := &EventConsumer{broadcaster: b}

		msg := &fakeMsg{data: []byte(data)}
		ec.handleMessage(msg)

		assert.True(t, msg.termed, data)
		assert.False(t, msg.acked, data)
		assert.Empty(t, b.events, data)
	}
}
