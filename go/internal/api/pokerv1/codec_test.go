package pokerv1

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONCodecUsesRemoteFieldNames(t *testing.T) {
	vote := "8"
	p := &Participant{
		Id:        "u1",
		SessionId: "s1",
		Name:      "Alice",
		Vote:      &vote,
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := JSONCodec{}.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1","session_id":"s1","name":"Alice","vote":"8","created_at":"2025-01-02T03:04:05Z"}`, string(data))
}

func TestJSONCodecEmptyBody(t *testing.T) {
	var req CreateSessionRequest
	assert.NoError(t, JSONCodec{}.Unmarshal(nil, &req))
	assert.Equal(t, "json", JSONCodec{}.Name())
}
