package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutbox struct {
	pingErr  error
	pending  int
	countErr error
}

func (f *fakeOutbox) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeOutbox) CountUnsent(ctx context.Context) (int, error) { return f.pending, f.countErr }

type fakeListener struct{ stats ListenerStats }

func (f *fakeListener) Stats() ListenerStats { return f.stats }

type fakeBus bool

func (f fakeBus) Connected() bool { return bool(f) }

var healthNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func TestHealthCheckHealthy(t *testing.T) {
	clock := clockwork.NewFakeClockAt(healthNow)
	listener := &fakeListener{stats: ListenerStats{Running: true, Published: 7, LastPublished: healthNow.Add(-time.Second)}}
	h := NewHealthChecker(&fakeOutbox{pending: 2}, listener, fakeBus(true), clock)

	status := h.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.EqualValues(t, 7, status.EventsPublished)
	assert.Equal(t, 2, status.PendingEvents)
	assert.True(t, status.DatabaseConnected)
	assert.True(t, status.NATSConnected)
	assert.Empty(t, status.Errors)
}

func TestHealthCheckFailures(t *testing.T) {
	clock := clockwork.NewFakeClockAt(healthNow)

	t.Run("listener stopped", func(t *testing.T) {
		h := NewHealthChecker(&fakeOutbox{}, &fakeListener{}, fakeBus(true), clock)
		status := h.Check(context.Background())
		assert.False(t, status.Healthy)
		assert.Contains(t, status.Errors, "listener not active")
	})

	t.Run("database down", func(t *testing.T) {
		h := NewHealthChecker(&fakeOutbox{pingErr: errors.New("refused")}, &fakeListener{stats: ListenerStats{Running: true}}, fakeBus(true), clock)
		status := h.Check(context.Background())
		assert.False(t, status.Healthy)
		assert.False(t, status.DatabaseConnected)
		assert.Zero(t, status.PendingEvents)
	})

	t.Run("nats down", func(t *testing.T) {
		h := NewHealthChecker(&fakeOutbox{}, &fakeListener{stats: ListenerStats{Running: true}}, fakeBus(false), clock)
		status := h.Check(context.Background())
		assert.False(t, status.Healthy)
		assert.Contains(t, status.Errors, "NATS disconnected")
	})

	t.Run("stuck delivery", func(t *testing.T) {
		listener := &fakeListener{stats: ListenerStats{Running: true, Published: 1, LastPublished: healthNow.Add(-time.Hour)}}
		h := NewHealthChecker(&fakeOutbox{pending: 3}, listener, fakeBus(true), clock)
		status := h.Check(context.Background())
		assert.False(t, status.Healthy)
		require.Len(t, status.Errors, 1)
	})

	t.Run("backlog is only flagged", func(t *testing.T) {
		listener := &fakeListener{stats: ListenerStats{Running: true, LastPublished: healthNow}}
		h := NewHealthChecker(&fakeOutbox{pending: 5000}, listener, fakeBus(true), clock)
		status := h.Check(context.Background())
		assert.True(t, status.Healthy)
		assert.Len(t, status.Errors, 1)
	})
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthChecker(&fakeOutbox{}, &fakeListener{}, nil, clockwork.NewFakeClockAt(healthNow))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var status HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.False(t, status.ListenerActive)
}
