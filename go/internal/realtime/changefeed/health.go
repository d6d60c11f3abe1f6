package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// HealthStatus summarises the change feed for health checks
type HealthStatus struct {
	Healthy           bool      `json:"healthy"`
	EventsPublished   uint64    `json:"events_published"`
	LastPublished     time.Time `json:"last_published"`
	PendingEvents     int       `json:"pending_events"`
	DatabaseConnected bool      `json:"database_connected"`
	NATSConnected     bool      `json:"nats_connected"`
	ListenerActive    bool      `json:"listener_active"`
	Errors            []string  `json:"errors"`
}

// OutboxHealth is the read-only side of the outbox used by health checks
type OutboxHealth interface {
	Ping(ctx context.Context) error
	CountUnsent(ctx context.Context) (int, error)
}

// ListenerHealth reports listener progress
type ListenerHealth interface {
	Stats() ListenerStats
}

// ConnectionHealth reports the bus connection state
type ConnectionHealth interface {
	Connected() bool
}

// HealthChecker reports whether changes are flowing from the outbox to the bus
type HealthChecker struct {
	outbox   OutboxHealth
	listener ListenerHealth
	bus      ConnectionHealth
	clock    clockwork.Clock

	// Threshold is how long pending rows may sit without a publish
	Threshold time.Duration
	// PendingAlert flags a backlog without marking the feed unhealthy
	PendingAlert int
}

func NewHealthChecker(outbox OutboxHealth, listener ListenerHealth, bus ConnectionHealth, clock clockwork.Clock) *HealthChecker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &HealthChecker{
		outbox:       outbox,
		listener:     listener,
		bus:          bus,
		clock:        clock,
		Threshold:    5 * time.Minute,
		PendingAlert: 1000,
	}
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy: true,
		Errors:  []string{},
	}

	stats := h.listener.Stats()
	status.EventsPublished = stats.Published
	status.LastPublished = stats.LastPublished
	status.ListenerActive = stats.Running
	if !status.ListenerActive {
		status.Healthy = false
		status.Errors = append(status.Errors, "listener not active")
	}

	if err := h.outbox.Ping(ctx); err != nil {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
	} else {
		status.DatabaseConnected = true
	}

	if h.bus != nil {
		status.NATSConnected = h.bus.Connected()
		if !status.NATSConnected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	if status.DatabaseConnected {
		pending, err := h.outbox.CountUnsent(ctx)
		if err != nil {
			status.Errors = append(status.Errors, fmt.Sprintf("failed to count pending events: %v", err))
		} else {
			status.PendingEvents = pending
			if pending > h.PendingAlert {
				status.Errors = append(status.Errors, fmt.Sprintf("high pending event count: %d", pending))
			}
		}
	}

	// Pending rows and nothing published for a while means delivery is stuck
	if status.PendingEvents > 0 && !status.LastPublished.IsZero() {
		since := h.clock.Since(status.LastPublished)
		if since > h.Threshold {
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("no events published for %s", since))
		}
	}

	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to write health response")
	}
}
