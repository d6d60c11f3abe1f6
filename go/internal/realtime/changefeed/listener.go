package changefeed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/mcdev12/scrumpoker/go/internal/realtime/events"
	"github.com/rs/zerolog/log"
)

type ListenerConfig struct {
	DatabaseURL      string        // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel    string        // Channel name to LISTEN on
	FallbackInterval time.Duration // How often to sweep for missed changes
	MaxRetries       int
	RetryDelay       time.Duration
	PingInterval     time.Duration
	BatchSize        int // Max rows fetched per sweep
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		DatabaseURL:      "",
		NotifyChannel:    "poker_changes",
		FallbackInterval: 30 * time.Second,
		MaxRetries:       5,
		RetryDelay:       200 * time.Millisecond,
		PingInterval:     90 * time.Second,
		BatchSize:        100,
	}
}

// Publisher delivers a change event to the bus
type Publisher interface {
	Publish(ctx context.Context, event events.ChangeEvent) error
}

// OutboxStore is what the listener needs from the outbox repository
type OutboxStore interface {
	FetchOutboxByID(ctx context.Context, id uuid.UUID) (*OutboxRecord, error)
	FetchUnsentOutbox(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkOutboxSent(ctx context.Context, id uuid.UUID) error
}

// Listener turns change_outbox notifications into published change events
type Listener struct {
	store     OutboxStore
	listener  *pq.Listener
	publisher Publisher
	clock     clockwork.Clock
	cfg       ListenerConfig

	mu            sync.Mutex
	running       bool
	published     uint64
	lastPublished time.Time
	// lagging is set while the outbox holds a row that failed to publish.
	// Notifications then defer to an oldest-first sweep.
	lagging bool
}

// ListenerStats is a point-in-time view of the listener's progress
type ListenerStats struct {
	Running       bool
	Published     uint64
	LastPublished time.Time
	Lagging       bool
}

func NewListener(store OutboxStore, publisher Publisher, cfg ListenerConfig) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for notifications")

	return &Listener{
		store:     store,
		listener:  l,
		publisher: publisher,
		clock:     clockwork.NewRealClock(),
		cfg:       cfg,
	}, nil
}

func (l *Listener) Start(ctx context.Context) error {
	log.Info().
		Str("channel", l.cfg.NotifyChannel).
		Dur("ping_interval", l.cfg.PingInterval).
		Dur("fallback_interval", l.cfg.FallbackInterval).
		Msg("listener started")

	l.setRunning(true)
	defer l.setRunning(false)

	// Catch up on anything written while no listener was running.
	if err := l.processUnsent(ctx); err != nil {
		log.Error().Err(err).Msg("failed to process unsent events")
	}

	pingTicker := l.clock.NewTicker(l.cfg.PingInterval)
	fallbackTicker := l.clock.NewTicker(l.cfg.FallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("listener shutting down")
			return l.Stop()
		case note := <-l.listener.Notify:
			if note == nil {
				// nil notification means the connection was re-established; notifications may have been missed
				if err := l.processUnsent(ctx); err != nil {
					log.Error().Err(err).Msg("failed to process unsent events")
				}
				continue
			}
			if err := l.handleNotification(ctx, note.Extra); err != nil {
				log.Error().Err(err).Msg("failed to handle notification")
			}
		case <-fallbackTicker.Chan():
			if err := l.processUnsent(ctx); err != nil {
				log.Error().Err(err).Msg("failed to process unsent events")
			}
		case <-pingTicker.Chan():
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

func (l *Listener) Stop() error {
	return l.listener.Close()
}

// Stats returns delivery counters for health reporting
func (l *Listener) Stats() ListenerStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ListenerStats{
		Running:       l.running,
		Published:     l.published,
		LastPublished: l.lastPublished,
		Lagging:       l.lagging,
	}
}

func (l *Listener) setRunning(running bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = running
}

func (l *Listener) setLagging(lagging bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lagging = lagging
}

func (l *Listener) isLagging() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lagging
}

func (l *Listener) recordPublished() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.published++
	l.lastPublished = l.clock.Now()
}

// handleNotification handles a pg notification whose payload is an outbox id.
// It fetches the row, publishes it and marks it sent. While an older row is
// still unsent it sweeps the outbox instead, so a row's changes never overtake
// each other on the bus.
func (l *Listener) handleNotification(ctx context.Context, extra string) error {
	id, err := uuid.Parse(extra)
	if err != nil {
		return fmt.Errorf("invalid event ID in notification: %w", err)
	}

	if l.isLagging() {
		log.Debug().Str("event_id", id.String()).Msg("outbox behind, sweeping instead of publishing")
		return l.processUnsent(ctx)
	}

	rec, err := l.store.FetchOutboxByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOutboxNotFound) {
			// Already delivered by the fallback sweep.
			log.Debug().Str("event_id", id.String()).Msg("outbox event already sent")
			return nil
		}
		return fmt.Errorf("failed to fetch outbox event: %w", err)
	}

	if err := l.deliver(ctx, *rec); err != nil {
		l.setLagging(true)
		return err
	}

	log.Info().
		Str("event_id", id.String()).
		Str("session_id", rec.SessionID.String()).
		Str("table", rec.TableName).
		Str("event_type", rec.EventType).
		Msg("published and marked change as sent")
	return nil
}

// processUnsent republishes unsent outbox rows in creation order
func (l *Listener) processUnsent(ctx context.Context) error {
	unsent, err := l.store.FetchUnsentOutbox(ctx, l.cfg.BatchSize)
	if err != nil {
		l.setLagging(true)
		return fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}

	for _, rec := range unsent {
		if err := l.deliver(ctx, rec); err != nil {
			log.Error().Err(err).Str("event_id", rec.ID.String()).Msg("failed to deliver outbox event")
			// Stop so later changes of the session are not published ahead of this one.
			l.setLagging(true)
			return nil
		}
	}

	// A full batch may mean more rows are waiting.
	l.setLagging(len(unsent) >= l.cfg.BatchSize)

	if len(unsent) > 0 {
		log.Info().Int("count", len(unsent)).Msg("delivered unsent changes")
	}
	return nil
}

func (l *Listener) deliver(ctx context.Context, rec OutboxRecord) error {
	if err := l.publishWithRetry(ctx, rec.ChangeEvent()); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if err := l.store.MarkOutboxSent(ctx, rec.ID); err != nil {
		return err
	}
	l.recordPublished()
	return nil
}

// publishWithRetry attempts to publish with a linearly growing delay between attempts
func (l *Listener) publishWithRetry(ctx context.Context, event events.ChangeEvent) error {
	var lastErr error

	for attempt := 0; attempt <= l.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := l.cfg.RetryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.clock.After(delay):
			}
		}

		if err := l.publisher.Publish(ctx, event); err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("failed to publish, retrying")
			continue
		}

		if attempt > 0 {
			log.Info().
				Int("attempt", attempt+1).
				Str("event_id", event.ID.String()).
				Msg("publish succeeded after retry")
		}
		return nil
	}

	return fmt.Errorf("publish failed after %d attempts: %w", l.cfg.MaxRetries+1, lastErr)
}
