// Package rtclient is the client side of the realtime gateway: one websocket
// per session view that delivers change and presence frames and reconnects
// when the gateway goes away.
package rtclient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/scrumpoker/go/internal/realtime/events"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNotConnected is returned by Track while the channel is reconnecting
	ErrNotConnected = errors.New("channel not connected")

	// ErrClosed is returned by Track after Close
	ErrClosed = errors.New("channel closed")
)

// Config holds the channel settings
type Config struct {
	// URL of the gateway websocket endpoint, e.g. ws://localhost:8081/realtime/v1/websocket
	URL         string
	SessionID   uuid.UUID
	PresenceKey string

	WriteTimeout      time.Duration
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	BufferSize        int
}

// DefaultConfig returns a config for one session channel
func DefaultConfig(gatewayURL string, sessionID uuid.UUID, presenceKey string) Config {
	return Config{
		URL:               gatewayURL,
		SessionID:         sessionID,
		PresenceKey:       presenceKey,
		WriteTimeout:      10 * time.Second,
		ReconnectDelay:    time.Second,
		MaxReconnectDelay: 30 * time.Second,
		BufferSize:        256,
	}
}

// Option configures a Channel
type Option func(*Channel)

// WithLogger replaces the global logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Channel) {
		c.logger = logger
	}
}

// WithClock sets the clock used for reconnect delays
func WithClock(clock clockwork.Clock) Option {
	return func(c *Channel) {
		c.clock = clock
	}
}

// WithDialer replaces websocket.DefaultDialer
func WithDialer(dialer *websocket.Dialer) Option {
	return func(c *Channel) {
		c.dialer = dialer
	}
}

// Channel is a reconnecting subscription to one session. Every successful
// (re)connect is announced by a subscribed frame from the gateway.
type Channel struct {
	cfg    Config
	url    string
	dialer *websocket.Dialer
	clock  clockwork.Clock
	logger zerolog.Logger

	msgs chan events.Message

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Dial connects to the gateway. The first connection must succeed; later
// drops are retried with linear backoff until Close.
func Dial(ctx context.Context, cfg Config, opts ...Option) (*Channel, error) {
	endpoint, err := channelURL(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}

	c := &Channel{
		cfg:    cfg,
		url:    endpoint,
		dialer: websocket.DefaultDialer,
		clock:  clockwork.NewRealClock(),
		logger: log.Logger,
		msgs:   make(chan events.Message, cfg.BufferSize),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().
		Str("session_id", cfg.SessionID.String()).
		Str("presence_key", cfg.PresenceKey).
		Logger()

	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())
	go c.run(conn)

	return c, nil
}

func channelURL(cfg Config) (string, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return "", fmt.Errorf("invalid gateway url: %w", err)
	}
	q := u.Query()
	q.Set("session_id", cfg.SessionID.String())
	if cfg.PresenceKey != "" {
		q.Set("presence_key", cfg.PresenceKey)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Messages delivers every frame in arrival order. It is closed after Close.
func (c *Channel) Messages() <-chan events.Message {
	return c.msgs
}

// Track announces the viewer's presence on the current connection. It has
// to be repeated after every subscribed frame.
func (c *Channel) Track(meta events.PresenceMeta) error {
	return c.write(events.Message{Type: events.TypeTrack, Meta: &meta})
}

// Untrack withdraws the viewer's presence
func (c *Channel) Untrack() error {
	return c.write(events.Message{Type: events.TypeUntrack})
}

func (c *Channel) write(msg events.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.conn == nil {
		return ErrNotConnected
	}

	if c.cfg.WriteTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to send %s: %w", msg.Type, err)
	}
	return nil
}

// Close stops delivery, closes the websocket and waits for the reader to exit
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	c.cancel()
	if conn != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}

	<-c.done
	return nil
}

func (c *Channel) connect(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial gateway: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		conn.Close()
		return nil, ErrClosed
	}
	c.conn = conn

	c.logger.Info().Msg("Realtime channel connected")
	return conn, nil
}

func (c *Channel) run(conn *websocket.Conn) {
	defer close(c.done)
	defer close(c.msgs)

	for {
		err := c.readLoop(conn)
		if c.ctx.Err() != nil {
			return
		}
		c.logger.Warn().Err(err).Msg("Realtime channel dropped")

		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		conn.Close()

		conn = c.reconnect()
		if conn == nil {
			return
		}
	}
}

func (c *Channel) readLoop(conn *websocket.Conn) error {
	for {
		var msg events.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		select {
		case c.msgs <- msg:
		case <-c.ctx.Done():
			return c.ctx.Err()
		}
	}
}

// reconnect retries until a connection is up or the channel is closed
func (c *Channel) reconnect() *websocket.Conn {
	for attempt := 1; ; attempt++ {
		delay := time.Duration(attempt) * c.cfg.ReconnectDelay
		if c.cfg.MaxReconnectDelay > 0 && delay > c.cfg.MaxReconnectDelay {
			delay = c.cfg.MaxReconnectDelay
		}

		select {
		case <-c.ctx.Done():
			return nil
		case <-c.clock.After(delay):
		}

		conn, err := c.connect(c.ctx)
		if err == nil {
			return conn
		}
		if c.ctx.Err() != nil || errors.Is(err, ErrClosed) {
			return nil
		}
		c.logger.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("Reconnect failed")
	}
}
