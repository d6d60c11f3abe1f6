package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/scrumpoker/go/internal/realtime/events"
	"github.com/rs/zerolog/log"
)

// ConnectionManager manages WebSocket connections per session
type ConnectionManager struct {
	// Connection pools organized by session ID
	sessionConnections map[uuid.UUID]map[*Connection]bool
	mu                 sync.RWMutex

	presence *PresenceRegistry
	clock    clockwork.Clock

	// Upgrader for WebSocket connections
	upgrader websocket.Upgrader

	// Connection configuration
	config ConnectionConfig

	// Event broadcasting
	broadcastCh chan BroadcastMessage
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID          string
	PresenceKey string
	SessionID   uuid.UUID
	Conn        *websocket.Conn
	Send        chan []byte
	Manager     *ConnectionManager

	// Connection metadata
	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage is a frame to deliver to every connection of a session
type BroadcastMessage struct {
	SessionID uuid.UUID
	Message   *events.Message
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig, clock clockwork.Clock) *ConnectionManager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &ConnectionManager{
		sessionConnections: make(map[uuid.UUID]map[*Connection]bool),
		presence:           NewPresenceRegistry(),
		clock:              clock,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BroadcastMessage, 1000), // Buffer for high throughput
	}
}

// Start begins processing broadcast messages
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and subscribes it to a session
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID, presenceKey string) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	now := cm.clock.Now()
	connection := &Connection{
		ID:          uuid.New().String(),
		PresenceKey: presenceKey,
		SessionID:   sessionID,
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: now,
		LastPing:    now,
	}

	// subscribed always precedes any change or presence frame on a connection
	connection.enqueue(&events.Message{Type: events.TypeSubscribed})
	cm.registerConnection(connection)
	cm.sendTo(connection, &events.Message{
		Type:     events.TypePresenceSync,
		Presence: cm.presence.Snapshot(sessionID),
	})

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("presence_key", presenceKey).
		Str("session_id", sessionID.String()).
		Msg("WebSocket connection established")

	return nil
}

// registerConnection adds a connection to the manager
func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.sessionConnections[conn.SessionID] == nil {
		cm.sessionConnections[conn.SessionID] = make(map[*Connection]bool)
	}
	cm.sessionConnections[conn.SessionID][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("session_id", conn.SessionID.String()).
		Int("total_connections", len(cm.sessionConnections[conn.SessionID])).
		Msg("connection registered")
}

// unregisterConnection removes a connection and its presence from the manager
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	connections, exists := cm.sessionConnections[conn.SessionID]
	if !exists || !connections[conn] {
		cm.mu.Unlock()
		return
	}

	delete(connections, conn)
	close(conn.Send)

	// Clean up empty session connection pools
	if len(connections) == 0 {
		delete(cm.sessionConnections, conn.SessionID)
	}
	cm.mu.Unlock()

	log.Info().
		Str("connection_id", conn.ID).
		Str("presence_key", conn.PresenceKey).
		Str("session_id", conn.SessionID.String()).
		Msg("connection unregistered")

	if cm.presence.Untrack(conn.SessionID, conn.PresenceKey, conn.ID) {
		cm.BroadcastPresence(conn.SessionID)
	}
}

// BroadcastChange sends a change event to all connections of its session
func (cm *ConnectionManager) BroadcastChange(event events.ChangeEvent) {
	cm.broadcast(BroadcastMessage{
		SessionID: event.SessionID,
		Message:   &events.Message{Type: events.TypePostgresChanges, Change: &event},
	})
}

// BroadcastPresence sends the current presence snapshot to all connections of a session
func (cm *ConnectionManager) BroadcastPresence(sessionID uuid.UUID) {
	cm.broadcast(BroadcastMessage{
		SessionID: sessionID,
		Message: &events.Message{
			Type:     events.TypePresenceSync,
			Presence: cm.presence.Snapshot(sessionID),
		},
	})
}

func (cm *ConnectionManager) broadcast(message BroadcastMessage) {
	select {
	case cm.broadcastCh <- message:
	default:
		log.Warn().
			Str("session_id", message.SessionID.String()).
			Str("type", string(message.Message.Type)).
			Msg("broadcast channel full, dropping message")
	}
}

// handleBroadcast processes a broadcast message
func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	cm.mu.RLock()
	connections, exists := cm.sessionConnections[message.SessionID]
	if !exists {
		cm.mu.RUnlock()
		return
	}

	// Create a snapshot of connections to avoid holding lock during broadcast
	targetConnections := make([]*Connection, 0, len(connections))
	for conn := range connections {
		targetConnections = append(targetConnections, conn)
	}
	cm.mu.RUnlock()

	// Marshal the message once
	data, err := json.Marshal(message.Message)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal message for broadcast")
		return
	}

	for _, conn := range targetConnections {
		if !cm.trySend(conn, data) {
			// Connection is slow/dead, close it
			log.Warn().
				Str("connection_id", conn.ID).
				Str("presence_key", conn.PresenceKey).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}

	log.Debug().
		Str("type", string(message.Message.Type)).
		Str("session_id", message.SessionID.String()).
		Int("connections", len(targetConnections)).
		Msg("message broadcasted")
}

// trySend queues data on a registered connection without blocking.
// The read lock keeps unregisterConnection from closing Send underneath us.
func (cm *ConnectionManager) trySend(conn *Connection, data []byte) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if !cm.sessionConnections[conn.SessionID][conn] {
		return true
	}

	select {
	case conn.Send <- data:
		return true
	default:
		return false
	}
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() map[string]interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	totalConnections := 0
	sessionCounts := make(map[string]int)

	for sessionID, connections := range cm.sessionConnections {
		count := len(connections)
		totalConnections += count
		sessionCounts[sessionID.String()] = count
	}

	return map[string]interface{}{
		"total_connections":   totalConnections,
		"active_sessions":     len(cm.sessionConnections),
		"session_connections": sessionCounts,
		"tracked_presences":   cm.presence.Count(),
	}
}

// enqueue writes a frame to this connection only; used before the connection is shared
func (c *Connection) enqueue(msg *events.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to marshal message")
		return
	}

	select {
	case c.Send <- data:
	default:
		log.Warn().Str("connection_id", c.ID).Msg("send buffer full, dropping message")
	}
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := c.Manager.clock.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.Chan():
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump handles reading messages from the WebSocket connection
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// handleClientMessage processes track and untrack requests from the client
func (c *Connection) handleClientMessage(data []byte) {
	var msg events.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn().Err(err).Str("connection_id", c.ID).Msg("invalid client message")
		c.Manager.sendError(c, "invalid message")
		return
	}

	cm := c.Manager
	switch msg.Type {
	case events.TypeTrack:
		if msg.Meta == nil {
			cm.sendError(c, "track requires meta")
			return
		}

		meta := *msg.Meta
		meta.Ref = c.ID
		meta.OnlineAt = cm.clock.Now().UTC()
		cm.presence.Track(c.SessionID, c.PresenceKey, meta)

		log.Debug().
			Str("connection_id", c.ID).
			Str("presence_key", c.PresenceKey).
			Str("user_id", meta.UserID).
			Msg("presence tracked")
		cm.BroadcastPresence(c.SessionID)

	case events.TypeUntrack:
		if cm.presence.Untrack(c.SessionID, c.PresenceKey, c.ID) {
			cm.BroadcastPresence(c.SessionID)
		}

	default:
		log.Debug().
			Str("connection_id", c.ID).
			Str("type", string(msg.Type)).
			Msg("ignoring client message")
	}
}

func (cm *ConnectionManager) sendError(c *Connection, text string) {
	cm.sendTo(c, &events.Message{Type: events.TypeError, Error: text})
}

// sendTo delivers a frame to a single registered connection
func (cm *ConnectionManager) sendTo(c *Connection, msg *events.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to marshal message")
		return
	}
	if !cm.trySend(c, data) {
		log.Warn().Str("connection_id", c.ID).Msg("send buffer full, dropping message")
	}
}
