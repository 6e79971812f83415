package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrSendBufferFull     = errors.New("connection send buffer full")
)

// MessageHandler receives connection lifecycle callbacks and client frames.
// Calls for one connection arrive in order: Connect, any number of Receive,
// then Disconnect.
type MessageHandler interface {
	Connect(connectionID string)
	Disconnect(connectionID string)
	Receive(connectionID string, message []byte)
}

// ConnectionManager owns the live WebSocket connections and implements the
// frame transport used by the session coordinator
type ConnectionManager struct {
	connections map[string]*Connection
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	handler     MessageHandler
	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	AllowedOrigins  []string
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
		SendBuffer:      256,
		AllowedOrigins:  []string{"*"},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	defaults := DefaultConnectionConfig()
	if config.SendBuffer <= 0 {
		config.SendBuffer = defaults.SendBuffer
	}
	if config.PingInterval <= 0 {
		config.PingInterval = defaults.PingInterval
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = defaults.MaxMessageSize
	}
	return &ConnectionManager{
		connections: make(map[string]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     checkOrigin(config.AllowedOrigins),
		},
		config: config,
	}
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and hands its
// frames to handler
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, handler MessageHandler) (string, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return "", fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBuffer),
		Manager:     cm,
		handler:     handler,
		ConnectedAt: time.Now(),
	}

	cm.registerConnection(connection)
	handler.Connect(connection.ID)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket connection established")

	return connection.ID, nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.connections[conn.ID] = conn

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

// unregisterConnection removes a connection and closes its send queue. The
// write pump drains what is already queued before it sends the close frame.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if current, exists := cm.connections[conn.ID]; !exists || current != conn {
		return false
	}
	delete(cm.connections, conn.ID)
	close(conn.Send)

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(cm.connections)).
		Msg("connection unregistered")
	return true
}

// Send queues a frame for one connection without blocking. A connection
// whose buffer is full is treated as dead and dropped.
func (cm *ConnectionManager) Send(connectionID string, message []byte) error {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	conn, exists := cm.connections[connectionID]
	if !exists {
		return ErrConnectionNotFound
	}

	select {
	case conn.Send <- message:
		return nil
	default:
		log.Warn().
			Str("connection_id", connectionID).
			Msg("connection send buffer full, closing connection")
		go conn.drop()
		return ErrSendBufferFull
	}
}

// Close ends a connection after the frames already queued for it are written
func (cm *ConnectionManager) Close(connectionID string) {
	cm.mu.RLock()
	conn, exists := cm.connections[connectionID]
	cm.mu.RUnlock()
	if !exists {
		return
	}

	if cm.unregisterConnection(conn) {
		log.Info().Str("connection_id", connectionID).Msg("connection closed by server")
	}
}

// CloseAll ends every connection, used on shutdown
func (cm *ConnectionManager) CloseAll() {
	cm.mu.RLock()
	conns := make([]*Connection, 0, len(cm.connections))
	for _, conn := range cm.connections {
		conns = append(conns, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range conns {
		cm.unregisterConnection(conn)
	}
	log.Info().Int("connections", len(conns)).Msg("all connections closed")
}

// Count is the number of live connections
func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{TotalConnections: len(cm.connections)}
	for _, conn := range cm.connections {
		if stats.OldestConnectedAt == nil || conn.ConnectedAt.Before(*stats.OldestConnectedAt) {
			at := conn.ConnectedAt
			stats.OldestConnectedAt = &at
		}
	}
	return stats
}

// ConnectionStats is the body of the stats endpoint
type ConnectionStats struct {
	TotalConnections  int        `json:"total_connections"`
	OldestConnectedAt *time.Time `json:"oldest_connected_at,omitempty"`
}

func (c *Connection) drop() {
	if c.Manager.unregisterConnection(c) {
		c.Conn.Close()
	}
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
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

// readPump hands client frames to the handler until the socket fails. It is
// the only place a disconnect is reported.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
		c.handler.Disconnect(c.ID)
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		msgType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		c.handler.Receive(c.ID, message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
