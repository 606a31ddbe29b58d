package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/turingchat/go/internal/match/events"
	"github.com/rs/zerolog/log"
)

// Engine defines what the gateway needs from the match engine.
type Engine interface {
	JoinMatchmaking(participantID string)
	CancelMatchmaking(participantID string)
	SendMessage(participantID, text string)
	TypingStatus(participantID string, isTyping bool)
	MakeGuess(participantID string, guessedSurrogate bool)
	Retire(participantID string)
	Disconnect(participantID string)
}

// Envelope is the wire frame for every event in either direction. Inbound
// frames carry Type and Data; outbound frames add ID and Timestamp.
type Envelope struct {
	ID        string           `json:"id,omitempty"`
	Type      events.EventType `json:"type"`
	Timestamp time.Time        `json:"timestamp,omitempty"`
	Data      json.RawMessage  `json:"data,omitempty"`
}

// ConnectionManager owns one WebSocket connection per participant. The
// connection id doubles as the participant id for the engine.
type ConnectionManager struct {
	participants map[string]*Connection
	mu           sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	router   *Router
	engine   Engine
}

// Connection represents a WebSocket connection to one participant.
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a manager routing inbound frames to engine.
func NewConnectionManager(engine Engine, config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		participants: make(map[string]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
		router: NewRouter(engine),
		engine: engine,
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket connection and
// assigns the participant a fresh id.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) (string, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return "", fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("participant_id", connection.ID).
		Msg("WebSocket connection established")

	return connection.ID, nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.participants[conn.ID] = conn
}

// unregisterConnection drops the connection and tells the engine the
// participant is gone. Safe to call more than once per connection. Send is
// never closed: a Notify racing the disconnect may still hold the
// connection, and a frame queued after removal is simply never drained.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	current, exists := cm.participants[conn.ID]
	if exists && current == conn {
		delete(cm.participants, conn.ID)
	}
	cm.mu.Unlock()

	if exists && current == conn {
		cm.engine.Disconnect(conn.ID)
		log.Info().Str("participant_id", conn.ID).Msg("connection unregistered")
	}
}

// Notify implements the engine's outbound port: it wraps the payload in an
// envelope and queues it on the participant's connection. Events for unknown
// participants are dropped; the connection may already be gone.
func (cm *ConnectionManager) Notify(participantID string, eventType events.EventType, payload any) {
	cm.mu.RLock()
	conn, ok := cm.participants[participantID]
	cm.mu.RUnlock()
	if !ok {
		log.Debug().
			Str("participant_id", participantID).
			Str("event_type", string(eventType)).
			Msg("dropping event for unknown participant")
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to marshal event payload")
		return
	}
	frame, err := json.Marshal(Envelope{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	})
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to marshal event envelope")
		return
	}

	select {
	case conn.Send <- frame:
	default:
		// Connection is slow/dead, close it
		log.Warn().Str("participant_id", participantID).Msg("connection send buffer full, closing connection")
		cm.unregisterConnection(conn)
		conn.Conn.Close()
	}
}

// GetConnectionStats returns statistics about active connections.
func (cm *ConnectionManager) GetConnectionStats() map[string]interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return map[string]interface{}{
		"total_connections": len(cm.participants),
	}
}

// writePump handles sending messages to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("participant_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("participant_id", c.ID).
					Msg("failed to send ping")
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump handles reading messages from the WebSocket connection.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("participant_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// handleClientMessage routes one inbound frame; malformed frames are echoed
// back as an Error event to this participant only.
func (c *Connection) handleClientMessage(message []byte) {
	if err := c.Manager.router.HandleInbound(c.ID, message); err != nil {
		log.Warn().
			Err(err).
			Str("participant_id", c.ID).
			Msg("rejected inbound event")
		c.Manager.Notify(c.ID, events.EventTypeError, events.ErrorPayload{Message: err.Error()})
	}
}
