package server

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/JoshuaCandia/custom-chess/pkg/events"
	"github.com/JoshuaCandia/custom-chess/pkg/messages"
)

// Connection wraps one client websocket. Identity is the stable account id
// presented at upgrade time, empty for guests.
type Connection struct {
	ID       uuid.UUID
	Identity string
	Name     string

	ws      *websocket.Conn // The underlying Websocket connection
	hub     *Hub
	send    chan []byte   // Buffered channel of outbound messages.
	done    chan struct{} // Closed on unregister; stops the write pump.
	closeMu sync.Mutex
	closed  bool

	publisher *events.Publisher
	logger    *zap.Logger
}

// NewConnection creates a connection for an upgraded websocket.
func NewConnection(
	ws *websocket.Conn,
	hub *Hub,
	publisher *events.Publisher,
	logger *zap.Logger,
	identity, name string,
) *Connection {
	return &Connection{
		ID:        uuid.New(),
		Identity:  identity,
		Name:      name,
		ws:        ws,
		hub:       hub,
		send:      make(chan []byte, 256), // buffered for outgoing messages
		done:      make(chan struct{}),
		publisher: publisher,
		logger:    logger,
	}
}

// shutdown stops the write pump exactly once.
func (c *Connection) shutdown() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.done)
	}
}

// ReadPump handles inbound messages from the client
func (c *Connection) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.ws.Close()

		// Publish connection closed event so the session manager can run
		// disconnect handling for any seat this connection held.
		c.publisher.Publish(events.Event{
			Type: events.EventConnectionClosed,
			Payload: map[string]string{
				"connection_id": c.ID.String(),
			},
		})
	}()

	for {
		msgType, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("read error", zap.Error(err))
			}
			break
		}

		// We only handle text
		if msgType == websocket.TextMessage {
			var inbound messages.InboundMessage
			if err := json.Unmarshal(msg, &inbound); err == nil {
				c.hub.inbound <- InboundHubMessage{
					Conn:    c,
					Message: inbound,
				}
			} else {
				c.logger.Error("failed to parse inbound JSON", zap.Error(err))
			}
		}
	}
}

// WritePump handles outbound messages to the client
func (c *Connection) WritePump() {
	defer func() {
		c.ws.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			c.writeMessage(message)
		}
	}
}

func (c *Connection) writeMessage(message []byte) {
	if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Error("write error", zap.Error(err))
	}
}

// SendJSON is a helper for sending JSON to this connection
func (c *Connection) SendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("error marshaling JSON", zap.Error(err))
		return
	}

	select {
	case c.send <- data:
	case <-c.done:
	default:
		c.logger.Warn("send buffer full, dropping message",
			zap.String("connection_id", c.ID.String()))
	}
}
