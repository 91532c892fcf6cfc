package server

import (
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/JoshuaCandia/custom-chess/pkg/events"
	"github.com/JoshuaCandia/custom-chess/pkg/game"
	"github.com/JoshuaCandia/custom-chess/pkg/messages"
	"github.com/JoshuaCandia/custom-chess/pkg/rules"
)

// InboundHubMessage are the messages that the hub receives
type InboundHubMessage struct {
	Conn    *Connection             // who sent it
	Message messages.InboundMessage // decoded envelope
}

// Hub keeps track of all active connections and routes every decoded intent
// to the session manager.
type Hub struct {
	mu          sync.RWMutex         // Mutex to protect direct access to the connections map.
	connections map[*Connection]bool // Registered connections

	register   chan *Connection       // Incoming registration
	unregister chan *Connection       // Incoming unregistration
	inbound    chan InboundHubMessage // Inbound client messages to route

	done chan struct{}

	manager   *game.Manager
	publisher *events.Publisher
	logger    *zap.Logger
}

// NewHub creates a new hub
func NewHub(manager *game.Manager, publisher *events.Publisher, logger *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		inbound:     make(chan InboundHubMessage),
		done:        make(chan struct{}),
		manager:     manager,
		publisher:   publisher,
		logger:      logger,
	}
}

// Run is the main execution of the hub
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.registerConnection(conn)

		case conn := <-h.unregister:
			h.unregisterConnection(conn)

		case msg := <-h.inbound:
			h.handleInbound(msg)

		case <-h.done:
			return
		}
	}
}

// Register queues a connection for registration.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister queues a connection for removal.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Shutdown stops the run loop, the session manager's timers and every
// connection's write pump.
func (h *Hub) Shutdown() {
	close(h.done)
	h.manager.Close()

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.connections {
		conn.shutdown()
		delete(h.connections, conn)
	}
}

func (h *Hub) registerConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[conn] = true
	h.logger.Info("connection registered",
		zap.String("connection_id", conn.ID.String()),
		zap.Int("total", len(h.connections)))

	conn.SendJSON(messages.OutboundMessage{
		Event: messages.EvtConnected,
		Payload: messages.ConnectedPayload{
			ConnectionID: conn.ID.String(),
		},
	})
}

func (h *Hub) unregisterConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.connections[conn]; ok {
		delete(h.connections, conn)
		conn.shutdown()
		h.logger.Info("connection unregistered",
			zap.String("connection_id", conn.ID.String()),
			zap.Int("total", len(h.connections)))
	}
}

// handleInbound decodes and routes one client message.
func (h *Hub) handleInbound(msg InboundHubMessage) {
	conn := msg.Conn

	switch msg.Message.Event {
	case messages.EvtCreateRoom:
		var payload messages.CreateRoomPayload
		if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
			h.sendError(conn, "invalid CREATE_ROOM payload")
			return
		}
		if payload.TimeLimitMs < 0 {
			h.sendError(conn, "time limit must not be negative")
			return
		}

		if _, err := h.manager.CreateRoom(conn, conn.ID, conn.Identity, conn.Name, payload.TimeLimitMs); err != nil {
			h.sendError(conn, err.Error())
		}

	case messages.EvtJoinRoom:
		var payload messages.JoinRoomPayload
		if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
			h.sendError(conn, "invalid JOIN_ROOM payload")
			return
		}

		if err := h.manager.JoinRoom(conn, conn.ID, conn.Identity, conn.Name, payload.RoomID); err != nil {
			conn.SendJSON(messages.OutboundMessage{
				Event: messages.EvtJoinError,
				Payload: messages.JoinErrorPayload{
					RoomID: payload.RoomID,
					Reason: err.Error(),
				},
			})
		}

	case messages.EvtLeaveRoom:
		var payload messages.RoomPayload
		if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
			h.sendError(conn, "invalid LEAVE_ROOM payload")
			return
		}

		if err := h.manager.LeaveRoom(conn.ID, payload.RoomID); err != nil {
			h.sendError(conn, err.Error())
		}

	case messages.EvtMakeMove:
		var payload messages.MakeMovePayload
		if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
			h.sendError(conn, "invalid MAKE_MOVE payload")
			return
		}

		mv := rules.Move{From: payload.From, To: payload.To, Promotion: payload.Promotion}
		if err := h.manager.SubmitMove(conn.ID, payload.RoomID, mv); err != nil {
			h.rejectMove(conn, payload.RoomID, err)
		}

	case messages.EvtResign:
		var payload messages.RoomPayload
		if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
			h.sendError(conn, "invalid RESIGN payload")
			return
		}

		if err := h.manager.Resign(conn.ID, payload.RoomID); err != nil {
			h.sendError(conn, err.Error())
		}

	case messages.EvtOfferDraw:
		var payload messages.RoomPayload
		if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
			h.sendError(conn, "invalid OFFER_DRAW payload")
			return
		}

		if err := h.manager.OfferDraw(conn.ID, payload.RoomID); err != nil {
			h.sendError(conn, err.Error())
		}

	case messages.EvtRespondDraw:
		var payload messages.RespondDrawPayload
		if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
			h.sendError(conn, "invalid RESPOND_DRAW payload")
			return
		}

		if err := h.manager.RespondDraw(conn.ID, payload.RoomID, payload.Accept); err != nil {
			h.sendError(conn, err.Error())
		}

	case messages.EvtChat:
		var payload messages.ChatPayload
		if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
			h.sendError(conn, "invalid CHAT payload")
			return
		}

		if err := h.manager.Chat(conn.ID, payload.RoomID, payload.Text); err != nil {
			h.sendError(conn, err.Error())
		}

	case messages.EvtReconnect:
		var payload messages.RoomPayload
		if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
			h.sendError(conn, "invalid RECONNECT payload")
			return
		}

		if err := h.manager.Reconnect(conn, conn.ID, conn.Identity, payload.RoomID); err != nil {
			h.sendError(conn, err.Error())
		}

	case messages.EvtSignal:
		var payload messages.SignalPayload
		if err := json.Unmarshal(msg.Message.Payload, &payload); err != nil {
			h.sendError(conn, "invalid SIGNAL payload")
			return
		}

		if err := h.manager.Relay(conn.ID, payload.RoomID, payload.Data); err != nil {
			h.sendError(conn, err.Error())
		}

	default:
		h.sendError(conn, "unknown message type")
	}
}

// rejectMove maps move failures to a MOVE_REJECTED with a stable reason.
func (h *Hub) rejectMove(conn *Connection, roomID string, err error) {
	var reason string
	switch {
	case errors.Is(err, game.ErrIllegalMove):
		reason = "illegal_move"
	case errors.Is(err, game.ErrOutOfTurn):
		reason = "out_of_turn"
	case errors.Is(err, game.ErrRoomNotActive):
		reason = "room_not_active"
	case errors.Is(err, game.ErrNotAParticipant):
		reason = "not_a_participant"
	case errors.Is(err, game.ErrRoomNotFound):
		reason = "room_not_found"
	default:
		h.logger.Error("move failed", zap.String("room_id", roomID), zap.Error(err))
		reason = "internal_error"
	}

	conn.SendJSON(messages.OutboundMessage{
		Event: messages.EvtMoveRejected,
		Payload: messages.MoveRejectedPayload{
			RoomID: roomID,
			Reason: reason,
		},
	})
}

func (h *Hub) sendError(conn *Connection, msg string) {
	conn.SendJSON(messages.OutboundMessage{
		Event: messages.EvtError,
		Payload: messages.ErrorPayload{
			Message: msg,
		},
	})
}
