package messages

import "encoding/json"

// InboundMessage is the generic wrapper for messages coming from the client.
// The "event" field tells us the intent; "payload" is the data we parse further.
type InboundMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Inbound event names.
const (
	EvtCreateRoom  = "CREATE_ROOM"
	EvtJoinRoom    = "JOIN_ROOM"
	EvtLeaveRoom   = "LEAVE_ROOM"
	EvtMakeMove    = "MAKE_MOVE"
	EvtResign      = "RESIGN"
	EvtOfferDraw   = "OFFER_DRAW"
	EvtRespondDraw = "RESPOND_DRAW"
	EvtChat        = "CHAT"
	EvtReconnect   = "RECONNECT"
	EvtSignal      = "SIGNAL"
)

// CreateRoomPayload represents the payload for creating a new room.
// A zero time limit means the match is untimed.
type CreateRoomPayload struct {
	TimeLimitMs int64 `json:"time_limit_ms"`
}

// JoinRoomPayload fills the second seat of a waiting room.
type JoinRoomPayload struct {
	RoomID string `json:"room_id"`
}

// RoomPayload targets a room without further arguments (leave, resign,
// offer-draw, reconnect).
type RoomPayload struct {
	RoomID string `json:"room_id"`
}

// MakeMovePayload represents the payload for making a move during a game.
type MakeMovePayload struct {
	RoomID    string `json:"room_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// RespondDrawPayload answers a pending draw offer.
type RespondDrawPayload struct {
	RoomID string `json:"room_id"`
	Accept bool   `json:"accept"`
}

// ChatPayload carries a chat line for the room.
type ChatPayload struct {
	RoomID string `json:"room_id"`
	Text   string `json:"text"`
}

// SignalPayload carries an opaque blob to be forwarded verbatim to the other
// seat. The server never interprets Data.
type SignalPayload struct {
	RoomID string          `json:"room_id"`
	Data   json.RawMessage `json:"data"`
}
