package messages

import "encoding/json"

// OutboundMessage is how we wrap responses before sending
// them to the client
type OutboundMessage struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// Outbound event names.
const (
	EvtConnected            = "CONNECTED"
	EvtRoomCreated          = "ROOM_CREATED"
	EvtGameStart            = "GAME_START"
	EvtJoinError            = "JOIN_ERROR"
	EvtMoveApplied          = "MOVE_APPLIED"
	EvtMoveRejected         = "MOVE_REJECTED"
	EvtGameOver             = "GAME_OVER"
	EvtDrawOffered          = "DRAW_OFFERED"
	EvtDrawDeclined         = "DRAW_DECLINED"
	EvtChatMessage          = "CHAT"
	EvtOpponentOffline      = "OPPONENT_OFFLINE"
	EvtOpponentReconnected  = "OPPONENT_RECONNECTED"
	EvtPlayerDisconnected   = "PLAYER_DISCONNECTED"
	EvtGameReconnect        = "GAME_RECONNECT"
	EvtSignalRelay          = "SIGNAL"
	EvtError                = "ERROR"
)

// ConnectedPayload is sent once when a connection registers.
type ConnectedPayload struct {
	ConnectionID string `json:"connection_id"`
}

// RoomCreatedPayload represents the payload after a create room event.
type RoomCreatedPayload struct {
	RoomID      string `json:"room_id"`
	Side        string `json:"side"`
	TimeLimitMs int64  `json:"time_limit_ms"`
}

// SeatInfo describes one seat of a room.
type SeatInfo struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

// GameSnapshot is the full state resent on game start and reconnection.
type GameSnapshot struct {
	RoomID           string   `json:"room_id"`
	FEN              string   `json:"fen"`
	Turn             string   `json:"turn"`
	YourSide         string   `json:"your_side"`
	WhiteTimeMs      int64    `json:"white_time_ms"`
	BlackTimeMs      int64    `json:"black_time_ms"`
	TimeLimitMs      int64    `json:"time_limit_ms"`
	Moves            []string `json:"moves"`
	White            SeatInfo `json:"white"`
	Black            SeatInfo `json:"black"`
	PendingDrawOffer string   `json:"pending_draw_offer,omitempty"`
}

// MoveAppliedPayload is broadcast once per accepted move, to both seats.
type MoveAppliedPayload struct {
	RoomID      string `json:"room_id"`
	UCI         string `json:"uci"`
	SAN         string `json:"san"`
	FEN         string `json:"fen"`
	Turn        string `json:"turn"`
	IsCheck     bool   `json:"is_check"`
	WhiteTimeMs int64  `json:"white_time_ms"`
	BlackTimeMs int64  `json:"black_time_ms"`
}

// MoveRejectedPayload explains why a move was not applied.
type MoveRejectedPayload struct {
	RoomID string `json:"room_id"`
	Reason string `json:"reason"`
}

// GameOverPayload is broadcast exactly once when a room finishes.
type GameOverPayload struct {
	RoomID      string `json:"room_id"`
	Reason      string `json:"reason"`
	Winner      string `json:"winner,omitempty"` // side, empty for draws
	WhiteTimeMs int64  `json:"white_time_ms"`
	BlackTimeMs int64  `json:"black_time_ms"`
}

// DrawOfferedPayload notifies the offer target.
type DrawOfferedPayload struct {
	RoomID string `json:"room_id"`
	From   string `json:"from"`
}

// DrawDeclinedPayload notifies the offerer.
type DrawDeclinedPayload struct {
	RoomID string `json:"room_id"`
}

// ChatBroadcastPayload carries a chat line to both seats.
type ChatBroadcastPayload struct {
	RoomID string `json:"room_id"`
	From   string `json:"from"`
	Text   string `json:"text"`
}

// OpponentOfflinePayload tells the remaining seat how long the grace window is.
type OpponentOfflinePayload struct {
	RoomID  string `json:"room_id"`
	GraceMs int64  `json:"grace_ms"`
}

// OpponentReconnectedPayload notifies the seat that stayed.
type OpponentReconnectedPayload struct {
	RoomID string `json:"room_id"`
}

// PlayerDisconnectedPayload is the final notice sent when a grace window
// expires without a reconnect.
type PlayerDisconnectedPayload struct {
	RoomID string `json:"room_id"`
	Side   string `json:"side"`
}

// SignalRelayPayload forwards an opaque blob from the other seat.
type SignalRelayPayload struct {
	RoomID string          `json:"room_id"`
	Data   json.RawMessage `json:"data"`
}

// JoinErrorPayload explains why a join was rejected.
type JoinErrorPayload struct {
	RoomID string `json:"room_id"`
	Reason string `json:"reason"`
}

// ErrorPayload is the catch-all rejection envelope.
type ErrorPayload struct {
	Message string `json:"message"`
}
