package game

import "errors"

// Precondition failures. They reject the intent with a reason and leave the
// room unchanged; the hub matches them with errors.Is at the transport
// boundary.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomNotJoinable     = errors.New("room is not joinable")
	ErrRoomNotActive       = errors.New("room is not active")
	ErrNotAParticipant     = errors.New("not a participant of this room")
	ErrOutOfTurn           = errors.New("not your turn")
	ErrIllegalMove         = errors.New("illegal move")
	ErrNoReconnect         = errors.New("no pending reconnection for this identity")
	ErrAllocationExhausted = errors.New("could not allocate a unique room code")
)
