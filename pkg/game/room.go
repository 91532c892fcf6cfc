// Package game holds the room aggregate and the session manager that
// arbitrates every intent against it.
package game

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JoshuaCandia/custom-chess/internal/color"
	"github.com/JoshuaCandia/custom-chess/pkg/clock"
	"github.com/JoshuaCandia/custom-chess/pkg/messages"
	"github.com/JoshuaCandia/custom-chess/pkg/rules"
)

// Status is the lifecycle state of a room.
type Status string

// A room moves Waiting -> Playing -> Finished, each transition exactly once.
const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Reason records why a room finished.
type Reason string

// All the ways a room can finish.
const (
	ReasonCheckmate     Reason = "checkmate"
	ReasonStalemate     Reason = "stalemate"
	ReasonDraw          Reason = "draw"
	ReasonDrawAgreement Reason = "draw_agreement"
	ReasonResignation   Reason = "resignation"
	ReasonTimeout       Reason = "timeout"
	ReasonAbandoned     Reason = "abandoned"
)

// Messenger delivers outbound payloads to a single connection.
type Messenger interface {
	SendJSON(v interface{})
}

// Player occupies one side of a room. The side is fixed for the room's
// lifetime; the connection is rebound on reconnect.
type Player struct {
	ConnID    uuid.UUID
	Conn      Messenger
	Side      color.Color
	Identity  string // stable account id; empty for guests
	Name      string
	Connected bool
}

// Guest reports whether the player has no stable identity to validate a
// future rejoin against.
func (p *Player) Guest() bool {
	return p.Identity == ""
}

// MoveRecord is one completed move in the room's append-only log.
type MoveRecord struct {
	UCI string `json:"uci"`
	SAN string `json:"san"`
}

// Result is the recorded outcome of a finished room.
type Result struct {
	Reason Reason
	Winner color.Color // color.None for draws and discarded rooms
}

// Room is the atomic unit of game state: two seats, an opaque position
// handle, an optional clock and the draw-offer slot. All mutation happens
// under mu, so concurrent intents for the same room never interleave.
type Room struct {
	ID          string
	TimeLimitMs int64
	CreatedAt   time.Time

	mu sync.Mutex

	Status   Status
	Players  map[color.Color]*Player
	Position rules.Position
	Clock    *clock.Clock // nil when the match has no time limit

	PendingDrawOffer color.Color // color.None when no offer is outstanding
	MoveLog          []MoveRecord

	Result *Result
}

// tryFinish performs the single terminal transition. The first caller wins;
// it stops the clock timer synchronously so a stale timeout cannot fire
// against a decided game. Callers must hold mu.
func (r *Room) tryFinish(res Result) bool {
	if r.Status == StatusFinished {
		return false
	}

	r.Status = StatusFinished
	r.Result = &res
	r.PendingDrawOffer = color.None

	if r.Clock != nil {
		r.Clock.StopTimer()
	}

	return true
}

func (r *Room) playerByConn(connID uuid.UUID) *Player {
	for _, p := range r.Players {
		if p != nil && p.ConnID == connID {
			return p
		}
	}
	return nil
}

func (r *Room) playerByIdentity(identity string) *Player {
	if identity == "" {
		return nil
	}
	for _, p := range r.Players {
		if p != nil && p.Identity == identity {
			return p
		}
	}
	return nil
}

func (r *Room) opponentOf(side color.Color) *Player {
	return r.Players[side.Opp()]
}

func (r *Room) bothDisconnected() bool {
	for _, p := range r.Players {
		if p != nil && p.Connected {
			return false
		}
	}
	return true
}

// broadcast sends v to every connected seat.
func (r *Room) broadcast(v interface{}) {
	for _, p := range r.Players {
		if p != nil && p.Connected && p.Conn != nil {
			p.Conn.SendJSON(v)
		}
	}
}

// sendTo delivers v to a single seat if it is connected.
func (r *Room) sendTo(side color.Color, v interface{}) {
	p := r.Players[side]
	if p != nil && p.Connected && p.Conn != nil {
		p.Conn.SendJSON(v)
	}
}

// clockTimes reports both remaining times, or the configured limit for
// untimed settlement-free rooms.
func (r *Room) clockTimes() (white, black int64) {
	if r.Clock == nil {
		return r.TimeLimitMs, r.TimeLimitMs
	}
	return r.Clock.Remaining()
}

// snapshot assembles the full state resent on game start and reconnection.
// Callers must hold mu.
func (r *Room) snapshot(yourSide color.Color) messages.GameSnapshot {
	white, black := r.clockTimes()

	moves := make([]string, 0, len(r.MoveLog))
	for _, m := range r.MoveLog {
		moves = append(moves, m.SAN)
	}

	snap := messages.GameSnapshot{
		RoomID:           r.ID,
		FEN:              r.Position.FEN(),
		Turn:             string(r.Position.Turn()),
		YourSide:         string(yourSide),
		WhiteTimeMs:      white,
		BlackTimeMs:      black,
		TimeLimitMs:      r.TimeLimitMs,
		Moves:            moves,
		PendingDrawOffer: string(r.PendingDrawOffer),
	}

	if p := r.Players[color.White]; p != nil {
		snap.White = messages.SeatInfo{Name: p.Name, Connected: p.Connected}
	}
	if p := r.Players[color.Black]; p != nil {
		snap.Black = messages.SeatInfo{Name: p.Name, Connected: p.Connected}
	}

	return snap
}
