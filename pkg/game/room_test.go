package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoshuaCandia/custom-chess/internal/color"
	"github.com/JoshuaCandia/custom-chess/pkg/clock"
	"github.com/JoshuaCandia/custom-chess/pkg/messages"
)

func TestTryFinishFirstCallerWins(t *testing.T) {
	room := &Room{
		ID:               "ABC234",
		Status:           StatusPlaying,
		Clock:            clock.New(60_000),
		PendingDrawOffer: color.White,
	}
	room.Clock.Start(color.White)

	require.True(t, room.tryFinish(Result{Reason: ReasonResignation, Winner: color.Black}))

	assert.Equal(t, StatusFinished, room.Status)
	assert.Equal(t, ReasonResignation, room.Result.Reason)
	assert.Equal(t, color.Black, room.Result.Winner)
	assert.Equal(t, color.None, room.PendingDrawOffer)
	assert.Equal(t, color.None, room.Clock.Running())

	// The losing transition must not overwrite the recorded outcome.
	require.False(t, room.tryFinish(Result{Reason: ReasonTimeout, Winner: color.White}))
	assert.Equal(t, ReasonResignation, room.Result.Reason)
	assert.Equal(t, color.Black, room.Result.Winner)
}

func TestPlayerLookups(t *testing.T) {
	white := &Player{ConnID: uuid.New(), Side: color.White, Identity: "alice", Connected: true}
	black := &Player{ConnID: uuid.New(), Side: color.Black, Connected: true}
	room := &Room{Players: map[color.Color]*Player{
		color.White: white,
		color.Black: black,
	}}

	assert.Same(t, white, room.playerByConn(white.ConnID))
	assert.Nil(t, room.playerByConn(uuid.New()))

	assert.Same(t, white, room.playerByIdentity("alice"))
	assert.Nil(t, room.playerByIdentity("nobody"))
	// Guests must never match an empty identity probe.
	assert.Nil(t, room.playerByIdentity(""))

	assert.Same(t, black, room.opponentOf(color.White))
	assert.True(t, black.Guest())
	assert.False(t, white.Guest())

	assert.False(t, room.bothDisconnected())
	white.Connected = false
	black.Connected = false
	assert.True(t, room.bothDisconnected())
}

func TestBroadcastSkipsDisconnectedSeats(t *testing.T) {
	whiteConn := &fakeConn{}
	blackConn := &fakeConn{}
	room := &Room{
		ID: "ABC234",
		Players: map[color.Color]*Player{
			color.White: {Conn: whiteConn, Side: color.White, Connected: true},
			color.Black: {Conn: blackConn, Side: color.Black, Connected: false},
		},
	}

	room.broadcast(messages.OutboundMessage{Event: "PING"})
	room.sendTo(color.Black, messages.OutboundMessage{Event: "DIRECT"})

	assert.Equal(t, 1, whiteConn.count("PING"))
	assert.Equal(t, 0, blackConn.count("PING"))
	assert.Equal(t, 0, blackConn.count("DIRECT"))
}

func TestClockTimesForUntimedRoom(t *testing.T) {
	room := &Room{TimeLimitMs: 0}
	white, black := room.clockTimes()
	assert.Zero(t, white)
	assert.Zero(t, black)

	timed := &Room{TimeLimitMs: 60_000, Clock: clock.New(60_000)}
	white, black = timed.clockTimes()
	assert.Equal(t, int64(60_000), white)
	assert.Equal(t, int64(60_000), black)
}
