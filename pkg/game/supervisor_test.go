package game

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupervisorExpiresOnce(t *testing.T) {
	s := newSupervisor()
	defer s.close()

	var fired atomic.Int32
	s.watch("alice", "ROOM01", 10*time.Millisecond, func() { fired.Add(1) })

	require.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 2*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, 0, s.outstanding())
}

func TestSupervisorCancelStopsExpiry(t *testing.T) {
	s := newSupervisor()
	defer s.close()

	var fired atomic.Int32
	s.watch("alice", "ROOM01", 20*time.Millisecond, func() { fired.Add(1) })

	assert.True(t, s.cancel("alice", "ROOM01"))
	assert.Equal(t, 0, s.outstanding())

	// A second cancel finds nothing.
	assert.False(t, s.cancel("alice", "ROOM01"))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestSupervisorCancelChecksRoom(t *testing.T) {
	s := newSupervisor()
	defer s.close()

	s.watch("alice", "ROOM01", time.Minute, func() {})

	assert.False(t, s.cancel("alice", "OTHER"))
	assert.Equal(t, 1, s.outstanding())
	assert.True(t, s.cancel("alice", "ROOM01"))
}

func TestSupervisorWatchReplacesPriorTicket(t *testing.T) {
	s := newSupervisor()
	defer s.close()

	var first, second atomic.Int32
	s.watch("alice", "ROOM01", 15*time.Millisecond, func() { first.Add(1) })
	s.watch("alice", "ROOM02", 15*time.Millisecond, func() { second.Add(1) })

	assert.Equal(t, 1, s.outstanding())

	require.Eventually(t, func() bool {
		return second.Load() == 1
	}, time.Second, 2*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), first.Load(), "replaced deadline must never fire")
}

func TestSupervisorCancelRoomClearsAllTickets(t *testing.T) {
	s := newSupervisor()
	defer s.close()

	s.watch("alice", "ROOM01", time.Minute, func() {})
	s.watch("bob", "ROOM01", time.Minute, func() {})
	s.watch("carol", "ROOM02", time.Minute, func() {})

	s.cancelRoom("ROOM01")

	assert.Equal(t, 1, s.outstanding())
	assert.True(t, s.cancel("carol", "ROOM02"))
}
