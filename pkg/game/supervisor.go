package game

import (
	"sync"
	"time"
)

// ticket tracks the grace window for one disconnected identified player.
type ticket struct {
	identity string
	roomID   string
	deadline time.Time
	timer    *time.Timer
}

// supervisor owns the reconnection deadlines. At most one ticket is
// outstanding per identity; arming a new one replaces the old.
type supervisor struct {
	mu      sync.Mutex
	tickets map[string]*ticket
}

func newSupervisor() *supervisor {
	return &supervisor{tickets: make(map[string]*ticket)}
}

// watch arms a deadline for identity. The expire callback runs once the
// grace window elapses without a matching cancel.
func (s *supervisor) watch(identity, roomID string, grace time.Duration, expire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.tickets[identity]; ok {
		prev.timer.Stop()
	}

	t := &ticket{
		identity: identity,
		roomID:   roomID,
		deadline: time.Now().Add(grace),
	}
	t.timer = time.AfterFunc(grace, func() {
		// The ticket may have been replaced while the callback was pending;
		// only the live one gets to expire.
		if !s.drop(identity, t) {
			return
		}
		expire()
	})

	s.tickets[identity] = t
}

// cancel stops the deadline for identity if it targets roomID. It reports
// whether a live ticket was cancelled; false means the deadline already
// fired or was never armed.
func (s *supervisor) cancel(identity, roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[identity]
	if !ok || t.roomID != roomID {
		return false
	}

	t.timer.Stop()
	delete(s.tickets, identity)
	return true
}

// cancelRoom clears every ticket pointing at roomID. Called on any terminal
// transition so no deadline outlives its room.
func (s *supervisor) cancelRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for identity, t := range s.tickets {
		if t.roomID == roomID {
			t.timer.Stop()
			delete(s.tickets, identity)
		}
	}
}

// drop removes the ticket if it is still the one the caller armed.
func (s *supervisor) drop(identity string, want *ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[identity]
	if !ok || t != want {
		return false
	}

	delete(s.tickets, identity)
	return true
}

// outstanding reports the number of live tickets.
func (s *supervisor) outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tickets)
}

// close stops every live ticket. Used on shutdown so no timer references a
// destroyed room.
func (s *supervisor) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for identity, t := range s.tickets {
		t.timer.Stop()
		delete(s.tickets, identity)
	}
}
