package events

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesTypedAndWildcardHandlers(t *testing.T) {
	p := NewPublisher()

	var typed, wildcard atomic.Int32
	p.Subscribe(EventGameFinished, func(event Event) {
		assert.Equal(t, "ABC234", event.RoomID)
		typed.Add(1)
	})
	p.SubscribeAll(func(Event) { wildcard.Add(1) })

	p.Publish(Event{Type: EventGameFinished, RoomID: "ABC234"})
	p.Publish(Event{Type: EventRoomCreated, RoomID: "XYZ789"})

	require.Eventually(t, func() bool {
		return typed.Load() == 1 && wildcard.Load() == 2
	}, time.Second, 2*time.Millisecond)
}

func TestPublishWithoutSubscribersIsHarmless(t *testing.T) {
	p := NewPublisher()
	p.Publish(Event{Type: EventConnectionClosed})
}
