package clock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoshuaCandia/custom-chess/internal/color"
)

func TestDeductChargesRunningSide(t *testing.T) {
	c := New(60_000)
	c.Start(color.White)

	time.Sleep(20 * time.Millisecond)

	remaining, expired := c.Deduct(time.Now())
	require.False(t, expired)
	assert.Less(t, remaining, int64(60_000))
	assert.GreaterOrEqual(t, remaining, int64(59_000))

	// Black was never charged.
	_, black := c.Remaining()
	assert.Equal(t, int64(60_000), black)
}

func TestDeductFloorsAtZero(t *testing.T) {
	c := New(5)
	c.Start(color.Black)

	time.Sleep(20 * time.Millisecond)

	remaining, expired := c.Deduct(time.Now())
	require.True(t, expired)
	assert.Equal(t, int64(0), remaining)

	// A later settlement must not go negative.
	remaining, expired = c.Deduct(time.Now())
	require.True(t, expired)
	assert.Equal(t, int64(0), remaining)
}

func TestDeductWithoutRunningSideIsNoop(t *testing.T) {
	c := New(1)

	remaining, expired := c.Deduct(time.Now())
	assert.False(t, expired)
	assert.Equal(t, int64(0), remaining)
}

func TestRearmingLeavesOneLiveTimer(t *testing.T) {
	c := New(60_000)

	var fired atomic.Int32
	for i := 0; i < 5; i++ {
		c.Arm(10*time.Millisecond, func() { fired.Add(1) })
	}

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestStopTimerCancelsPendingTimeout(t *testing.T) {
	c := New(60_000)
	c.Start(color.White)

	var fired atomic.Int32
	c.Arm(10*time.Millisecond, func() { fired.Add(1) })
	c.StopTimer()

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
	assert.Equal(t, color.None, c.Running())
}

func TestSwitchToRestartsSettlement(t *testing.T) {
	c := New(1_000)
	c.Start(color.White)

	time.Sleep(15 * time.Millisecond)
	c.SwitchTo(color.Black)

	// Black's settlement point was just reset, so almost nothing has elapsed.
	remaining, expired := c.Deduct(time.Now())
	require.False(t, expired)
	assert.Greater(t, remaining, int64(900))
}

func TestFormatClockTime(t *testing.T) {
	assert.Equal(t, "1:30", FormatClockTime(90_000))
	assert.Equal(t, "0:59", FormatClockTime(59_000))
	assert.Equal(t, "9.5", FormatClockTime(9_500))
	assert.Equal(t, "0.0", FormatClockTime(-10))
}
