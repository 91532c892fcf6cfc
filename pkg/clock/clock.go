// Package clock implements the two-sided countdown clock owned by a timed room.
package clock

import (
	"fmt"
	"sync"
	"time"

	"github.com/JoshuaCandia/custom-chess/internal/color"
)

// Clock tracks the remaining allowance for both sides of a single room.
// At most one side counts down at a time and at most one timeout timer is
// armed; re-arming always cancels the previous one.
type Clock struct {
	mu sync.Mutex

	whiteMs int64
	blackMs int64

	running  color.Color // side currently counting down, color.None when stopped
	lastTick time.Time   // when the running side's remaining time was last settled

	timer *time.Timer // armed single-shot timeout, nil when disarmed
}

// New creates a clock with the same initial allowance for both sides.
func New(limitMs int64) *Clock {
	return &Clock{
		whiteMs: limitMs,
		blackMs: limitMs,
	}
}

// Start begins counting down for the given side.
func (c *Clock) Start(side color.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.running = side
	c.lastTick = time.Now()
}

// Running returns the side currently counting down.
func (c *Clock) Running() color.Color {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

// Deduct settles the wall time elapsed since the last settlement against the
// running side, flooring at zero. It returns the side's remaining time and
// whether the allowance is now exhausted.
func (c *Clock) Deduct(now time.Time) (remaining int64, expired bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running == color.None {
		return 0, false
	}

	elapsed := now.Sub(c.lastTick).Milliseconds()

	rem := c.remainingOf(c.running) - elapsed
	if rem < 0 {
		rem = 0
	}

	c.setRemaining(c.running, rem)
	c.lastTick = now

	return rem, rem == 0
}

// SwitchTo hands the countdown to the given side and restarts the settlement
// point.
func (c *Clock) SwitchTo(side color.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.running = side
	c.lastTick = time.Now()
}

// Arm schedules fn to fire after d, first cancelling any previously armed
// timer so that at most one timeout is outstanding per clock.
func (c *Clock) Arm(d time.Duration, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(d, fn)
}

// StopTimer cancels the armed timeout, if any, and halts the countdown.
// It is called synchronously as part of every terminal transition so a stale
// timeout cannot fire against a decided game.
func (c *Clock) StopTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.running = color.None
}

// Remaining reports both sides' remaining time, charging the wall time
// elapsed since the last settlement to the running side.
func (c *Clock) Remaining() (white, black int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	white = c.whiteMs
	black = c.blackMs

	if c.running != color.None {
		elapsed := time.Since(c.lastTick).Milliseconds()
		if c.running == color.White {
			white -= elapsed
		} else {
			black -= elapsed
		}
	}

	if white < 0 {
		white = 0
	}
	if black < 0 {
		black = 0
	}

	return white, black
}

// RemainingFor returns the remaining time for a single side.
func (c *Clock) RemainingFor(side color.Color) int64 {
	white, black := c.Remaining()
	if side == color.White {
		return white
	}
	return black
}

func (c *Clock) remainingOf(side color.Color) int64 {
	if side == color.White {
		return c.whiteMs
	}
	return c.blackMs
}

func (c *Clock) setRemaining(side color.Color, ms int64) {
	if side == color.White {
		c.whiteMs = ms
	} else {
		c.blackMs = ms
	}
}

// FormatClockTime formats a duration in milliseconds to a user-friendly string (e.g., "1:30")
func FormatClockTime(timeMs int64) string {
	if timeMs < 0 {
		timeMs = 0
	}

	totalSeconds := timeMs / 1000
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60

	// For times less than 10 seconds, show decimal
	if timeMs < 10000 {
		tenths := (timeMs % 1000) / 100
		return fmt.Sprintf("%d.%d", totalSeconds, tenths)
	}

	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
