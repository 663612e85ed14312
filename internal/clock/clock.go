// Package clock hides the wall clock behind interfaces so tests can pin
// timestamps and skip sleeps.
package clock

import "time"

// Clock tells the time.
type Clock interface {
	// Now is the current local time.
	Now() time.Time

	// UTC is the current time in UTC. Every timestamp persisted by the
	// registry comes from here.
	UTC() time.Time

	// After behaves like time.After.
	After(time.Duration) <-chan time.Time
}

// Sleeper blocks for a duration. Retry loops take one so tests don't wait.
type Sleeper interface {
	Sleep(time.Duration)
}

// WallClock is the Clock backed by the time package.
type WallClock struct{}

// New returns the wall clock.
func New() WallClock {
	return WallClock{}
}

// Now calls time.Now.
func (WallClock) Now() time.Time { return time.Now() }

// UTC calls time.Now and converts to UTC.
func (WallClock) UTC() time.Time { return time.Now().UTC() }

// After calls time.After.
func (WallClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

type sleeper struct{}

func (sleeper) Sleep(d time.Duration) { time.Sleep(d) }

// DefaultSleeper sleeps for real.
var DefaultSleeper Sleeper = sleeper{}
