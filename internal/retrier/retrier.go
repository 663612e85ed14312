// Package retrier calls a function until it succeeds or a fixed number of
// attempts have failed.
package retrier

import (
	"time"

	"github.com/spoke-d/dispatchd/internal/clock"
)

// Retrier runs a function again after each failure, sleeping a constant
// backoff in between.
type Retrier struct {
	sleeper  clock.Sleeper
	attempts int
	backoff  time.Duration
}

// New creates a Retrier allowing amount retries after the first call.
func New(sleeper clock.Sleeper, amount int, backoff time.Duration) *Retrier {
	return &Retrier{
		sleeper:  sleeper,
		attempts: amount,
		backoff:  backoff,
	}
}

// Run calls fn until it returns nil. Once every retry is used up the last
// error is returned, recognisable with ErrRetry.
func (r *Retrier) Run(fn func() error) error {
	for retry := 0; ; retry++ {
		err := fn()
		if err == nil {
			return nil
		}
		if retry >= r.attempts {
			return exhausted{err}
		}
		r.sleeper.Sleep(r.backoff)
	}
}

type exhausted struct {
	error
}

func (e exhausted) Cause() error { return e.error }

// ErrRetry reports whether err was returned because every retry failed.
func ErrRetry(err error) bool {
	_, ok := err.(exhausted)
	return ok
}
