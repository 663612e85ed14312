package task

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Func is the work run by a Task. It must return once ctx is done.
type Func func(context.Context)

// Schedule tells a Task how long to wait before running its Func again.
//
// A zero interval with a nil error parks the task until it is reset. An
// error other than ErrSkip stops the task, unless the interval is positive,
// in which case the schedule is asked again after that interval.
type Schedule func() (time.Duration, error)

// ErrSkip asks a Task to wait the returned interval without running its Func.
var ErrSkip = errors.New("skip execution of task function")

// EveryOption tweaks an Every schedule.
type EveryOption func(*every)

type every struct {
	skipFirst bool
}

// SkipFirst delays the first run of an Every schedule by one interval.
func SkipFirst(e *every) {
	e.skipFirst = true
}

// Every returns a Schedule with a fixed interval.
func Every(interval time.Duration, options ...EveryOption) Schedule {
	e := new(every)
	for _, option := range options {
		option(e)
	}
	skip := e.skipFirst
	return func() (time.Duration, error) {
		if skip {
			skip = false
			return interval, ErrSkip
		}
		return interval, nil
	}
}
