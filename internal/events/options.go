package events

import (
	"github.com/go-kit/kit/log"
	"github.com/spoke-d/dispatchd/internal/clock"
)

// Option to be passed to New to customize the resulting instance.
type Option func(*options)

type options struct {
	clock  clock.Clock
	logger log.Logger
}

// WithClock sets the clock on the options
func WithClock(clock clock.Clock) Option {
	return func(options *options) {
		options.clock = clock
	}
}

// WithLogger sets the logger on the options
func WithLogger(logger log.Logger) Option {
	return func(options *options) {
		options.logger = logger
	}
}

// Create a options instance with default values.
func newOptions() *options {
	return &options{
		clock:  clock.New(),
		logger: log.NewNopLogger(),
	}
}
