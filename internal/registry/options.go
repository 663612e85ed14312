package registry

import (
	"github.com/go-kit/kit/log"
	"github.com/spoke-d/dispatchd/internal/clock"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/events"
)

// Option to be passed to New to customize the resulting instance.
type Option func(*options)

type options struct {
	failover Failover
	events   events.Sender
	clock    clock.Clock
	logger   log.Logger
}

// WithFailover sets the failover state machine invoked after job updates
func WithFailover(failover Failover) Option {
	return func(options *options) {
		options.failover = failover
	}
}

// WithEvents sets the event sender on the options
func WithEvents(sender events.Sender) Option {
	return func(options *options) {
		options.events = sender
	}
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
		failover: nopFailover{},
		events:   events.Nop{},
		clock:    clock.New(),
		logger:   log.NewNopLogger(),
	}
}

type nopFailover struct{}

func (nopFailover) Process(db.Job) error { return nil }
