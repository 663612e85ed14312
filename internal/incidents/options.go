package incidents

import (
	"github.com/go-kit/kit/log"
	"github.com/spoke-d/dispatchd/internal/clock"
	"github.com/spoke-d/dispatchd/internal/events"
)

// Option to be passed to New to customize the resulting instance.
type Option func(*options)

type options struct {
	catalog *Catalog
	events  events.Sender
	clock   clock.Clock
	logger  log.Logger
}

// WithCatalog sets the texts used to localize incidents
func WithCatalog(catalog *Catalog) Option {
	return func(options *options) {
		options.catalog = catalog
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
		catalog: NewCatalog(nil),
		events:  events.Nop{},
		clock:   clock.New(),
		logger:  log.NewNopLogger(),
	}
}
