package dispatcher

import (
	"net/http"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/spoke-d/dispatchd/internal/clock"
	"github.com/spoke-d/dispatchd/internal/events"
)

// Option to be passed to New to customize the resulting instance.
type Option func(*options)

type options struct {
	client  HTTPClient
	timeout time.Duration
	events  events.Sender
	clock   clock.Clock
	logger  log.Logger
}

// WithHTTPClient sets the client used to reach services
func WithHTTPClient(client HTTPClient) Option {
	return func(options *options) {
		options.client = client
	}
}

// WithTimeout sets how long a single dispatch request may take
func WithTimeout(timeout time.Duration) Option {
	return func(options *options) {
		options.timeout = timeout
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
		client:  http.DefaultClient,
		timeout: 20 * time.Second,
		events:  events.Nop{},
		clock:   clock.New(),
		logger:  log.NewNopLogger(),
	}
}
