package worker

import (
	"time"

	"github.com/go-kit/kit/log"
	"github.com/spoke-d/dispatchd/internal/clock"
)

// Option to be passed to New to customize the resulting instance.
type Option func(*options)

type options struct {
	address  string
	nodeName string
	maxJobs  int64
	attempts int
	backoff  time.Duration
	sleeper  clock.Sleeper
	logger   log.Logger
}

// WithAddress sets the network address reported for the host
func WithAddress(address string) Option {
	return func(options *options) {
		options.address = address
	}
}

// WithNodeName sets the node name reported for the host
func WithNodeName(nodeName string) Option {
	return func(options *options) {
		options.nodeName = nodeName
	}
}

// WithMaxJobs sets how many jobs the host runs at once. Zero leaves the
// choice to the registry.
func WithMaxJobs(maxJobs int64) Option {
	return func(options *options) {
		options.maxJobs = maxJobs
	}
}

// WithRetry sets how often and how far apart registration is retried
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(options *options) {
		options.attempts = attempts
		options.backoff = backoff
	}
}

// WithSleeper sets the sleeper used between registration attempts
func WithSleeper(sleeper clock.Sleeper) Option {
	return func(options *options) {
		options.sleeper = sleeper
	}
}

// WithLogger sets the logger on the option
func WithLogger(logger log.Logger) Option {
	return func(options *options) {
		options.logger = logger
	}
}

// Create a options instance with default values.
func newOptions() *options {
	return &options{
		attempts: 10,
		backoff:  time.Second,
		sleeper:  clock.DefaultSleeper,
		logger:   log.NewNopLogger(),
	}
}
