package identity

import (
	"time"

	"github.com/go-kit/kit/log"
	"github.com/spoke-d/dispatchd/internal/clock"
)

// Option to be passed to New to customize the resulting instance.
type Option func(*options)

type options struct {
	size   int
	ttl    time.Duration
	clock  clock.Clock
	logger log.Logger
}

// WithCacheSize sets how many identities are remembered
func WithCacheSize(size int) Option {
	return func(options *options) {
		options.size = size
	}
}

// WithTTL sets how long a resolved identity is trusted
func WithTTL(ttl time.Duration) Option {
	return func(options *options) {
		options.ttl = ttl
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
		size:   256,
		ttl:    5 * time.Minute,
		clock:  clock.New(),
		logger: log.NewNopLogger(),
	}
}
