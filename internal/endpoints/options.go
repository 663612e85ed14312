package endpoints

import (
	"github.com/go-kit/kit/log"
	"github.com/spoke-d/dispatchd/internal/clock"
)

// Option to be passed to New to customize the resulting instance.
type Option func(*options)

type options struct {
	networkAddress string
	debugAddress   string
	logger         log.Logger
	sleeper        clock.Sleeper
}

// WithNetworkAddress binds the REST API on address. Without it the API is
// not served.
func WithNetworkAddress(address string) Option {
	return func(options *options) {
		options.networkAddress = address
	}
}

// WithDebugAddress binds the pprof endpoint on address.
func WithDebugAddress(address string) Option {
	return func(options *options) {
		options.debugAddress = address
	}
}

// WithLogger sets the logger on the option
func WithLogger(logger log.Logger) Option {
	return func(options *options) {
		options.logger = logger
	}
}

// WithSleeper sets the sleeper used between bind retries.
func WithSleeper(sleeper clock.Sleeper) Option {
	return func(options *options) {
		options.sleeper = sleeper
	}
}

func newOptions() *options {
	return &options{
		logger:  log.NewNopLogger(),
		sleeper: clock.DefaultSleeper,
	}
}
