package client

import (
	"time"

	"github.com/go-kit/kit/log"
)

// Option to be passed to New to customize the resulting instance.
type Option func(*options)

type options struct {
	userAgent string
	timeout   time.Duration
	// Custom logger
	logger log.Logger
}

// WithUserAgent sets the user agent sent with every request
func WithUserAgent(userAgent string) Option {
	return func(options *options) {
		options.userAgent = userAgent
	}
}

// WithTimeout sets the timeout of a single request
func WithTimeout(timeout time.Duration) Option {
	return func(options *options) {
		options.timeout = timeout
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
		userAgent: "dispatchd-client",
		timeout:   30 * time.Second,
		logger:    log.NewNopLogger(),
	}
}
