package client

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-kit/kit/log"
)

// Option to be passed to New to customize the resulting instance.
type Option func(*options)

type options struct {
	// User agent string
	userAgent string

	// Timeout for a single request, websockets excluded.
	timeout time.Duration

	// Custom proxy
	proxy func(*http.Request) (*url.URL, error)

	// Custom logger
	logger log.Logger
}

// WithUserAgent sets the userAgent on the option
func WithUserAgent(userAgent string) Option {
	return func(options *options) {
		options.userAgent = userAgent
	}
}

// WithTimeout sets the request timeout on the option
func WithTimeout(timeout time.Duration) Option {
	return func(options *options) {
		options.timeout = timeout
	}
}

// WithProxy sets the proxy on the option
func WithProxy(proxy func(*http.Request) (*url.URL, error)) Option {
	return func(options *options) {
		options.proxy = proxy
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
		timeout: 30 * time.Second,
		logger:  log.NewNopLogger(),
	}
}
