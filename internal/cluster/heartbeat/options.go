package heartbeat

import (
	"net/http"
	"time"

	"github.com/go-kit/kit/log"
)

// Option to be passed to New to customize the resulting instance.
type Option func(*options)

type options struct {
	client  HTTPClient
	timeout time.Duration
	logger  log.Logger
}

// WithHTTPClient sets the client used for probes
func WithHTTPClient(client HTTPClient) Option {
	return func(options *options) {
		options.client = client
	}
}

// WithTimeout sets how long a single probe may take
func WithTimeout(timeout time.Duration) Option {
	return func(options *options) {
		options.timeout = timeout
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
		logger:  log.NewNopLogger(),
	}
}
