package daemon

import (
	"net/http"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/spoke-d/dispatchd/internal/clock"
)

// Option to be passed to New to customize the resulting instance.
type Option func(*options)

type options struct {
	configPath string
	httpClient *http.Client
	logger     log.Logger
	clock      clock.Clock
}

// WithConfigPath sets the configuration file that is watched for changes
func WithConfigPath(path string) Option {
	return func(options *options) {
		options.configPath = path
	}
}

// WithHTTPClient sets the client used for dispatching and probing
func WithHTTPClient(client *http.Client) Option {
	return func(options *options) {
		options.httpClient = client
	}
}

// WithLogger sets the logger on the option
func WithLogger(logger log.Logger) Option {
	return func(options *options) {
		options.logger = logger
	}
}

// WithClock sets the clock on the option
func WithClock(clock clock.Clock) Option {
	return func(options *options) {
		options.clock = clock
	}
}

// Create a options instance with default values.
func newOptions() *options {
	return &options{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log.NewNopLogger(),
		clock:  clock.New(),
	}
}
