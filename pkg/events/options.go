package events

import "github.com/go-kit/kit/log"

// Option to be passed to NewEvents to customize the resulting instance.
type Option func(*options)

type options struct {
	types  []string
	logger log.Logger
}

// WithLogger sets the logger on the option
func WithLogger(logger log.Logger) Option {
	return func(options *options) {
		options.logger = logger
	}
}

// WithTypes subscribes to the given event types instead of the server
// defaults
func WithTypes(types ...string) Option {
	return func(options *options) {
		options.types = types
	}
}

func newOptions() *options {
	return &options{
		logger: log.NewNopLogger(),
	}
}
