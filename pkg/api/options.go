package api

import (
	"net/http"

	"github.com/go-kit/kit/log"
)

// Option to be passed to DaemonRestServer to customize the resulting
// instance.
type Option func(*options)

type options struct {
	handlerFns map[string]http.HandlerFunc
	logger     log.Logger
}

// WithHandlerFuncs mounts raw handlers next to the REST services, for
// example the pprof endpoints.
func WithHandlerFuncs(handlerFns map[string]http.HandlerFunc) Option {
	return func(options *options) {
		options.handlerFns = handlerFns
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
		handlerFns: make(map[string]http.HandlerFunc),
		logger:     log.NewNopLogger(),
	}
}
