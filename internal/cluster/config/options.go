package config

import "github.com/spoke-d/dispatchd/internal/config"

// Option to be passed to NewConfig to customize the resulting
// instance.
type Option func(*options)

type options struct {
	clusterTx Tx
	configMap config.Map
}

// WithClusterTx sets the clusterTx on the options
func WithClusterTx(clusterTx Tx) Option {
	return func(options *options) {
		options.clusterTx = clusterTx
	}
}

// Create a options instance with default values.
func newOptions() *options {
	return &options{}
}
