package config

import (
	"runtime"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/config"
	"github.com/spoke-d/dispatchd/internal/db"
)

// Tx models a single interaction with the registry database.
type Tx interface {

	// Config fetches all cluster-wide config keys.
	Config() (map[string]string, error)

	// UpdateConfig updates the given configuration keys in the config table.
	// Config keys set to empty values will be deleted.
	UpdateConfig(map[string]string) error
}

// Config keys shared by every registry process.
const (
	DispatchInterval        = "dispatch.interval"
	DispatchJobsLimit       = "dispatch.jobs_limit"
	DispatchRate            = "dispatch.rate"
	HeartbeatInterval       = "heartbeat.interval"
	HostsMaxJobs            = "hosts.max_jobs"
	FailoverMaxAttempts     = "failover.max_attempts"
	FailoverErrorStates     = "failover.error_states"
	FailoverNoErrorTypes    = "failover.no_error_state_types"
	JobsParentlessLifetime  = "jobs.parentless_lifetime"
	minimumDispatchInterval = time.Second
)

// ReadOnlyConfig only allows the reading of values from the map
type ReadOnlyConfig struct {
	configMap config.Map
}

// DispatchInterval returns how often the dispatcher runs. Zero disables
// dispatching, any other value is at least one second.
func (c *ReadOnlyConfig) DispatchInterval() (time.Duration, error) {
	d, err := c.configMap.GetSeconds(DispatchInterval)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	if d > 0 && d < minimumDispatchInterval {
		d = minimumDispatchInterval
	}
	return d, nil
}

// DispatchJobsLimit returns how many jobs a dispatch cycle considers.
func (c *ReadOnlyConfig) DispatchJobsLimit() (int, error) {
	n, err := c.configMap.GetInt64(DispatchJobsLimit)
	return int(n), errors.WithStack(err)
}

// DispatchRate returns the maximum number of dispatch attempts per second.
func (c *ReadOnlyConfig) DispatchRate() (int, error) {
	n, err := c.configMap.GetInt64(DispatchRate)
	return int(n), errors.WithStack(err)
}

// HeartbeatInterval returns how often services are probed. Zero disables
// the heartbeat.
func (c *ReadOnlyConfig) HeartbeatInterval() (time.Duration, error) {
	return c.configMap.GetSeconds(HeartbeatInterval)
}

// HostsMaxJobs returns the capacity given to hosts that register without
// one.
func (c *ReadOnlyConfig) HostsMaxJobs() (int64, error) {
	return c.configMap.GetInt64(HostsMaxJobs)
}

// FailoverMaxAttempts returns how many failures a WARNING service may
// accumulate before it is put in ERROR.
func (c *ReadOnlyConfig) FailoverMaxAttempts() (int, error) {
	n, err := c.configMap.GetInt64(FailoverMaxAttempts)
	return int(n), errors.WithStack(err)
}

// FailoverErrorStates reports whether services may be put in ERROR at all.
func (c *ReadOnlyConfig) FailoverErrorStates() (bool, error) {
	return c.configMap.GetBool(FailoverErrorStates)
}

// FailoverNoErrorStateTypes returns the service types never put in ERROR.
func (c *ReadOnlyConfig) FailoverNoErrorStateTypes() ([]string, error) {
	return c.configMap.GetList(FailoverNoErrorTypes)
}

// JobsParentlessLifetime returns how long terminated parentless jobs are
// kept. Zero keeps them forever.
func (c *ReadOnlyConfig) JobsParentlessLifetime() (time.Duration, error) {
	n, err := c.configMap.GetInt64(JobsParentlessLifetime)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return time.Duration(n) * 24 * time.Hour, nil
}

// NewReadOnlyConfig creates a read only configuration with values
func NewReadOnlyConfig(values map[string]string, schema config.Schema) (*ReadOnlyConfig, error) {
	configMap, err := config.New(schema, values)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	return &ReadOnlyConfig{
		configMap: configMap,
	}, nil
}

// Config holds cluster-wide configuration values.
type Config struct {
	*ReadOnlyConfig
	clusterTx Tx // DB transaction the values in this config are bound to.
}

// NewConfig creates a Config with sane defaults.
func NewConfig(configMap config.Map, options ...Option) *Config {
	opts := newOptions()
	opts.configMap = configMap
	for _, option := range options {
		option(opts)
	}

	return &Config{
		ReadOnlyConfig: &ReadOnlyConfig{
			configMap: opts.configMap,
		},
		clusterTx: opts.clusterTx,
	}
}

// Load a new Config object with the current cluster configuration
// values fetched from the database.
func Load(tx Tx, schema config.Schema) (*Config, error) {
	values, err := tx.Config()
	if err != nil {
		return nil, errors.Wrap(err, "cannot fetch config from database")
	}

	configMap, err := config.New(schema, values)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	return &Config{
		ReadOnlyConfig: &ReadOnlyConfig{
			configMap: configMap,
		},
		clusterTx: tx,
	}, nil
}

// Dump current configuration keys and their values. Keys with values matching
// their defaults are omitted.
func (c *Config) Dump() (map[string]interface{}, error) {
	return c.configMap.Dump()
}

// ReadOnly returns the underlying readonly map
func (c *Config) ReadOnly() *ReadOnlyConfig {
	return &ReadOnlyConfig{
		configMap: c.ReadOnlyConfig.configMap.Clone(),
	}
}

// Replace the current configuration with the given values.
//
// Return what has actually changed.
func (c *Config) Replace(values map[string]interface{}) (map[string]string, error) {
	return c.update(values)
}

// Patch changes only the configuration keys in the given map.
//
// Return what has actually changed.
func (c *Config) Patch(patch map[string]interface{}) (map[string]string, error) {
	values, err := c.Dump()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	for name, value := range patch {
		values[name] = value
	}
	return c.update(values)
}

func (c *Config) update(values map[string]interface{}) (map[string]string, error) {
	changed, err := c.configMap.Change(values)
	if err != nil {
		return nil, err
	}

	if err := c.clusterTx.UpdateConfig(changed); err != nil {
		return nil, errors.Wrap(err, "cannot persist configuration changes")
	}

	return changed, nil
}

// Schema defines the cluster-wide configuration keys.
var Schema = config.Schema{
	DispatchInterval:       {Type: config.Int64, Default: "5", Validator: nonNegative},
	DispatchJobsLimit:      {Type: config.Int64, Default: "100", Validator: positive},
	DispatchRate:           {Type: config.Int64, Default: "50", Validator: positive},
	HeartbeatInterval:      {Type: config.Int64, Default: "60", Validator: nonNegative},
	HostsMaxJobs:           {Type: config.Int64, Default: strconv.Itoa(runtime.NumCPU()), Validator: positive},
	FailoverMaxAttempts:    {Type: config.Int64, Default: "1", Validator: positive},
	FailoverErrorStates:    {Type: config.Bool, Default: "true"},
	FailoverNoErrorTypes:   {Type: config.List},
	JobsParentlessLifetime: {Type: config.Int64, Default: "0", Validator: nonNegative},
}

func nonNegative(value string) error {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return errors.Errorf("value is not a number")
	}
	if n < 0 {
		return errors.Errorf("value must not be negative")
	}
	return nil
}

func positive(value string) error {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return errors.Errorf("value is not a number")
	}
	if n <= 0 {
		return errors.Errorf("value must be greater than zero")
	}
	return nil
}

// Source reads the configuration from the registry database on demand, so
// changes made through any registry process are picked up by all of them.
type Source struct {
	cluster db.ClusterTransactioner
}

// NewSource creates a Source reading through the given cluster.
func NewSource(cluster db.ClusterTransactioner) *Source {
	return &Source{
		cluster: cluster,
	}
}

// Read the current configuration.
func (s *Source) Read() (*ReadOnlyConfig, error) {
	var config *Config
	err := s.cluster.Transaction(func(tx *db.ClusterTx) error {
		var err error
		config, err = Load(tx, Schema)
		return err
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return config.ReadOnly(), nil
}
