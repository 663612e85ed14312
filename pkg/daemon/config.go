package daemon

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	clusterconfig "github.com/spoke-d/dispatchd/internal/cluster/config"
	"github.com/spoke-d/dispatchd/internal/db"
	yaml "gopkg.in/yaml.v2"
)

// Config holds the settings local to a single registry process. The
// settings shared by every process live in the database, the Cluster
// section only seeds or overrides them.
type Config struct {
	// Dir holds the lock file and, unless Database says otherwise, the
	// registry database.
	Dir string `yaml:"dir"`

	// Database is the path of the shared registry database.
	Database string `yaml:"database"`

	// BusyTimeout is how long a writer waits on a locked database.
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// Address the REST API listens on.
	Address string `yaml:"address"`

	// DebugAddress the pprof endpoint listens on, empty disables it.
	DebugAddress string `yaml:"debug_address"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// IncidentTexts lists YAML files with localized incident texts.
	IncidentTexts []string `yaml:"incident_texts"`

	// Cluster overrides cluster-wide configuration keys.
	Cluster map[string]string `yaml:"cluster"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Dir:         "/var/lib/dispatchd",
		BusyTimeout: 30 * time.Second,
		Address:     "127.0.0.1:8080",
		LogLevel:    "info",
	}
}

// LoadConfig decodes a YAML configuration on top of the defaults.
func LoadConfig(r io.Reader) (Config, error) {
	bytes, err := ioutil.ReadAll(r)
	if err != nil {
		return Config{}, errors.WithStack(err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return Config{}, errors.Wrap(err, "failed to parse config")
	}
	if err := config.validate(); err != nil {
		return Config{}, errors.WithStack(err)
	}
	return config, nil
}

// ReadConfigFile loads the configuration stored at path.
func ReadConfigFile(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, errors.WithStack(err)
	}
	defer file.Close()
	return LoadConfig(file)
}

// DatabasePath returns the path of the registry database.
func (c Config) DatabasePath() string {
	if c.Database != "" {
		return c.Database
	}
	return filepath.Join(c.Dir, "dispatchd.db")
}

// LockPath returns the path of the lock file guarding the state directory.
func (c Config) LockPath() string {
	return filepath.Join(c.Dir, "dispatchd.lock")
}

func (c Config) validate() error {
	if c.Dir == "" {
		return errors.Errorf("dir must not be empty")
	}
	if c.BusyTimeout < 0 {
		return errors.Errorf("busy_timeout must not be negative")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	for key := range c.Cluster {
		if _, ok := clusterconfig.Schema[key]; !ok {
			return errors.Errorf("unknown cluster config key %q", key)
		}
	}
	return nil
}

// ParseLogLevel maps a level name onto a go-kit level filter.
func ParseLogLevel(name string) (level.Option, error) {
	switch name {
	case "debug":
		return level.AllowDebug(), nil
	case "", "info":
		return level.AllowInfo(), nil
	case "warn":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	}
	return nil, errors.Errorf("unknown log level %q", name)
}

// applyClusterOverrides patches the shared configuration with the given
// values and returns the keys that changed.
func applyClusterOverrides(cluster db.ClusterTransactioner, overrides map[string]string) (map[string]string, error) {
	if len(overrides) == 0 {
		return nil, nil
	}
	patch := make(map[string]interface{}, len(overrides))
	for k, v := range overrides {
		patch[k] = v
	}

	var changed map[string]string
	err := cluster.Transaction(func(tx *db.ClusterTx) error {
		config, err := clusterconfig.Load(tx, clusterconfig.Schema)
		if err != nil {
			return errors.WithStack(err)
		}
		changed, err = config.Patch(patch)
		return err
	})
	return changed, errors.Wrap(err, "failed to apply cluster config overrides")
}
