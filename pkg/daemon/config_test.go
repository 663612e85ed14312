package daemon

import (
	"strings"
	"testing"
	"time"

	clusterconfig "github.com/spoke-d/dispatchd/internal/cluster/config"
	"github.com/spoke-d/dispatchd/internal/db"
	dtesting "github.com/spoke-d/dispatchd/internal/testing"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config, err := LoadConfig(strings.NewReader(""))
		require.NoError(t, err)
		require.Equal(t, DefaultConfig(), config)
		require.Equal(t, "/var/lib/dispatchd/dispatchd.db", config.DatabasePath())
		require.Equal(t, "/var/lib/dispatchd/dispatchd.lock", config.LockPath())
	})

	t.Run("values", func(t *testing.T) {
		config, err := LoadConfig(strings.NewReader(`
dir: /tmp/registry
database: /srv/shared/registry.db
busy_timeout: 5s
address: 0.0.0.0:9000
log_level: debug
incident_texts:
- /etc/dispatchd/texts.yaml
cluster:
  dispatch.interval: 10
  failover.error_states: false
`))
		require.NoError(t, err)
		require.Equal(t, 5*time.Second, config.BusyTimeout)
		require.Equal(t, "/srv/shared/registry.db", config.DatabasePath())
		require.Equal(t, "0.0.0.0:9000", config.Address)
		require.Equal(t, []string{"/etc/dispatchd/texts.yaml"}, config.IncidentTexts)
		require.Equal(t, map[string]string{
			clusterconfig.DispatchInterval:    "10",
			clusterconfig.FailoverErrorStates: "false",
		}, config.Cluster)
	})

	t.Run("unknown cluster key", func(t *testing.T) {
		_, err := LoadConfig(strings.NewReader("cluster:\n  dispatch.speed: 3\n"))
		require.Error(t, err)
	})

	t.Run("unknown log level", func(t *testing.T) {
		_, err := LoadConfig(strings.NewReader("log_level: loud\n"))
		require.Error(t, err)
	})

	t.Run("empty dir", func(t *testing.T) {
		_, err := LoadConfig(strings.NewReader("dir: \"\"\n"))
		require.Error(t, err)
	})
}

func TestApplyClusterOverrides(t *testing.T) {
	cluster, cleanup := dtesting.NewCluster(t)
	defer cleanup()

	changed, err := applyClusterOverrides(cluster, map[string]string{
		clusterconfig.DispatchJobsLimit: "25",
	})
	require.NoError(t, err)
	require.Equal(t, map[string]string{clusterconfig.DispatchJobsLimit: "25"}, changed)

	// Applying the same overrides again changes nothing.
	changed, err = applyClusterOverrides(cluster, map[string]string{
		clusterconfig.DispatchJobsLimit: "25",
	})
	require.NoError(t, err)
	require.Len(t, changed, 0)

	var values map[string]string
	err = cluster.Transaction(func(tx *db.ClusterTx) error {
		var err error
		values, err = tx.Config()
		return err
	})
	require.NoError(t, err)
	require.Equal(t, "25", values[clusterconfig.DispatchJobsLimit])

	_, err = applyClusterOverrides(cluster, map[string]string{
		clusterconfig.DispatchJobsLimit: "many",
	})
	require.Error(t, err)
}
