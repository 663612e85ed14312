package daemon

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	clusterconfig "github.com/spoke-d/dispatchd/internal/cluster/config"
	internalevents "github.com/spoke-d/dispatchd/internal/events"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T) Config {
	t.Helper()

	dir, err := ioutil.TempDir("", "dispatchd")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	config := DefaultConfig()
	config.Dir = dir
	config.Address = ""
	config.BusyTimeout = 5 * time.Second
	return config
}

func TestDaemonInit(t *testing.T) {
	config := newTestConfig(t)
	config.Cluster = map[string]string{
		clusterconfig.DispatchInterval: "0",
	}

	d := New("0.1.0", config, nil, nil)
	require.NoError(t, d.Init())
	defer d.Stop()

	select {
	case <-d.SetupChan():
	default:
		t.Fatal("expected setup to be complete")
	}

	_, err := d.Registry().RegisterHost("http://worker-1:8080", "10.0.0.1", "worker-1", 2)
	require.NoError(t, err)

	hosts, err := d.Registry().Hosts()
	require.NoError(t, err)
	require.Len(t, hosts, 1)

	cfg, err := clusterconfig.NewSource(d.Cluster()).Read()
	require.NoError(t, err)
	interval, err := cfg.DispatchInterval()
	require.NoError(t, err)
	require.Equal(t, time.Duration(0), interval)
}

func TestDaemonLocksStateDir(t *testing.T) {
	config := newTestConfig(t)

	first := New("0.1.0", config, nil, nil)
	require.NoError(t, first.Init())
	defer first.Stop()

	second := New("0.1.0", config, nil, nil)
	require.Error(t, second.Init())
}

func TestDaemonUnsafeShutdown(t *testing.T) {
	d := New("0.1.0", newTestConfig(t), nil, nil)

	d.UnsafeShutdown()
	d.UnsafeShutdown()

	select {
	case <-d.ShutdownChan():
	default:
		t.Fatal("expected a shutdown request")
	}
	select {
	case <-d.ShutdownChan():
		t.Fatal("expected repeated requests to be dropped")
	default:
	}
}

func TestDaemonReloadsConfig(t *testing.T) {
	config := newTestConfig(t)
	path := filepath.Join(config.Dir, "dispatchd.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte("dir: "+config.Dir+"\naddress: \"\"\n"), 0600))

	d := New("0.1.0", config, nil, nil, WithConfigPath(path))
	require.NoError(t, d.Init())
	defer d.Stop()

	content := "dir: " + config.Dir + "\naddress: \"\"\ncluster:\n  dispatch.jobs_limit: 7\n"
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0600))

	deadline := time.Now().Add(5 * time.Second)
	for {
		cfg, err := clusterconfig.NewSource(d.Cluster()).Read()
		require.NoError(t, err)
		limit, err := cfg.DispatchJobsLimit()
		require.NoError(t, err)
		if limit == 7 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected jobs limit to be reloaded, got %d", limit)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

type recordingSender struct {
	events []map[string]string
}

func (s *recordingSender) Send(eventType, action string, metadata interface{}) {
	if eventType != internalevents.TypeLogging || action != "log" {
		return
	}
	s.events = append(s.events, metadata.(map[string]string))
}

func TestLoggingHook(t *testing.T) {
	sender := &recordingSender{}
	logger := NewLoggingHook(sender)

	require.NoError(t, logger.Log("msg", "hello", "job", 12))
	require.Equal(t, []map[string]string{
		{"msg": "hello", "job": "12"},
	}, sender.events)
}
