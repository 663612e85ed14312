package main

import (
	"bytes"
	libjson "encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/pkg/api/apitest"
	apidaemon "github.com/spoke-d/dispatchd/pkg/api/daemon"
	"github.com/stretchr/testify/require"
)

const workerURL = "http://worker-1:9000"

func setupServer(t *testing.T) string {
	t.Helper()

	d := apitest.NewDaemon(t)
	server := apitest.NewServer(t, d, apidaemon.Services(log.NewNopLogger()))
	return server.URL
}

func execute(t *testing.T, address string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	cmd := newRootCmd()
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(append([]string{"--address", address}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "127.0.0.1:1", "--format", "xml", "host", "list")
	if err == nil {
		t.Fatal("expected err")
	}
}

func TestHostAndServiceCommands(t *testing.T) {
	address := setupServer(t)

	_, err := execute(t, address, "host", "register", workerURL, "--node", "worker-1", "--max-jobs", "4")
	require.NoError(t, err)
	_, err = execute(t, address, "service", "register", "backup", workerURL, "--path", "/backup")
	require.NoError(t, err)

	out, err := execute(t, address, "--format", "json", "host", "list")
	require.NoError(t, err)

	var hosts []db.Host
	require.NoError(t, libjson.Unmarshal([]byte(out), &hosts))
	require.Len(t, hosts, 1)
	if expected, actual := int64(4), hosts[0].MaxJobs; expected != actual {
		t.Errorf("expected: %d, actual: %d", expected, actual)
	}

	out, err = execute(t, address, "service", "list", "--type", "backup")
	require.NoError(t, err)
	if expected, actual := true, strings.Contains(out, "/backup"); expected != actual {
		t.Errorf("expected: %t, actual: %t\n%s", expected, actual, out)
	}

	_, err = execute(t, address, "host", "maintenance", workerURL, "true")
	require.NoError(t, err)

	out, err = execute(t, address, "--format", "json", "host", "show", workerURL)
	require.NoError(t, err)
	if expected, actual := true, strings.Contains(out, `"maintenance": true`); expected != actual {
		t.Errorf("expected: %t, actual: %t\n%s", expected, actual, out)
	}

	_, err = execute(t, address, "host", "maintenance", workerURL, "maybe")
	if err == nil {
		t.Fatal("expected err")
	}
}

func TestJobCommands(t *testing.T) {
	address := setupServer(t)

	_, err := execute(t, address, "host", "register", workerURL, "--max-jobs", "4")
	require.NoError(t, err)
	_, err = execute(t, address, "service", "register", "backup", workerURL, "--job-producer")
	require.NoError(t, err)

	out, err := execute(t, address, "--format", "json", "job", "create", "backup", "snapshot", "vol-1", "--host", workerURL)
	require.NoError(t, err)

	var job db.Job
	require.NoError(t, libjson.Unmarshal([]byte(out), &job))
	if expected, actual := db.StatusQueued, job.Status; expected != actual {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
	require.Equal(t, []string{"vol-1"}, job.Arguments)

	idArg := strconv.FormatInt(job.ID, 10)

	out, err = execute(t, address, "--format", "json", "job", "update", idArg, "--status", "running")
	require.NoError(t, err)
	require.NoError(t, libjson.Unmarshal([]byte(out), &job))
	if expected, actual := db.StatusRunning, job.Status; expected != actual {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}

	out, err = execute(t, address, "job", "count", "--status", "running")
	require.NoError(t, err)
	if expected, actual := "1", strings.TrimSpace(out); expected != actual {
		t.Errorf("expected: %q, actual: %q", expected, actual)
	}

	out, err = execute(t, address, "job", "show", idArg)
	require.NoError(t, err)
	if expected, actual := true, strings.Contains(out, "snapshot"); expected != actual {
		t.Errorf("expected: %t, actual: %t\n%s", expected, actual, out)
	}

	out, err = execute(t, address, "incident", "report", idArg, "disk.full", "--severity", "warning", "--param", "device=/dev/sda")
	require.NoError(t, err)
	if expected, actual := true, strings.Contains(out, "WARNING"); expected != actual {
		t.Errorf("expected: %t, actual: %t\n%s", expected, actual, out)
	}

	out, err = execute(t, address, "incident", "list", idArg)
	require.NoError(t, err)
	if expected, actual := true, strings.Contains(out, "disk.full"); expected != actual {
		t.Errorf("expected: %t, actual: %t\n%s", expected, actual, out)
	}

	out, err = execute(t, address, "job", "remove", idArg)
	require.NoError(t, err)
	if expected, actual := "Removed 1 jobs", strings.TrimSpace(out); expected != actual {
		t.Errorf("expected: %q, actual: %q", expected, actual)
	}

	_, err = execute(t, address, "job", "show", idArg)
	if err == nil {
		t.Fatal("expected err")
	}
}

func TestConfigCommands(t *testing.T) {
	address := setupServer(t)

	_, err := execute(t, address, "config", "set", "dispatch.jobs_limit=7")
	require.NoError(t, err)

	out, err := execute(t, address, "--format", "yaml", "config", "show")
	require.NoError(t, err)
	if expected, actual := true, strings.Contains(out, "dispatch.jobs_limit"); expected != actual {
		t.Errorf("expected: %t, actual: %t\n%s", expected, actual, out)
	}

	_, err = execute(t, address, "config", "set", "unknown.key=1")
	if err == nil {
		t.Fatal("expected err")
	}
}

func TestVersionUnreachable(t *testing.T) {
	out, err := execute(t, "127.0.0.1:1", "--format", "json", "version")
	require.NoError(t, err)

	var info versionInfo
	require.NoError(t, libjson.Unmarshal([]byte(out), &info))
	if expected, actual := "unreachable", info.Server; expected != actual {
		t.Errorf("expected: %q, actual: %q", expected, actual)
	}
	if expected, actual := Version, info.Client; expected != actual {
		t.Errorf("expected: %q, actual: %q", expected, actual)
	}
}
