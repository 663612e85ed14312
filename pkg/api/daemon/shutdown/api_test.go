package shutdown_test

import (
	"net/http"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/spoke-d/dispatchd/pkg/api"
	"github.com/spoke-d/dispatchd/pkg/api/apitest"
	"github.com/spoke-d/dispatchd/pkg/api/daemon/shutdown"
	"github.com/stretchr/testify/require"
)

func TestShutdown(t *testing.T) {
	d := apitest.NewDaemon(t)
	server := apitest.NewServer(t, d, []api.Service{
		shutdown.NewAPI("shutdown", log.NewNopLogger()),
	})

	resp, err := http.Post(server.URL+"/1.0/shutdown", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	if expected, actual := http.StatusOK, resp.StatusCode; expected != actual {
		t.Errorf("expected: %d, actual: %d", expected, actual)
	}
	if expected, actual := 1, d.Shutdowns(); expected != actual {
		t.Errorf("expected: %d, actual: %d", expected, actual)
	}

	resp, err = http.Get(server.URL + "/1.0/shutdown")
	require.NoError(t, err)
	resp.Body.Close()

	if expected, actual := 1, d.Shutdowns(); expected != actual {
		t.Errorf("expected: %d, actual: %d", expected, actual)
	}
}
