package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/dispatcher"
	"github.com/spoke-d/dispatchd/pkg/api/daemon/hosts"
	"github.com/spoke-d/dispatchd/pkg/api/daemon/services"
	"github.com/stretchr/testify/require"
)

type fakeRegistrar struct {
	failures     int
	hosts        []hosts.Registration
	services     []services.Registration
	unregistered []string
}

func (r *fakeRegistrar) RegisterHost(reg hosts.Registration) (db.Host, error) {
	if r.failures > 0 {
		r.failures--
		return db.Host{}, errors.New("connection refused")
	}
	r.hosts = append(r.hosts, reg)
	return db.Host{BaseURL: reg.BaseURL, MaxJobs: reg.MaxJobs}, nil
}

func (r *fakeRegistrar) RegisterService(reg services.Registration) (db.Service, error) {
	r.services = append(r.services, reg)
	return db.Service{ServiceType: reg.ServiceType, Path: reg.Path}, nil
}

func (r *fakeRegistrar) UnregisterService(serviceType, host string) error {
	r.unregistered = append(r.unregistered, serviceType+"@"+host)
	return nil
}

type nopSleeper struct{}

func (nopSleeper) Sleep(time.Duration) {}

func post(t *testing.T, handler http.Handler, path string, job db.Job) int {
	t.Helper()

	body, err := json.Marshal(job)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set(dispatcher.HeaderJob, strconv.FormatInt(job.ID, 10))
	req.Header.Set(dispatcher.HeaderCreator, "alice")
	req.Header.Set(dispatcher.HeaderOrganization, "acme")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestDispatchEndpoint(t *testing.T) {
	var received []Request
	outcome := error(nil)

	w := New("http://worker-1:8080/", &fakeRegistrar{})
	err := w.Handle(Capability{
		ServiceType: "transcode",
		Path:        "/svc/transcode/",
		JobProducer: true,
		Handler: HandlerFunc(func(ctx context.Context, req Request) error {
			received = append(received, req)
			return outcome
		}),
	})
	require.NoError(t, err)

	t.Run("probe", func(t *testing.T) {
		rec := httptest.NewRecorder()
		w.ServeHTTP(rec, httptest.NewRequest("HEAD", "/svc/transcode/dispatch", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("accepted", func(t *testing.T) {
		outcome = nil
		code := post(t, w, "/svc/transcode/dispatch", db.Job{ID: 4, Type: "transcode", Status: db.StatusDispatching})
		require.Equal(t, http.StatusNoContent, code)
		require.Len(t, received, 1)
		require.Equal(t, int64(4), received[0].Job.ID)
		require.Equal(t, db.StatusDispatching, received[0].Job.Status)
		require.Equal(t, "alice", received[0].Creator)
		require.Equal(t, "acme", received[0].Organization)
	})

	t.Run("busy", func(t *testing.T) {
		outcome = errors.Wrap(ErrBusy, "queue full")
		code := post(t, w, "/svc/transcode/dispatch", db.Job{ID: 5})
		require.Equal(t, http.StatusServiceUnavailable, code)
	})

	t.Run("precondition", func(t *testing.T) {
		outcome = ErrPrecondition
		code := post(t, w, "/svc/transcode/dispatch", db.Job{ID: 6})
		require.Equal(t, http.StatusPreconditionFailed, code)
	})

	t.Run("failure", func(t *testing.T) {
		outcome = errors.New("disk full")
		code := post(t, w, "/svc/transcode/dispatch", db.Job{ID: 7})
		require.Equal(t, http.StatusInternalServerError, code)
	})

	t.Run("mismatched job header", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/svc/transcode/dispatch", bytes.NewReader([]byte(`{"id": 8}`)))
		req.Header.Set(dispatcher.HeaderJob, "9")
		rec := httptest.NewRecorder()
		w.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		w.ServeHTTP(rec, httptest.NewRequest("HEAD", "/svc/other/dispatch", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleRejectsDuplicates(t *testing.T) {
	w := New("http://worker-1:8080", &fakeRegistrar{})
	handler := HandlerFunc(func(context.Context, Request) error { return nil })

	require.NoError(t, w.Handle(Capability{ServiceType: "transcode", Handler: handler}))
	require.Error(t, w.Handle(Capability{ServiceType: "transcode", Path: "/other", Handler: handler}))
	require.Error(t, w.Handle(Capability{ServiceType: "thumbnail"}))
	require.Error(t, w.Handle(Capability{Handler: handler}))
}

func TestRegister(t *testing.T) {
	registrar := &fakeRegistrar{failures: 2}
	w := New("http://worker-1:8080", registrar,
		WithNodeName("worker-1"),
		WithMaxJobs(3),
		WithSleeper(nopSleeper{}),
	)
	handler := HandlerFunc(func(context.Context, Request) error { return nil })
	require.NoError(t, w.Handle(Capability{ServiceType: "transcode", Path: "svc/transcode", JobProducer: true, Handler: handler}))
	require.NoError(t, w.Handle(Capability{ServiceType: "thumbnail", Handler: handler}))

	require.NoError(t, w.Register(context.Background()))
	require.Equal(t, []hosts.Registration{
		{BaseURL: "http://worker-1:8080", NodeName: "worker-1", MaxJobs: 3},
	}, registrar.hosts)
	require.Equal(t, []services.Registration{
		{ServiceType: "transcode", Host: "http://worker-1:8080", Path: "/svc/transcode", JobProducer: true},
		{ServiceType: "thumbnail", Host: "http://worker-1:8080", Path: ""},
	}, registrar.services)

	require.NoError(t, w.Unregister())
	require.Equal(t, []string{
		"transcode@http://worker-1:8080",
		"thumbnail@http://worker-1:8080",
	}, registrar.unregistered)
}

func TestRegisterGivesUp(t *testing.T) {
	registrar := &fakeRegistrar{failures: 100}
	w := New("http://worker-1:8080", registrar, WithRetry(3, time.Millisecond), WithSleeper(nopSleeper{}))
	require.Error(t, w.Register(context.Background()))
	require.Len(t, registrar.hosts, 0)
}

func TestRegisterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := New("http://worker-1:8080", &fakeRegistrar{}, WithSleeper(nopSleeper{}))
	err := w.Register(ctx)
	require.Equal(t, context.Canceled, errors.Cause(err))
}
