// Package worker is embedded by processes that execute jobs. It serves the
// dispatch endpoint the registry calls and registers the process and its
// services with the registry on startup.
package worker

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/dispatcher"
	"github.com/spoke-d/dispatchd/internal/json"
	"github.com/spoke-d/dispatchd/internal/retrier"
	"github.com/spoke-d/dispatchd/pkg/api/daemon/hosts"
	"github.com/spoke-d/dispatchd/pkg/api/daemon/services"
)

var (
	// ErrBusy tells the registry to try another service.
	ErrBusy = errors.New("worker busy")

	// ErrPrecondition tells the registry the job can never run, so it is
	// failed instead of being offered elsewhere.
	ErrPrecondition = errors.New("job precondition failed")
)

// Request is a job handed over by the registry.
type Request struct {
	Job          db.Job
	Creator      string
	Organization string
	Correlation  string
}

// Handler accepts jobs for a single service type. Returning nil accepts
// the job, the work itself is expected to carry on in the background and
// report progress through the registry.
type Handler interface {
	Dispatch(context.Context, Request) error
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(context.Context, Request) error

// Dispatch calls f.
func (f HandlerFunc) Dispatch(ctx context.Context, req Request) error {
	return f(ctx, req)
}

// Capability is a service offered by the worker.
type Capability struct {
	ServiceType string
	Path        string
	JobProducer bool
	Handler     Handler
}

// Registrar announces hosts and services to the registry.
type Registrar interface {
	RegisterHost(hosts.Registration) (db.Host, error)
	RegisterService(services.Registration) (db.Service, error)
	UnregisterService(serviceType, host string) error
}

// Worker serves the dispatch endpoints of a set of capabilities.
type Worker struct {
	baseURL   string
	address   string
	nodeName  string
	maxJobs   int64
	registrar Registrar

	mutex        sync.Mutex
	capabilities []Capability
	router       *mux.Router

	retrier *retrier.Retrier
	logger  log.Logger
}

// New creates a Worker reachable by the registry at baseURL.
func New(baseURL string, registrar Registrar, options ...Option) *Worker {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	return &Worker{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		address:   opts.address,
		nodeName:  opts.nodeName,
		maxJobs:   opts.maxJobs,
		registrar: registrar,
		router:    mux.NewRouter(),
		retrier:   retrier.New(opts.sleeper, opts.attempts, opts.backoff),
		logger:    opts.logger,
	}
}

// Handle adds a capability and mounts its dispatch endpoint.
func (w *Worker) Handle(capability Capability) error {
	if capability.ServiceType == "" {
		return errors.Errorf("service type must not be empty")
	}
	if capability.Handler == nil {
		return errors.Errorf("service %q has no handler", capability.ServiceType)
	}
	path := "/" + strings.Trim(capability.Path, "/")
	if path == "/" {
		path = ""
	}
	capability.Path = path

	w.mutex.Lock()
	defer w.mutex.Unlock()

	for _, c := range w.capabilities {
		if c.ServiceType == capability.ServiceType {
			return errors.Errorf("service %q is already handled", capability.ServiceType)
		}
	}
	w.capabilities = append(w.capabilities, capability)

	endpoint := path + dispatcher.Endpoint
	w.router.HandleFunc(endpoint, w.probe).Methods("HEAD")
	w.router.HandleFunc(endpoint, w.dispatch(capability)).Methods("POST")
	return nil
}

// ServeHTTP serves the dispatch endpoints.
func (w *Worker) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	w.router.ServeHTTP(rw, req)
}

// Register announces the host and then every capability to the registry,
// retrying while the registry is unreachable.
func (w *Worker) Register(ctx context.Context) error {
	var ctxErr error
	err := w.retrier.Run(func() error {
		if ctxErr = ctx.Err(); ctxErr != nil {
			return nil
		}
		return w.register()
	})
	if ctxErr != nil {
		return errors.WithStack(ctxErr)
	}
	return errors.Wrap(err, "failed to register worker")
}

func (w *Worker) register() error {
	host, err := w.registrar.RegisterHost(hosts.Registration{
		BaseURL:  w.baseURL,
		Address:  w.address,
		NodeName: w.nodeName,
		MaxJobs:  w.maxJobs,
	})
	if err != nil {
		level.Debug(w.logger).Log("msg", "Failed to register host", "host", w.baseURL, "err", err)
		return errors.WithStack(err)
	}
	level.Info(w.logger).Log("msg", "Registered host", "host", host.BaseURL, "max_jobs", host.MaxJobs)

	for _, capability := range w.snapshot() {
		service, err := w.registrar.RegisterService(services.Registration{
			ServiceType: capability.ServiceType,
			Host:        w.baseURL,
			Path:        capability.Path,
			JobProducer: capability.JobProducer,
		})
		if err != nil {
			return errors.Wrapf(err, "failed to register service %q", capability.ServiceType)
		}
		level.Info(w.logger).Log("msg", "Registered service", "type", service.ServiceType, "path", service.Path)
	}
	return nil
}

// Unregister takes every capability offline. Jobs still running on them
// are recovered by the registry.
func (w *Worker) Unregister() error {
	var errs []string
	for _, capability := range w.snapshot() {
		if err := w.registrar.UnregisterService(capability.ServiceType, w.baseURL); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", capability.ServiceType, err))
		}
	}
	if len(errs) > 0 {
		return errors.Errorf("failed to unregister services: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (w *Worker) snapshot() []Capability {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	return append([]Capability(nil), w.capabilities...)
}

func (w *Worker) probe(rw http.ResponseWriter, req *http.Request) {
	rw.WriteHeader(http.StatusOK)
}

func (w *Worker) dispatch(capability Capability) http.HandlerFunc {
	return func(rw http.ResponseWriter, req *http.Request) {
		defer req.Body.Close()

		var job db.Job
		if err := json.Read(req.Body, &job); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		if header := req.Header.Get(dispatcher.HeaderJob); header != "" {
			if id, err := strconv.ParseInt(header, 10, 64); err != nil || id != job.ID {
				http.Error(rw, "job id does not match the body", http.StatusBadRequest)
				return
			}
		}

		err := capability.Handler.Dispatch(req.Context(), Request{
			Job:          job,
			Creator:      req.Header.Get(dispatcher.HeaderCreator),
			Organization: req.Header.Get(dispatcher.HeaderOrganization),
			Correlation:  req.Header.Get(dispatcher.HeaderCorrelation),
		})
		switch errors.Cause(err) {
		case nil:
			level.Debug(w.logger).Log("msg", "Accepted job", "type", capability.ServiceType, "job", job.ID)
			rw.WriteHeader(http.StatusNoContent)
		case ErrBusy:
			rw.WriteHeader(http.StatusServiceUnavailable)
		case ErrPrecondition:
			level.Info(w.logger).Log("msg", "Job precondition failed", "type", capability.ServiceType, "job", job.ID)
			rw.WriteHeader(http.StatusPreconditionFailed)
		default:
			level.Error(w.logger).Log("msg", "Failed to accept job", "type", capability.ServiceType, "job", job.ID, "err", err)
			http.Error(rw, err.Error(), http.StatusInternalServerError)
		}
	}
}
