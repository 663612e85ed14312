package api

import (
	"context"
	"net/http"
	"path"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// Version is the only API version served.
const Version = "1.0"

type router struct {
	daemon Daemon
	mux    *mux.Router
	logger log.Logger
}

// DaemonHandler creates the http.Handler serving services for d.
func DaemonHandler(d Daemon, services []Service, options ...Option) http.Handler {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	r := &router{
		daemon: d,
		mux:    mux.NewRouter(),
		logger: opts.logger,
	}
	r.mux.StrictSlash(false)
	r.mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		SyncResponse(true, []string{"/" + Version}).Render(w)
	})
	for endpoint, f := range opts.handlerFns {
		r.mux.HandleFunc(endpoint, f)
	}
	r.mux.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		level.Info(r.logger).Log("msg", "Sending top level 404", "url", req.URL)
		w.Header().Set("Content-Type", "application/json")
		NotFound(nil).Render(w)
	})

	for _, service := range services {
		r.add(service)
	}
	return r.mux
}

// DaemonRestServer wraps DaemonHandler in an http.Server.
func DaemonRestServer(d Daemon, services []Service, options ...Option) *http.Server {
	return &http.Server{
		Handler: DaemonHandler(d, services, options...),
	}
}

func (r *router) add(service Service) {
	uri := path.Join("/", Version, service.Name())
	level.Debug(r.logger).Log("msg", "Registering service", "uri", uri)

	r.mux.HandleFunc(uri, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		// Requests wait for the database to be opened.
		select {
		case <-r.daemon.SetupChan():
		default:
			Unavailable(errors.New("daemon setup in progress")).Render(w)
			return
		}

		ctx := context.WithValue(req.Context(), DaemonKey, r.daemon)
		resp := dispatch(ctx, service, req)
		if err := resp.Render(w); err != nil {
			if err := InternalError(err).Render(w); err != nil {
				level.Error(r.logger).Log("msg", "failed writing error for error, giving up", "method", req.Method, "uri", uri)
			}
		}
	})
}

func dispatch(ctx context.Context, service Service, req *http.Request) Response {
	switch req.Method {
	case http.MethodGet, http.MethodHead:
		return service.Get(ctx, req)
	case http.MethodPut:
		return service.Put(ctx, req)
	case http.MethodPost:
		return service.Post(ctx, req)
	case http.MethodDelete:
		return service.Delete(ctx, req)
	case http.MethodPatch:
		return service.Patch(ctx, req)
	}
	return NotFound(errors.Errorf("method %q not found for %q", req.Method, req.URL.Path))
}
