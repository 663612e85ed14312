package hosts

import (
	"context"
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/json"
	"github.com/spoke-d/dispatchd/pkg/api"
)

// API defines the hosts API
type API struct {
	api.DefaultService
	name   string
	logger log.Logger
}

// NewAPI creates a API with sane defaults
func NewAPI(name string, options ...Option) *API {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	return &API{
		name:   name,
		logger: opts.logger,
	}
}

// Name returns the API name
func (a *API) Name() string {
	return a.name
}

// Get returns every registered host, or the details of the host named by
// the "host" query parameter.
func (a *API) Get(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	if baseURL := req.FormValue("host"); baseURL != "" {
		host, err := d.Registry().Host(baseURL)
		if err != nil {
			return api.SmartError(err)
		}
		services, err := d.Registry().ServicesByHost(baseURL)
		if err != nil {
			return api.SmartError(err)
		}
		return api.SyncResponse(true, HostDetails{
			Host:     host,
			Services: services,
		})
	}

	hosts, err := d.Registry().Hosts()
	if err != nil {
		return api.SmartError(err)
	}
	return api.SyncResponse(true, hosts)
}

// Post registers a host, or refreshes an existing registration.
func (a *API) Post(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	var registration Registration
	if err := json.Read(req.Body, &registration); err != nil {
		return api.BadRequest(err)
	}

	host, err := d.Registry().RegisterHost(
		registration.BaseURL,
		registration.Address,
		registration.NodeName,
		registration.MaxJobs,
	)
	if err != nil {
		return api.SmartError(err)
	}
	level.Debug(a.logger).Log("msg", "Registered host", "host", host.BaseURL)
	return api.SyncResponse(true, host)
}

// Delete unregisters the host named by the "host" query parameter.
func (a *API) Delete(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	baseURL := req.FormValue("host")
	if baseURL == "" {
		return api.BadRequest(errors.Errorf("host is required"))
	}
	if err := d.Registry().UnregisterHost(baseURL); err != nil {
		return api.SmartError(err)
	}
	return api.EmptySyncResponse()
}

// Registration is the body of a host registration.
type Registration struct {
	BaseURL  string `json:"base_url" yaml:"base_url"`
	Address  string `json:"address" yaml:"address"`
	NodeName string `json:"node_name" yaml:"node_name"`
	MaxJobs  int64  `json:"max_jobs" yaml:"max_jobs"`
}

// HostDetails is a host together with its services.
type HostDetails struct {
	Host     db.Host      `json:"host" yaml:"host"`
	Services []db.Service `json:"services" yaml:"services"`
}
