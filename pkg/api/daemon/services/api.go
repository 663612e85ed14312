package services

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

// API defines the services API
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

// Get returns the registered services, narrowed by the optional "type" or
// "host" query parameters.
func (a *API) Get(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	var services []db.Service
	switch serviceType, host := req.FormValue("type"), req.FormValue("host"); {
	case serviceType != "" && host != "":
		var all []db.Service
		if all, err = d.Registry().ServicesByType(serviceType); err == nil {
			for _, service := range all {
				if service.Host == host {
					services = append(services, service)
				}
			}
		}
	case serviceType != "":
		services, err = d.Registry().ServicesByType(serviceType)
	case host != "":
		services, err = d.Registry().ServicesByHost(host)
	default:
		services, err = d.Registry().Services()
	}
	if err != nil {
		return api.SmartError(err)
	}
	if services == nil {
		services = []db.Service{}
	}
	return api.SyncResponse(true, services)
}

// Post registers a service on an already registered host.
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

	service, err := d.Registry().RegisterService(
		registration.ServiceType,
		registration.Host,
		registration.Path,
		registration.JobProducer,
	)
	if err != nil {
		return api.SmartError(err)
	}
	level.Debug(a.logger).Log("msg", "Registered service", "type", service.ServiceType, "host", service.Host)
	return api.SyncResponse(true, service)
}

// Delete unregisters the service named by the "type" and "host" query
// parameters.
func (a *API) Delete(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	serviceType, host := req.FormValue("type"), req.FormValue("host")
	if serviceType == "" || host == "" {
		return api.BadRequest(errors.Errorf("type and host are required"))
	}
	if err := d.Registry().UnregisterService(serviceType, host); err != nil {
		return api.SmartError(err)
	}
	return api.EmptySyncResponse()
}

// Registration is the body of a service registration.
type Registration struct {
	ServiceType string `json:"service_type" yaml:"service_type"`
	Host        string `json:"host" yaml:"host"`
	Path        string `json:"path" yaml:"path"`
	JobProducer bool   `json:"job_producer" yaml:"job_producer"`
}

// Ref names a service by its type and host.
type Ref struct {
	ServiceType string `json:"service_type" yaml:"service_type"`
	Host        string `json:"host" yaml:"host"`
}
