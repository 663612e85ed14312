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

// SanitizeAPI resets a service to the NORMAL state.
type SanitizeAPI struct {
	api.DefaultService
	name   string
	logger log.Logger
}

// NewSanitizeAPI creates a SanitizeAPI with sane defaults
func NewSanitizeAPI(name string, options ...Option) *SanitizeAPI {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	return &SanitizeAPI{
		name:   name,
		logger: opts.logger,
	}
}

// Name returns the API name
func (a *SanitizeAPI) Name() string {
	return a.name
}

// Post defines a service for calling "POST" method and returns a response.
func (a *SanitizeAPI) Post(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	var ref Ref
	if err := json.Read(req.Body, &ref); err != nil {
		return api.BadRequest(err)
	}
	if ref.ServiceType == "" || ref.Host == "" {
		return api.BadRequest(errors.Errorf("service type and host are required"))
	}
	if err := d.Registry().Sanitize(ref.ServiceType, ref.Host); err != nil {
		return api.SmartError(err)
	}
	level.Info(a.logger).Log("msg", "Sanitized service", "type", ref.ServiceType, "host", ref.Host)
	return api.EmptySyncResponse()
}

// WarningsAPI lists the services that are not in the NORMAL state.
type WarningsAPI struct {
	api.DefaultService
	name string
}

// NewWarningsAPI creates a WarningsAPI with sane defaults
func NewWarningsAPI(name string) *WarningsAPI {
	return &WarningsAPI{
		name: name,
	}
}

// Name returns the API name
func (a *WarningsAPI) Name() string {
	return a.name
}

// Get defines a service for calling "GET" method and returns a response.
func (a *WarningsAPI) Get(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	services, err := d.Registry().ServiceWarnings()
	if err != nil {
		return api.SmartError(err)
	}
	if services == nil {
		services = []db.Service{}
	}
	return api.SyncResponse(true, services)
}

// StatisticsAPI reports the job statistics of every service.
type StatisticsAPI struct {
	api.DefaultService
	name string
}

// NewStatisticsAPI creates a StatisticsAPI with sane defaults
func NewStatisticsAPI(name string) *StatisticsAPI {
	return &StatisticsAPI{
		name: name,
	}
}

// Name returns the API name
func (a *StatisticsAPI) Name() string {
	return a.name
}

// Get defines a service for calling "GET" method and returns a response.
func (a *StatisticsAPI) Get(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	statistics, err := d.Registry().ServiceStatistics()
	if err != nil {
		return api.SmartError(err)
	}
	return api.SyncResponse(true, statistics)
}
