package jobs

import (
	"context"
	"net/http"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/json"
	"github.com/spoke-d/dispatchd/pkg/api"
)

// CountAPI counts the jobs matching a filter.
type CountAPI struct {
	api.DefaultService
	name string
}

// NewCountAPI creates a CountAPI with sane defaults
func NewCountAPI(name string) *CountAPI {
	return &CountAPI{
		name: name,
	}
}

// Name returns the API name
func (a *CountAPI) Name() string {
	return a.name
}

// Get defines a service for calling "GET" method and returns a response.
func (a *CountAPI) Get(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	filter, err := parseFilter(req)
	if err != nil {
		return api.BadRequest(err)
	}
	count, err := d.Registry().Count(filter)
	if err != nil {
		return api.SmartError(err)
	}
	return api.SyncResponse(true, Count{Count: count})
}

// RemoveAPI removes jobs together with their descendants.
type RemoveAPI struct {
	api.DefaultService
	name   string
	logger log.Logger
}

// NewRemoveAPI creates a RemoveAPI with sane defaults
func NewRemoveAPI(name string, options ...Option) *RemoveAPI {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	return &RemoveAPI{
		name:   name,
		logger: opts.logger,
	}
}

// Name returns the API name
func (a *RemoveAPI) Name() string {
	return a.name
}

// Post defines a service for calling "POST" method and returns a response.
func (a *RemoveAPI) Post(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	var removal Removal
	if err := json.Read(req.Body, &removal); err != nil {
		return api.BadRequest(err)
	}
	if err := d.Registry().RemoveJobs(removal.IDs); err != nil {
		return api.SmartError(err)
	}
	level.Debug(a.logger).Log("msg", "Removed jobs", "count", len(removal.IDs))
	return api.SyncResponse(true, Removed{Removed: len(removal.IDs)})
}

// ParentlessAPI removes root jobs older than a lifetime.
type ParentlessAPI struct {
	api.DefaultService
	name   string
	logger log.Logger
}

// NewParentlessAPI creates a ParentlessAPI with sane defaults
func NewParentlessAPI(name string, options ...Option) *ParentlessAPI {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	return &ParentlessAPI{
		name:   name,
		logger: opts.logger,
	}
}

// Name returns the API name
func (a *ParentlessAPI) Name() string {
	return a.name
}

// Post defines a service for calling "POST" method and returns a response.
func (a *ParentlessAPI) Post(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	var parentless Parentless
	if err := json.Read(req.Body, &parentless); err != nil {
		return api.BadRequest(err)
	}
	if parentless.LifetimeDays <= 0 {
		return api.BadRequest(errors.Errorf("lifetime must be at least one day"))
	}

	removed, err := d.Registry().RemoveParentlessJobs(time.Duration(parentless.LifetimeDays) * 24 * time.Hour)
	if err != nil {
		return api.SmartError(err)
	}
	level.Info(a.logger).Log("msg", "Removed parentless jobs", "count", removed)
	return api.SyncResponse(true, Removed{Removed: removed})
}
