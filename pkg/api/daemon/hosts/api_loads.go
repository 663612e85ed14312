package hosts

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/load"
	"github.com/spoke-d/dispatchd/pkg/api"
)

// LoadsAPI reports the load of every available host.
type LoadsAPI struct {
	api.DefaultService
	name   string
	logger log.Logger
}

// NewLoadsAPI creates a LoadsAPI with sane defaults
func NewLoadsAPI(name string, options ...Option) *LoadsAPI {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	return &LoadsAPI{
		name:   name,
		logger: opts.logger,
	}
}

// Name returns the API name
func (a *LoadsAPI) Name() string {
	return a.name
}

// Get returns the current loads, or the maximum loads when the "max"
// query parameter is true.
func (a *LoadsAPI) Get(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	var max bool
	if raw := req.FormValue("max"); raw != "" {
		if max, err = strconv.ParseBool(raw); err != nil {
			return api.BadRequest(errors.Wrap(err, "invalid max"))
		}
	}

	var loads load.SystemLoad
	if max {
		loads, err = d.Registry().MaxLoads()
	} else {
		loads, err = d.Registry().CurrentHostLoads()
	}
	if err != nil {
		return api.SmartError(err)
	}
	return api.SyncResponse(true, loads)
}
