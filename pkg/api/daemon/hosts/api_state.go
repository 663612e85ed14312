package hosts

import (
	"context"
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/json"
	"github.com/spoke-d/dispatchd/pkg/api"
)

// Action names a change to the availability of a host.
type Action string

// Actions served by the StateAPI.
const (
	Maintenance Action = "maintenance"
	Enable      Action = "enable"
	Disable     Action = "disable"
)

// StateAPI changes whether jobs may be dispatched to a host.
type StateAPI struct {
	api.DefaultService
	name   string
	action Action
	logger log.Logger
}

// NewStateAPI creates a StateAPI for the action with sane defaults
func NewStateAPI(name string, action Action, options ...Option) *StateAPI {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	return &StateAPI{
		name:   name,
		action: action,
		logger: opts.logger,
	}
}

// Name returns the API name
func (a *StateAPI) Name() string {
	return a.name
}

// Put defines a service for calling "PUT" method and returns a response.
func (a *StateAPI) Put(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	var state State
	if err := json.Read(req.Body, &state); err != nil {
		return api.BadRequest(err)
	}
	if state.Host == "" {
		return api.BadRequest(errors.Errorf("host is required"))
	}

	switch a.action {
	case Maintenance:
		err = d.Registry().SetMaintenanceStatus(state.Host, state.Maintenance)
	case Enable:
		err = d.Registry().EnableHost(state.Host)
	case Disable:
		err = d.Registry().DisableHost(state.Host)
	default:
		return api.NotImplemented(errors.Errorf("unknown action %q", a.action))
	}
	if err != nil {
		return api.SmartError(err)
	}

	level.Debug(a.logger).Log("msg", "Changed host state", "host", state.Host, "action", a.action)
	return api.EmptySyncResponse()
}

// State is the body of a host state change. Maintenance is only read by
// the maintenance action.
type State struct {
	Host        string `json:"host" yaml:"host"`
	Maintenance bool   `json:"maintenance" yaml:"maintenance"`
}
