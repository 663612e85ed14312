package root

import (
	"context"
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	clusterconfig "github.com/spoke-d/dispatchd/internal/cluster/config"
	"github.com/spoke-d/dispatchd/internal/config"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/etag"
	"github.com/spoke-d/dispatchd/internal/json"
	"github.com/spoke-d/dispatchd/pkg/api"
)

// ConfigAPI reads and changes the cluster-wide configuration shared by
// every registry process.
type ConfigAPI struct {
	api.DefaultService
	name   string
	logger log.Logger
}

// NewConfigAPI creates a ConfigAPI with sane defaults
func NewConfigAPI(name string, options ...Option) *ConfigAPI {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	return &ConfigAPI{
		name:   name,
		logger: opts.logger,
	}
}

// Name returns the API name
func (a *ConfigAPI) Name() string {
	return a.name
}

// Get defines a service for calling "GET" method and returns a response.
func (a *ConfigAPI) Get(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	render, err := readConfig(d)
	if err != nil {
		return api.SmartError(err)
	}
	return api.SyncResponseETag(true, ServerUpdate{Config: render}, render)
}

// Put defines a service for calling "PUT" method and returns a response.
func (a *ConfigAPI) Put(ctx context.Context, req *http.Request) api.Response {
	return a.change(ctx, req, false)
}

// Patch defines a service for calling "PATCH" method and returns a response.
func (a *ConfigAPI) Patch(ctx context.Context, req *http.Request) api.Response {
	return a.change(ctx, req, true)
}

func (a *ConfigAPI) change(ctx context.Context, req *http.Request, patch bool) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	var info ServerUpdate
	if err := json.Read(req.Body, &info); err != nil {
		return api.BadRequest(err)
	}
	if patch && info.Config == nil {
		return api.EmptySyncResponse()
	}

	render, err := readConfig(d)
	if err != nil {
		return api.SmartError(err)
	}
	if err := etag.Check(req, render); err != nil {
		return api.PreconditionFailed(err)
	}

	var changed map[string]string
	if err := d.Cluster().Transaction(func(tx *db.ClusterTx) error {
		current, err := clusterconfig.Load(tx, d.ClusterConfigSchema())
		if err != nil {
			return errors.Wrap(err, "failed to load cluster config")
		}
		if patch {
			changed, err = current.Patch(info.Config)
		} else {
			changed, err = current.Replace(info.Config)
		}
		return err
	}); err != nil {
		switch errors.Cause(err).(type) {
		case config.ErrorList:
			return api.BadRequest(err)
		default:
			return api.SmartError(err)
		}
	}

	if len(changed) > 0 {
		level.Info(a.logger).Log("msg", "Cluster config changed", "keys", len(changed))
		d.ConfigChanged()
	}
	return api.EmptySyncResponse()
}

func readConfig(d api.Daemon) (map[string]interface{}, error) {
	var result map[string]interface{}
	err := d.Cluster().Transaction(func(tx *db.ClusterTx) error {
		clusterConfig, err := clusterconfig.Load(tx, d.ClusterConfigSchema())
		if err != nil {
			return errors.WithStack(err)
		}
		result, err = clusterConfig.Dump()
		return errors.WithStack(err)
	})
	return result, errors.WithStack(err)
}
