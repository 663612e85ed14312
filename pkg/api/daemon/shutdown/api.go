package shutdown

import (
	"context"
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/spoke-d/dispatchd/pkg/api"
)

// API stops the daemon on request.
type API struct {
	api.DefaultService
	name   string
	logger log.Logger
}

// NewAPI creates a API with sane defaults
func NewAPI(name string, logger log.Logger) *API {
	return &API{
		name:   name,
		logger: logger,
	}
}

// Name returns the API name
func (a *API) Name() string {
	return a.name
}

// Post asks the daemon to shut down. The response is sent before the
// daemon stops serving.
func (a *API) Post(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	level.Info(a.logger).Log("msg", "Shutdown requested")
	d.UnsafeShutdown()

	return api.EmptySyncResponse()
}
