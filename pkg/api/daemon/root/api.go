package root

import (
	"context"
	"net/http"
	"os"

	"github.com/go-kit/kit/log"
	"github.com/spoke-d/dispatchd/pkg/api"
)

// API defines the root information API
type API struct {
	api.DefaultService
	logger log.Logger
}

// NewAPI creates a API with sane defaults
func NewAPI(options ...Option) *API {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	return &API{
		logger: opts.logger,
	}
}

// Name returns the API name
func (a *API) Name() string {
	return ""
}

// Get defines a service for calling "GET" method and returns a response.
func (a *API) Get(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	serverName, err := os.Hostname()
	if err != nil {
		return api.SmartError(err)
	}

	config, err := readConfig(d)
	if err != nil {
		return api.SmartError(err)
	}

	server := Server{
		APIExtensions: d.APIExtensions(),
		Environment: Environment{
			Server:        "dispatchd",
			ServerPid:     os.Getpid(),
			ServerVersion: d.Version(),
			ServerName:    serverName,
		},
		Config: config,
	}
	return api.SyncResponseETag(true, server, server.Config)
}

// Server represents the structure for the server
type Server struct {
	APIExtensions []string               `json:"api_extensions" yaml:"api_extensions"`
	Environment   Environment            `json:"environment" yaml:"environment"`
	Config        map[string]interface{} `json:"config" yaml:"config"`
}

// Environment defines the server environment for the daemon
type Environment struct {
	Server        string `json:"server" yaml:"server"`
	ServerPid     int    `json:"server_pid" yaml:"server_pid"`
	ServerVersion string `json:"server_version" yaml:"server_version"`
	ServerName    string `json:"server_name" yaml:"server_name"`
}

// ServerUpdate represents what can be changed when updating the cluster
// configuration
type ServerUpdate struct {
	Config map[string]interface{} `json:"config" yaml:"config"`
}
