// Package daemon assembles the REST services served by a registry process.
package daemon

import (
	"github.com/go-kit/kit/log"
	"github.com/spoke-d/dispatchd/pkg/api"
	"github.com/spoke-d/dispatchd/pkg/api/daemon/events"
	"github.com/spoke-d/dispatchd/pkg/api/daemon/hosts"
	"github.com/spoke-d/dispatchd/pkg/api/daemon/incidents"
	"github.com/spoke-d/dispatchd/pkg/api/daemon/jobs"
	"github.com/spoke-d/dispatchd/pkg/api/daemon/root"
	"github.com/spoke-d/dispatchd/pkg/api/daemon/services"
	"github.com/spoke-d/dispatchd/pkg/api/daemon/shutdown"
)

// Extensions lists the API extensions every registry process supports.
var Extensions = []string{
	"job_children",
	"job_parentless_cleanup",
	"incident_localization",
	"service_statistics",
}

// Services returns the REST services of a registry process, mounted under
// "/1.0".
func Services(logger log.Logger) []api.Service {
	prefixed := func(component string) log.Logger {
		return log.WithPrefix(logger, "component", component)
	}

	return []api.Service{
		root.NewAPI(root.WithLogger(prefixed("info"))),
		root.NewConfigAPI("config", root.WithLogger(prefixed("config"))),

		hosts.NewAPI("hosts", hosts.WithLogger(prefixed("hosts"))),
		hosts.NewStateAPI("hosts/maintenance", hosts.Maintenance, hosts.WithLogger(prefixed("hosts"))),
		hosts.NewStateAPI("hosts/enable", hosts.Enable, hosts.WithLogger(prefixed("hosts"))),
		hosts.NewStateAPI("hosts/disable", hosts.Disable, hosts.WithLogger(prefixed("hosts"))),
		hosts.NewLoadsAPI("loads", hosts.WithLogger(prefixed("loads"))),

		services.NewAPI("services", services.WithLogger(prefixed("services"))),
		services.NewSanitizeAPI("services/sanitize", services.WithLogger(prefixed("services"))),
		services.NewWarningsAPI("services/warnings"),
		services.NewStatisticsAPI("statistics"),

		jobs.NewAPI("jobs", jobs.WithLogger(prefixed("jobs"))),
		jobs.NewCountAPI("jobs/count"),
		jobs.NewRemoveAPI("jobs/remove", jobs.WithLogger(prefixed("jobs"))),
		jobs.NewParentlessAPI("jobs/parentless", jobs.WithLogger(prefixed("jobs"))),
		jobs.NewJobAPI("jobs/{id:[0-9]+}", jobs.WithLogger(prefixed("jobs"))),
		jobs.NewChildrenAPI("jobs/{id:[0-9]+}/children"),

		incidents.NewAPI("incidents", incidents.WithLogger(prefixed("incidents"))),
		incidents.NewIncidentAPI("incidents/{id:[0-9]+}", incidents.WithLogger(prefixed("incidents"))),

		events.NewAPI("events", prefixed("events")),
		shutdown.NewAPI("shutdown", prefixed("shutdown")),
	}
}
