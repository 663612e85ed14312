package api

import (
	"time"

	"github.com/spoke-d/dispatchd/internal/config"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/incidents"
	"github.com/spoke-d/dispatchd/internal/load"
	"github.com/spoke-d/dispatchd/internal/registry"
)

// Cluster mediates access to data stored in the registry database.
type Cluster interface {
	db.ClusterTransactioner
}

// Registry is the service registry the API operates on.
type Registry interface {
	RegisterHost(baseURL, address, nodeName string, maxJobs int64) (db.Host, error)
	UnregisterHost(baseURL string) error
	EnableHost(baseURL string) error
	DisableHost(baseURL string) error
	SetMaintenanceStatus(baseURL string, maintenance bool) error

	RegisterService(serviceType, baseURL, path string, jobProducer bool) (db.Service, error)
	UnregisterService(serviceType, baseURL string) error
	Sanitize(serviceType, baseURL string) error

	CreateJob(registry.CreateJobParams) (db.Job, error)
	UpdateJob(db.Job) (db.Job, error)
	Job(id int64) (db.Job, error)
	ChildJobs(id int64) ([]db.Job, error)
	RemoveJobs(ids []int64) error
	RemoveParentlessJobs(lifetime time.Duration) (int, error)

	Hosts() ([]db.Host, error)
	Host(baseURL string) (db.Host, error)
	Services() ([]db.Service, error)
	ServicesByType(serviceType string) ([]db.Service, error)
	ServicesByHost(baseURL string) ([]db.Service, error)
	ServiceWarnings() ([]db.Service, error)
	Jobs(db.JobFilter) ([]db.Job, error)
	Count(db.JobFilter) (int64, error)

	CurrentHostLoads() (load.SystemLoad, error)
	MaxLoads() (load.SystemLoad, error)
	ServiceStatistics() ([]registry.Statistics, error)
}

// Incidents stores and queries the incidents reported against jobs.
type Incidents interface {
	StoreIncident(jobID int64, timestamp time.Time, code string, severity db.Severity, parameters map[string]string, details []db.Detail) (db.Incident, error)
	Incident(id int64) (db.Incident, error)
	IncidentsOfJob(jobIDs []int64, cascade bool) (incidents.Tree, error)
	Localize(code, locale string, parameters map[string]string) (incidents.Localization, error)
}

// Daemon can respond to requests from a shared client.
type Daemon interface {
	// SetupChan returns a channel that blocks until setup has happened from
	// the Daemon
	SetupChan() <-chan struct{}

	// Cluster returns the underlying Cluster
	Cluster() Cluster

	// Registry returns the service registry
	Registry() Registry

	// Incidents returns the incident service
	Incidents() Incidents

	// ClusterConfigSchema returns the daemon schema for the Cluster
	ClusterConfigSchema() config.Schema

	// ConfigChanged tells the daemon that the cluster configuration was
	// updated, so the periodic tasks pick up the new values.
	ConfigChanged()

	// ActorGroup returns the actor group for event broadcast
	ActorGroup() ActorGroup

	// Version returns the current version of the daemon
	Version() string

	// APIExtensions returns the extensions available to the current daemon
	APIExtensions() []string

	// UnsafeShutdown forces an automatic shutdown of the Daemon
	UnsafeShutdown()
}

// Actor defines an broker between event messages and nodes
type Actor interface {

	// ID returns the unique ID for the actor
	ID() string

	// Types returns the underlying types the actor subscribes to
	Types() []string

	// Write pushes information to the actor
	Write([]byte) error

	// Close the actor
	Close()

	// Done returns if the actor is done messaging.
	Done() bool
}

// ActorGroup holds a group of actors
type ActorGroup interface {

	// Add an actor to a group
	Add(a Actor)

	// Prune removes any done actors
	Prune() bool

	// Walk over the actors with in the group one by one (order is not
	// guaranteed).
	Walk(func(Actor) error) error
}
