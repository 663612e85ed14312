// Package apitest provides an in-memory registry daemon for exercising the
// REST API in tests.
package apitest

import (
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/spoke-d/dispatchd/internal/actors"
	clusterconfig "github.com/spoke-d/dispatchd/internal/cluster/config"
	"github.com/spoke-d/dispatchd/internal/config"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/incidents"
	"github.com/spoke-d/dispatchd/internal/registry"
	dtesting "github.com/spoke-d/dispatchd/internal/testing"
	"github.com/spoke-d/dispatchd/pkg/api"
)

// Daemon is an api.Daemon backed by a private in-memory database.
type Daemon struct {
	cluster    *db.Cluster
	registry   *registry.Registry
	incidents  *incidents.Service
	actorGroup *actors.Group
	setupChan  chan struct{}

	mutex         sync.Mutex
	configChanged int
	shutdowns     int
}

// NewDaemon creates a Daemon and registers its cleanup with t.
func NewDaemon(t *testing.T, options ...incidents.Option) *Daemon {
	t.Helper()

	cluster, cleanup := dtesting.NewCluster(t)
	t.Cleanup(cleanup)

	setupChan := make(chan struct{})
	close(setupChan)

	return &Daemon{
		cluster:    cluster,
		registry:   registry.New(cluster, clusterconfig.NewSource(cluster)),
		incidents:  incidents.New(cluster, options...),
		actorGroup: actors.NewGroup(),
		setupChan:  setupChan,
	}
}

// NewServer serves the given services for the daemon until the test ends.
func NewServer(t *testing.T, d *Daemon, services []api.Service) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(api.DaemonHandler(d, services))
	t.Cleanup(server.Close)
	return server
}

// SetupChan returns a closed channel
func (d *Daemon) SetupChan() <-chan struct{} { return d.setupChan }

// Cluster returns the in-memory database
func (d *Daemon) Cluster() api.Cluster { return d.cluster }

// Registry returns the service registry
func (d *Daemon) Registry() api.Registry { return d.registry }

// RawRegistry returns the registry with its full method set
func (d *Daemon) RawRegistry() *registry.Registry { return d.registry }

// Incidents returns the incident service
func (d *Daemon) Incidents() api.Incidents { return d.incidents }

// ClusterConfigSchema returns the shared configuration schema
func (d *Daemon) ClusterConfigSchema() config.Schema { return clusterconfig.Schema }

// ActorGroup returns the event listeners
func (d *Daemon) ActorGroup() api.ActorGroup { return actorGroupShim{group: d.actorGroup} }

// Listeners returns the number of connected event listeners
func (d *Daemon) Listeners() int { return d.actorGroup.Len() }

// Version returns a fixed version
func (d *Daemon) Version() string { return "0.0.0-test" }

// APIExtensions returns no extensions
func (d *Daemon) APIExtensions() []string { return nil }

// ConfigChanged counts the calls
func (d *Daemon) ConfigChanged() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.configChanged++
}

// ConfigChanges returns how often ConfigChanged was called
func (d *Daemon) ConfigChanges() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.configChanged
}

// UnsafeShutdown counts the calls
func (d *Daemon) UnsafeShutdown() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.shutdowns++
}

// Shutdowns returns how often a shutdown was requested
func (d *Daemon) Shutdowns() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.shutdowns
}

type actorGroupShim struct {
	group *actors.Group
}

func (s actorGroupShim) Add(a api.Actor) {
	s.group.Add(a)
}

func (s actorGroupShim) Prune() bool {
	return s.group.Prune()
}

func (s actorGroupShim) Walk(fn func(api.Actor) error) error {
	return s.group.Walk(func(a actors.Actor) error {
		return fn(a)
	})
}
