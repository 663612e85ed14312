package daemon

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/actors"
	"github.com/spoke-d/dispatchd/internal/clock"
	clusterconfig "github.com/spoke-d/dispatchd/internal/cluster/config"
	"github.com/spoke-d/dispatchd/internal/cluster/heartbeat"
	"github.com/spoke-d/dispatchd/internal/config"
	"github.com/spoke-d/dispatchd/internal/db"
	querycluster "github.com/spoke-d/dispatchd/internal/db/cluster"
	"github.com/spoke-d/dispatchd/internal/dispatcher"
	"github.com/spoke-d/dispatchd/internal/endpoints"
	internalevents "github.com/spoke-d/dispatchd/internal/events"
	"github.com/spoke-d/dispatchd/internal/failover"
	"github.com/spoke-d/dispatchd/internal/identity"
	"github.com/spoke-d/dispatchd/internal/incidents"
	"github.com/spoke-d/dispatchd/internal/registry"
	"github.com/spoke-d/dispatchd/internal/task"
	"github.com/spoke-d/dispatchd/pkg/api"
	"github.com/spoke-d/dispatchd/pkg/events"
)

// Daemon is a single registry process. Any number of them may run against
// the same database, each one dispatches and probes independently.
type Daemon struct {
	version       string
	apiExtensions []string
	apiServices   []api.Service

	mutex      sync.Mutex
	config     Config
	configPath string

	lock       *flock.Flock
	cluster    *db.Cluster
	registry   *registry.Registry
	incidents  *incidents.Service
	actorGroup *actors.Group
	endpoints  *endpoints.Endpoints

	// Tasks registry for long-running background tasks. The handles are
	// reset whenever the cluster configuration changes.
	tasks     *task.Group
	scheduled []*task.Task

	watcher   *fsnotify.Watcher
	watchDone chan struct{}

	setupChan    chan struct{}
	shutdownChan chan struct{}

	httpClient *http.Client
	logger     log.Logger
	clock      clock.Clock
}

// New creates a Daemon with sane defaults
func New(version string, config Config, apiExtensions []string, apiServices []api.Service, options ...Option) *Daemon {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	return &Daemon{
		version:       version,
		apiExtensions: apiExtensions,
		apiServices:   apiServices,
		config:        config,
		configPath:    opts.configPath,
		actorGroup:    actors.NewGroup(),
		tasks:         task.NewGroup(),
		watchDone:     make(chan struct{}),
		setupChan:     make(chan struct{}),
		shutdownChan:  make(chan struct{}, 1),
		httpClient:    opts.httpClient,
		logger:        opts.logger,
		clock:         opts.clock,
	}
}

// Init the Daemon, creating all the required dependencies.
func (d *Daemon) Init() error {
	if err := d.init(); err != nil {
		level.Error(d.logger).Log("msg", "failed to start the daemon", "err", err)
		d.Stop()
		return errors.WithStack(err)
	}
	return nil
}

func (d *Daemon) init() error {
	level.Info(d.logger).Log("msg", "starting daemon", "version", d.version)

	if err := os.MkdirAll(d.config.Dir, 0750); err != nil {
		return errors.Wrap(err, "failed to create state dir")
	}
	lock := flock.New(d.config.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return errors.Wrap(err, "failed to lock state dir")
	}
	if !locked {
		return errors.Errorf("state dir %q is in use by another process", d.config.Dir)
	}
	d.lock = lock

	if err := d.initDatabase(); err != nil {
		return errors.WithStack(err)
	}
	if _, err := applyClusterOverrides(d.cluster, d.config.Cluster); err != nil {
		return errors.WithStack(err)
	}

	// The hub and broadcaster keep the plain logger, otherwise every
	// failed broadcast would be broadcast again.
	broadcaster := events.NewEventBroadcaster(
		makeEventsActorGroupShim(d.actorGroup),
		log.WithPrefix(d.logger, "component", "broadcaster"),
	)
	hub := internalevents.New(
		broadcaster,
		internalevents.WithClock(d.clock),
		internalevents.WithLogger(log.WithPrefix(d.logger, "component", "events")),
	)
	logger := tee(d.logger, level.NewFilter(NewLoggingHook(hub), level.AllowInfo()))

	if err := d.initComponents(hub, logger); err != nil {
		return errors.WithStack(err)
	}

	restServer := api.DaemonRestServer(
		makeDaemonShim(d),
		d.apiServices,
		api.WithLogger(log.WithPrefix(logger, "component", "api")),
	)
	d.endpoints = endpoints.New(
		restServer,
		endpoints.WithNetworkAddress(d.config.Address),
		endpoints.WithDebugAddress(d.config.DebugAddress),
		endpoints.WithLogger(log.WithPrefix(d.logger, "component", "endpoints")),
	)
	if err := d.endpoints.Up(); err != nil {
		return errors.Wrap(err, "failed to setup API endpoints")
	}

	close(d.setupChan)

	d.tasks.Start()
	level.Info(d.logger).Log("msg", "registered tasks", "tasks", d.tasks.Len())

	if err := d.watchConfig(); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (d *Daemon) initDatabase() error {
	cluster := db.NewCluster(
		querycluster.New(querycluster.NewSchema()),
		db.WithLoggerForCluster(log.WithPrefix(d.logger, "component", "database")),
		db.WithClockForCluster(d.clock),
	)
	path := d.config.DatabasePath()
	if err := cluster.Open(path, d.config.BusyTimeout); err != nil {
		return errors.Wrapf(err, "failed to open database %q", path)
	}
	d.cluster = cluster
	return nil
}

// initComponents builds the registry and the periodic tasks around it.
func (d *Daemon) initComponents(hub internalevents.Sender, logger log.Logger) error {
	source := clusterconfig.NewSource(d.cluster)

	catalog, err := loadCatalogs(d.config.IncidentTexts)
	if err != nil {
		return errors.WithStack(err)
	}

	machine := failover.New(
		d.cluster,
		source,
		failover.WithEvents(hub),
		failover.WithClock(d.clock),
		failover.WithLogger(log.WithPrefix(logger, "component", "failover")),
	)
	d.registry = registry.New(
		d.cluster,
		source,
		registry.WithFailover(machine),
		registry.WithEvents(hub),
		registry.WithClock(d.clock),
		registry.WithLogger(log.WithPrefix(logger, "component", "registry")),
	)
	d.incidents = incidents.New(
		d.cluster,
		incidents.WithCatalog(catalog),
		incidents.WithEvents(hub),
		incidents.WithClock(d.clock),
		incidents.WithLogger(log.WithPrefix(logger, "component", "incidents")),
	)

	resolver := identity.New(
		d.cluster,
		identity.WithClock(d.clock),
		identity.WithLogger(log.WithPrefix(logger, "component", "identity")),
	)
	dispatcherTask := dispatcher.New(
		d.cluster,
		source,
		resolver,
		d.registry,
		dispatcher.WithHTTPClient(d.httpClient),
		dispatcher.WithEvents(hub),
		dispatcher.WithClock(d.clock),
		dispatcher.WithLogger(log.WithPrefix(logger, "component", "dispatcher")),
	)
	heartbeatTask := heartbeat.New(
		d.cluster,
		source,
		d.registry,
		heartbeat.WithHTTPClient(d.httpClient),
		heartbeat.WithLogger(log.WithPrefix(logger, "component", "heartbeat")),
	)

	d.scheduled = append(d.scheduled,
		d.tasks.Add(dispatcherTask.Run()),
		d.tasks.Add(heartbeatTask.Run()),
		d.tasks.Add(d.registry.Run()),
	)
	return nil
}

func loadCatalogs(paths []string) (*incidents.Catalog, error) {
	catalog := incidents.NewCatalog(nil)
	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open incident texts")
		}
		texts, err := incidents.LoadCatalog(file)
		file.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load incident texts %q", path)
		}
		catalog.Merge(texts)
	}
	return catalog, nil
}

// Stop stops the daemon, releasing everything Init acquired.
func (d *Daemon) Stop() error {
	level.Info(d.logger).Log("msg", "starting shutdown sequence")

	// Track all the errors, if there is an error continue stopping.
	var errs []error
	trackError := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	trackError(d.stopWatchingConfig())
	if d.endpoints != nil {
		trackError(d.endpoints.Down())
	}

	// Give tasks a bit of time to cleanup.
	trackError(d.tasks.Stop(3 * time.Second))

	if d.cluster != nil {
		level.Info(d.logger).Log("msg", "closing the database")
		trackError(d.cluster.Close())
	}
	if d.lock != nil {
		trackError(d.lock.Unlock())
	}

	var err error
	if n := len(errs); n > 0 {
		format := "%v"
		if n > 1 {
			format += fmt.Sprintf(" (and %d more errors)", n)
		}
		err = errors.Errorf(format, errs[0])
	}
	if err != nil {
		level.Error(d.logger).Log("msg", "failed to cleanly shutdown daemon", "err", err)
	}
	return err
}

// Cluster returns the registry database
func (d *Daemon) Cluster() *db.Cluster {
	return d.cluster
}

// Registry returns the service registry
func (d *Daemon) Registry() *registry.Registry {
	return d.registry
}

// Incidents returns the incident service
func (d *Daemon) Incidents() *incidents.Service {
	return d.incidents
}

// ClusterConfigSchema returns the schema of the shared configuration
func (d *Daemon) ClusterConfigSchema() config.Schema {
	return clusterconfig.Schema
}

// ConfigChanged resets the periodic tasks so they re-read their schedule.
func (d *Daemon) ConfigChanged() {
	for _, t := range d.scheduled {
		t.Reset()
	}
}

// ActorGroup returns the websocket listeners of the daemon
func (d *Daemon) ActorGroup() *actors.Group {
	return d.actorGroup
}

// SetupChan returns a channel that is closed once the API is served
func (d *Daemon) SetupChan() <-chan struct{} {
	return d.setupChan
}

// ShutdownChan returns a channel that receives a value when a shutdown
// was requested over the API.
func (d *Daemon) ShutdownChan() <-chan struct{} {
	return d.shutdownChan
}

// Version returns the version of the daemon
func (d *Daemon) Version() string {
	return d.version
}

// APIExtensions returns the extensions available to the current daemon
func (d *Daemon) APIExtensions() []string {
	return d.apiExtensions
}

// UnsafeShutdown requests a shutdown of the Daemon. Repeated requests
// before the first one is handled are dropped.
func (d *Daemon) UnsafeShutdown() {
	select {
	case d.shutdownChan <- struct{}{}:
	default:
	}
}
