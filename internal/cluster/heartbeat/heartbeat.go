// Package heartbeat probes the registered job producers and takes the ones
// that stop answering offline.
package heartbeat

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
	clusterconfig "github.com/spoke-d/dispatchd/internal/cluster/config"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/task"
	"golang.org/x/sync/errgroup"
)

// Endpoint is appended to a service path to reach its dispatch handler.
const Endpoint = "/dispatch"

// Parallelism bounds how many services are probed at once.
const Parallelism = 8

// Cluster mediates access to data stored in the registry database.
type Cluster interface {
	db.ClusterTransactioner
}

// ConfigSource reads the cluster-wide configuration.
type ConfigSource interface {
	Read() (*clusterconfig.ReadOnlyConfig, error)
}

// Registry changes the online status of services.
type Registry interface {
	// UnregisterService takes the service offline and recovers its jobs.
	UnregisterService(serviceType, baseURL string) error

	// SetServiceOnline brings the service back online.
	SetServiceOnline(serviceType, baseURL string) error
}

// HTTPClient sends the probes.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Heartbeat checks that job producers are still reachable. A service that
// fails a probe is put on a watch list and is only taken offline if it
// fails the next one as well.
type Heartbeat struct {
	cluster  Cluster
	config   ConfigSource
	registry Registry
	client   HTTPClient
	timeout  time.Duration
	watch    *xsync.MapOf[int64, struct{}]
	logger   log.Logger
}

// New creates a new heartbeat with sane defaults
func New(cluster Cluster, config ConfigSource, registry Registry, options ...Option) *Heartbeat {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	return &Heartbeat{
		cluster:  cluster,
		config:   config,
		registry: registry,
		client:   opts.client,
		timeout:  opts.timeout,
		watch:    xsync.NewMapOf[int64, struct{}](),
		logger:   opts.logger,
	}
}

// Run returns a task function that probes every job producer, scheduled
// every heartbeat.interval seconds.
func (h *Heartbeat) Run() (task.Func, task.Schedule) {
	// Since the database APIs are blocking we need to wrap the core logic
	// and run it in a goroutine, so we can abort as soon as the context expires.
	heartbeatWrapper := func(ctx context.Context) {
		ch := make(chan struct{}, 1)
		go func() {
			if err := h.Beat(ctx); err != nil {
				level.Error(h.logger).Log("msg", "Heartbeat round failed", "err", err)
			}
			ch <- struct{}{}
		}()
		select {
		case <-ch:
		case <-ctx.Done():
		}
	}

	schedule := func() (time.Duration, error) {
		config, err := h.config.Read()
		if err != nil {
			return time.Minute, errors.WithStack(err)
		}
		return config.HeartbeatInterval()
	}
	return heartbeatWrapper, schedule
}

// Beat runs a single heartbeat round over the online job producers.
func (h *Heartbeat) Beat(ctx context.Context) error {
	var services []db.Service
	if err := h.cluster.Transaction(func(tx *db.ClusterTx) error {
		var err error
		services, err = tx.Services()
		return err
	}); err != nil {
		return errors.Wrap(err, "failed to load services")
	}

	level.Debug(h.logger).Log("msg", "Checking for unresponsive services")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(Parallelism)
	for _, service := range services {
		if !service.Online || !service.JobProducer || service.Maintenance {
			continue
		}
		service := service
		g.Go(func() error {
			h.check(ctx, service)
			return nil
		})
	}
	return g.Wait()
}

// Watched reports whether the service failed its last probe.
func (h *Heartbeat) Watched(serviceID int64) bool {
	_, ok := h.watch.Load(serviceID)
	return ok
}

func (h *Heartbeat) check(ctx context.Context, service db.Service) {
	err := h.probe(ctx, service)
	if err == nil {
		if _, watched := h.watch.LoadAndDelete(service.ID); !watched {
			return
		}
		if service.Online {
			level.Info(h.logger).Log("msg", "Service is still online", "type", service.ServiceType, "host", service.Host)
			return
		}
		if err := h.registry.SetServiceOnline(service.ServiceType, service.Host); err != nil {
			level.Warn(h.logger).Log("msg", "Error setting online status", "type", service.ServiceType, "host", service.Host, "err", err)
			return
		}
		level.Info(h.logger).Log("msg", "Service is back online", "type", service.ServiceType, "host", service.Host)
		return
	}

	if !service.Online || ctx.Err() != nil {
		return
	}
	level.Warn(h.logger).Log("msg", "Service is not working as expected", "type", service.ServiceType, "host", service.Host, "err", err)

	if _, watched := h.watch.Load(service.ID); !watched {
		h.watch.Store(service.ID, struct{}{})
		level.Warn(h.logger).Log("msg", "Added service to the watch list", "type", service.ServiceType, "host", service.Host)
		return
	}
	if err := h.registry.UnregisterService(service.ServiceType, service.Host); err != nil {
		level.Warn(h.logger).Log("msg", "Unable to unregister unreachable service", "type", service.ServiceType, "host", service.Host, "err", err)
		return
	}
	h.watch.Delete(service.ID)
	level.Warn(h.logger).Log("msg", "Marking service as offline", "type", service.ServiceType, "host", service.Host)
}

func (h *Heartbeat) probe(taskCtx context.Context, service db.Service) error {
	url := fmt.Sprintf("%s%s%s", strings.TrimSuffix(service.Host, "/"), service.Path, Endpoint)
	request, err := http.NewRequest("HEAD", url, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	ctx, cancel := context.WithTimeout(taskCtx, h.timeout)
	defer cancel()

	request = request.WithContext(ctx)
	request.Close = true // Immediately close the connection after the request is done

	// Perform the request asynchronously, so we can abort it if the task context is done.
	errCh := make(chan error, 1)
	go func() {
		response, err := h.client.Do(request)
		if err != nil {
			errCh <- errors.Wrap(err, "failed to send HTTP request")
			return
		}
		defer response.Body.Close()
		if response.StatusCode != http.StatusOK {
			errCh <- errors.Errorf("HTTP request failed: %s", response.Status)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-taskCtx.Done():
		return taskCtx.Err()
	}
}
