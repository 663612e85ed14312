// Package registry tracks the hosts and services able to process jobs and
// owns the job lifecycle.
package registry

import (
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	clusterconfig "github.com/spoke-d/dispatchd/internal/cluster/config"
	"github.com/spoke-d/dispatchd/internal/clock"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/events"
)

// Cluster mediates access to data stored in the registry database.
type Cluster interface {
	db.ClusterTransactioner
}

// ConfigSource reads the cluster-wide configuration.
type ConfigSource interface {
	Read() (*clusterconfig.ReadOnlyConfig, error)
}

// Failover reacts to a committed job status change by adjusting the
// health state of the services involved.
type Failover interface {
	Process(db.Job) error
}

// Registry is the service registry.
type Registry struct {
	cluster  Cluster
	config   ConfigSource
	failover Failover
	events   events.Sender
	clock    clock.Clock
	logger   log.Logger
}

// New creates a Registry with sane defaults
func New(cluster Cluster, config ConfigSource, options ...Option) *Registry {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	return &Registry{
		cluster:  cluster,
		config:   config,
		failover: opts.failover,
		events:   opts.events,
		clock:    opts.clock,
		logger:   opts.logger,
	}
}

// RegisterHost registers the host, or refreshes and brings online an
// existing registration. Re-registering cancels the non-dispatchable jobs
// the host was running before. A maxJobs below one falls back to the
// configured default.
func (r *Registry) RegisterHost(baseURL, address, nodeName string, maxJobs int64) (db.Host, error) {
	if isBlank(baseURL) {
		return db.Host{}, IllegalArgument("host base url must not be blank")
	}
	if maxJobs <= 0 {
		config, err := r.config.Read()
		if err != nil {
			return db.Host{}, Failure(err)
		}
		if maxJobs, err = config.HostsMaxJobs(); err != nil {
			return db.Host{}, Failure(err)
		}
	}

	var host db.Host
	err := r.cluster.Transaction(func(tx *db.ClusterTx) error {
		existing, err := tx.HostByBaseURL(baseURL)
		switch {
		case err == db.ErrNoSuchObject:
			host = db.Host{
				BaseURL:  baseURL,
				Address:  address,
				NodeName: nodeName,
				MaxJobs:  maxJobs,
				Online:   true,
				Active:   true,
			}
			host.ID, err = tx.HostAdd(host)
			return errors.WithStack(err)
		case err != nil:
			return errors.WithStack(err)
		}
		host = existing
		host.Address = address
		host.NodeName = nodeName
		host.MaxJobs = maxJobs
		host.Online = true
		if err := tx.HostUpdate(host); err != nil {
			return errors.WithStack(err)
		}
		return r.cleanUndispatchableJobs(tx, baseURL)
	})
	if err != nil {
		return db.Host{}, Failure(err)
	}

	level.Info(r.logger).Log("msg", "Registered host", "host", baseURL, "max_jobs", maxJobs)
	r.events.Send(events.TypeHost, "host-registered", host)
	return host, nil
}

// UnregisterHost takes the host and all of its services offline. Jobs that
// were running on them are cleaned up.
func (r *Registry) UnregisterHost(baseURL string) error {
	err := r.cluster.Transaction(func(tx *db.ClusterTx) error {
		host, err := tx.HostByBaseURL(baseURL)
		if err == db.ErrNoSuchObject {
			return NotFound("host %q is not registered, so it can not be unregistered", baseURL)
		} else if err != nil {
			return errors.WithStack(err)
		}
		services, err := tx.ServicesByHost(baseURL)
		if err != nil {
			return errors.WithStack(err)
		}
		for _, service := range services {
			if err := tx.ServiceSetOnline(service.ID, false, r.clock.UTC()); err != nil {
				return errors.WithStack(err)
			}
			if err := r.cleanRunningJobs(tx, service); err != nil {
				return err
			}
		}
		return tx.HostSetOnline(host.ID, false)
	})
	if err != nil {
		return Failure(err)
	}

	level.Info(r.logger).Log("msg", "Unregistered host", "host", baseURL)
	r.events.Send(events.TypeHost, "host-unregistered", map[string]string{"host": baseURL})
	return nil
}

// EnableHost lets jobs be dispatched to the host and its services again.
func (r *Registry) EnableHost(baseURL string) error {
	return r.setHostActive(baseURL, true)
}

// DisableHost stops jobs from being dispatched to the host and its
// services.
func (r *Registry) DisableHost(baseURL string) error {
	return r.setHostActive(baseURL, false)
}

func (r *Registry) setHostActive(baseURL string, active bool) error {
	err := r.cluster.Transaction(func(tx *db.ClusterTx) error {
		host, err := tx.HostByBaseURL(baseURL)
		if err == db.ErrNoSuchObject {
			return NotFound("host %q is not registered", baseURL)
		} else if err != nil {
			return errors.WithStack(err)
		}
		if err := tx.HostSetActive(host.ID, active); err != nil {
			return errors.WithStack(err)
		}
		services, err := tx.ServicesByHost(baseURL)
		if err != nil {
			return errors.WithStack(err)
		}
		for _, service := range services {
			if err := tx.ServiceSetActive(service.ID, active); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
	if err != nil {
		return Failure(err)
	}

	action := "host-enabled"
	if !active {
		action = "host-disabled"
	}
	r.events.Send(events.TypeHost, action, map[string]string{"host": baseURL})
	return nil
}

// SetMaintenanceStatus puts the host in or out of maintenance.
func (r *Registry) SetMaintenanceStatus(baseURL string, maintenance bool) error {
	err := r.cluster.Transaction(func(tx *db.ClusterTx) error {
		host, err := tx.HostByBaseURL(baseURL)
		if err == db.ErrNoSuchObject {
			return NotFound("host %q is not registered", baseURL)
		} else if err != nil {
			return errors.WithStack(err)
		}
		return tx.HostSetMaintenance(host.ID, maintenance)
	})
	if err != nil {
		return Failure(err)
	}

	level.Info(r.logger).Log("msg", "Set maintenance mode", "host", baseURL, "maintenance", maintenance)
	r.events.Send(events.TypeHost, "host-maintenance", map[string]interface{}{
		"host":        baseURL,
		"maintenance": maintenance,
	})
	return nil
}

// RegisterService registers a service of the given type on an already
// registered host, or brings an existing registration back online. Jobs
// left behind by a previous incarnation of the service are cleaned up.
func (r *Registry) RegisterService(serviceType, baseURL, path string, jobProducer bool) (db.Service, error) {
	if isBlank(serviceType) || isBlank(baseURL) {
		return db.Service{}, IllegalArgument("service type and host base url must not be blank")
	}

	var service db.Service
	err := r.cluster.Transaction(func(tx *db.ClusterTx) error {
		host, err := tx.HostByBaseURL(baseURL)
		if err == db.ErrNoSuchObject {
			return IllegalState("service %q can not be registered on host %q which is not registered", serviceType, baseURL)
		} else if err != nil {
			return errors.WithStack(err)
		}
		if !host.Online {
			return IllegalState("service %q can not be registered on host %q which is offline", serviceType, baseURL)
		}

		now := r.clock.UTC()
		existing, err := tx.ServiceByTypeAndHost(serviceType, baseURL)
		switch {
		case err == db.ErrNoSuchObject:
			if isBlank(path) {
				return IllegalArgument("path must not be blank when registering new services")
			}
			service = db.Service{
				HostID:       host.ID,
				Host:         baseURL,
				ServiceType:  serviceType,
				Path:         path,
				Online:       true,
				Active:       host.Active,
				JobProducer:  jobProducer,
				State:        db.StateNormal,
				StateChanged: now,
				OnlineFrom:   now,
				Maintenance:  host.Maintenance,
			}
			service.ID, err = tx.ServiceAdd(service)
			return errors.WithStack(err)
		case err != nil:
			return errors.WithStack(err)
		}

		if err := r.cleanRunningJobs(tx, existing); err != nil {
			return err
		}
		service = existing
		if !isBlank(path) {
			service.Path = path
		}
		service.JobProducer = jobProducer
		if !service.Online {
			service.OnlineFrom = now
		}
		service.Online = true
		return tx.ServiceUpdate(service)
	})
	if err != nil {
		return db.Service{}, Failure(err)
	}

	level.Info(r.logger).Log("msg", "Registered service", "type", serviceType, "host", baseURL)
	r.events.Send(events.TypeService, "service-registered", service)
	return service, nil
}

// UnregisterService takes the service offline and cleans up the jobs it
// was running.
func (r *Registry) UnregisterService(serviceType, baseURL string) error {
	err := r.cluster.Transaction(func(tx *db.ClusterTx) error {
		service, err := tx.ServiceByTypeAndHost(serviceType, baseURL)
		if err == db.ErrNoSuchObject {
			return NotFound("service %q on host %q is not registered", serviceType, baseURL)
		} else if err != nil {
			return errors.WithStack(err)
		}
		if err := tx.ServiceSetOnline(service.ID, false, r.clock.UTC()); err != nil {
			return errors.WithStack(err)
		}
		return r.cleanRunningJobs(tx, service)
	})
	if err != nil {
		return Failure(err)
	}

	level.Info(r.logger).Log("msg", "Unregistered service", "type", serviceType, "host", baseURL)
	r.events.Send(events.TypeService, "service-unregistered", map[string]string{
		"service_type": serviceType,
		"host":         baseURL,
	})
	return nil
}

// SetServiceOnline brings a registered service back online without
// touching its jobs.
func (r *Registry) SetServiceOnline(serviceType, baseURL string) error {
	err := r.cluster.Transaction(func(tx *db.ClusterTx) error {
		service, err := tx.ServiceByTypeAndHost(serviceType, baseURL)
		if err == db.ErrNoSuchObject {
			return NotFound("service %q on host %q is not registered", serviceType, baseURL)
		} else if err != nil {
			return errors.WithStack(err)
		}
		return tx.ServiceSetOnline(service.ID, true, r.clock.UTC())
	})
	if err != nil {
		return Failure(err)
	}
	r.events.Send(events.TypeService, "service-online", map[string]string{
		"service_type": serviceType,
		"host":         baseURL,
	})
	return nil
}

// Sanitize resets the health state of the service to NORMAL.
func (r *Registry) Sanitize(serviceType, baseURL string) error {
	err := r.cluster.Transaction(func(tx *db.ClusterTx) error {
		service, err := tx.ServiceByTypeAndHost(serviceType, baseURL)
		if err == db.ErrNoSuchObject {
			return NotFound("service %q on host %q is not registered", serviceType, baseURL)
		} else if err != nil {
			return errors.WithStack(err)
		}
		return tx.ServiceSetState(service.ID, db.StateNormal, "", "", r.clock.UTC())
	})
	if err != nil {
		return Failure(err)
	}

	level.Info(r.logger).Log("msg", "State reset to NORMAL through sanitize", "type", serviceType, "host", baseURL)
	r.events.Send(events.TypeService, "service-state", map[string]string{
		"service_type": serviceType,
		"host":         baseURL,
		"state":        db.StateNormal.String(),
	})
	return nil
}

// AddOrganization creates or renames an organization.
func (r *Registry) AddOrganization(id, name string) error {
	if isBlank(id) {
		return IllegalArgument("organization id must not be blank")
	}
	err := r.cluster.Transaction(func(tx *db.ClusterTx) error {
		return tx.OrganizationAdd(db.Organization{ID: id, Name: name})
	})
	return Failure(err)
}

// Organizations lists the organizations.
func (r *Registry) Organizations() ([]db.Organization, error) {
	var organizations []db.Organization
	err := r.cluster.Transaction(func(tx *db.ClusterTx) (err error) {
		organizations, err = tx.Organizations()
		return
	})
	return organizations, Failure(err)
}

// AddUser makes the user a member of an existing organization.
func (r *Registry) AddUser(username, organization string) error {
	if isBlank(username) || isBlank(organization) {
		return IllegalArgument("username and organization must not be blank")
	}
	err := r.cluster.Transaction(func(tx *db.ClusterTx) error {
		err := tx.UserAdd(username, organization)
		if err == db.ErrNoSuchObject {
			return NotFound("organization %q does not exist", organization)
		}
		return err
	})
	return Failure(err)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// RemoveUser revokes the user's membership of the organization.
func (r *Registry) RemoveUser(username, organization string) error {
	err := r.cluster.Transaction(func(tx *db.ClusterTx) error {
		err := tx.UserRemove(username, organization)
		if err == db.ErrNoSuchObject {
			return NotFound("user %q is not a member of %q", username, organization)
		}
		return err
	})
	return Failure(err)
}
