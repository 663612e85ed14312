package registry

import (
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/load"
)

// Statistics are the job statistics of a single service.
type Statistics struct {
	Service       db.Service `json:"service" yaml:"service"`
	Running       int64      `json:"running" yaml:"running"`
	Queued        int64      `json:"queued" yaml:"queued"`
	MeanQueueTime int64      `json:"mean_queue_time" yaml:"mean_queue_time"`
	MeanRunTime   int64      `json:"mean_run_time" yaml:"mean_run_time"`
}

// Hosts returns every registered host.
func (r *Registry) Hosts() ([]db.Host, error) {
	var hosts []db.Host
	err := r.cluster.Transaction(func(tx *db.ClusterTx) (err error) {
		hosts, err = tx.Hosts()
		return
	})
	return hosts, Failure(err)
}

// Host returns the host registered with the given base url.
func (r *Registry) Host(baseURL string) (db.Host, error) {
	var host db.Host
	err := r.cluster.Transaction(func(tx *db.ClusterTx) error {
		var err error
		host, err = tx.HostByBaseURL(baseURL)
		if err == db.ErrNoSuchObject {
			return NotFound("host %q is not registered", baseURL)
		}
		return errors.WithStack(err)
	})
	return host, Failure(err)
}

// Services returns every registered service.
func (r *Registry) Services() ([]db.Service, error) {
	var services []db.Service
	err := r.cluster.Transaction(func(tx *db.ClusterTx) (err error) {
		services, err = tx.Services()
		return
	})
	return services, Failure(err)
}

// ServicesByType returns the services of the given type.
func (r *Registry) ServicesByType(serviceType string) ([]db.Service, error) {
	var services []db.Service
	err := r.cluster.Transaction(func(tx *db.ClusterTx) (err error) {
		services, err = tx.ServicesByType(serviceType)
		return
	})
	return services, Failure(err)
}

// ServicesByHost returns the services running on the given host.
func (r *Registry) ServicesByHost(baseURL string) ([]db.Service, error) {
	var services []db.Service
	err := r.cluster.Transaction(func(tx *db.ClusterTx) (err error) {
		services, err = tx.ServicesByHost(baseURL)
		return
	})
	return services, Failure(err)
}

// ServiceWarnings returns the services that are not in the NORMAL state.
func (r *Registry) ServiceWarnings() ([]db.Service, error) {
	var services []db.Service
	err := r.cluster.Transaction(func(tx *db.ClusterTx) (err error) {
		services, err = tx.ServicesByState(db.StateWarning, db.StateError)
		return
	})
	return services, Failure(err)
}

// Jobs returns the jobs matching the filter.
func (r *Registry) Jobs(filter db.JobFilter) ([]db.Job, error) {
	var jobs []db.Job
	err := r.cluster.Transaction(func(tx *db.ClusterTx) (err error) {
		jobs, err = tx.Jobs(filter)
		return
	})
	return jobs, Failure(err)
}

// ActiveJobs returns the jobs that are dispatching, running or waiting.
func (r *Registry) ActiveJobs() ([]db.Job, error) {
	return r.Jobs(db.JobFilter{
		Statuses: []db.JobStatus{db.StatusDispatching, db.StatusRunning, db.StatusWaiting},
	})
}

// Count returns the number of jobs matching the filter.
func (r *Registry) Count(filter db.JobFilter) (int64, error) {
	var count int64
	err := r.cluster.Transaction(func(tx *db.ClusterTx) (err error) {
		count, err = tx.JobCount(filter)
		return
	})
	return count, Failure(err)
}

// CurrentHostLoads returns the load of every available host.
func (r *Registry) CurrentHostLoads() (load.SystemLoad, error) {
	var (
		hosts  []db.Host
		counts map[string]int64
	)
	err := r.cluster.Transaction(func(tx *db.ClusterTx) error {
		var err error
		if hosts, err = tx.Hosts(); err != nil {
			return errors.WithStack(err)
		}
		counts, err = tx.HostLoads("")
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, Failure(err)
	}
	return load.Compute(hosts, counts), nil
}

// MaxLoads returns the capacity of every host.
func (r *Registry) MaxLoads() (load.SystemLoad, error) {
	hosts, err := r.Hosts()
	if err != nil {
		return nil, err
	}
	return load.Max(hosts), nil
}

// MaxLoadOnNode returns the capacity of the given host.
func (r *Registry) MaxLoadOnNode(baseURL string) (load.NodeLoad, error) {
	host, err := r.Host(baseURL)
	if err != nil {
		return load.NodeLoad{}, err
	}
	return load.NodeLoad{Host: host.BaseURL, MaxLoad: host.MaxJobs}, nil
}

// ServiceStatistics returns the job statistics of every service.
func (r *Registry) ServiceStatistics() ([]Statistics, error) {
	var (
		services []db.Service
		stats    []db.ServiceStatistics
	)
	err := r.cluster.Transaction(func(tx *db.ClusterTx) error {
		var err error
		if services, err = tx.Services(); err != nil {
			return errors.WithStack(err)
		}
		stats, err = tx.ServiceStatistics()
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, Failure(err)
	}

	byID := make(map[int64]db.ServiceStatistics, len(stats))
	for _, s := range stats {
		byID[s.ServiceID] = s
	}
	result := make([]Statistics, 0, len(services))
	for _, service := range services {
		s := byID[service.ID]
		result = append(result, Statistics{
			Service:       service,
			Running:       s.Running,
			Queued:        s.Queued,
			MeanQueueTime: s.MeanQueueTime,
			MeanRunTime:   s.MeanRunTime,
		})
	}
	return result, nil
}
