// Package failover moves services between the NORMAL, WARNING and ERROR
// health states as the jobs they process fail or finish.
package failover

import (
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

// Machine is the failover state machine.
type Machine struct {
	cluster Cluster
	config  ConfigSource
	events  events.Sender
	clock   clock.Clock
	logger  log.Logger
}

// New creates a Machine with sane defaults
func New(cluster Cluster, config ConfigSource, options ...Option) *Machine {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	return &Machine{
		cluster: cluster,
		config:  config,
		events:  opts.events,
		clock:   opts.clock,
		logger:  opts.logger,
	}
}

// Process reacts to the job having reached its current status. Only
// dispatchable jobs that are not workflows, and that FAILED or FINISHED,
// affect service health.
func (m *Machine) Process(job db.Job) error {
	if !job.Dispatchable || job.Type == db.WorkflowType || job.ProcessorServiceID <= 0 {
		return nil
	}
	if job.Status != db.StatusFailed && job.Status != db.StatusFinished {
		return nil
	}

	config, err := m.config.Read()
	if err != nil {
		return errors.Wrap(err, "failed to read config")
	}
	gate, err := newGate(config)
	if err != nil {
		return errors.WithStack(err)
	}

	var current db.Service
	if err := m.cluster.Transaction(func(tx *db.ClusterTx) error {
		var err error
		current, err = tx.ServiceByID(job.ProcessorServiceID)
		return err
	}); errors.Cause(err) == db.ErrNoSuchObject {
		level.Debug(m.logger).Log("msg", "Processor of job is gone", "job", job.ID)
		return nil
	} else if err != nil {
		return errors.WithStack(err)
	}

	if job.Status == db.StatusFailed {
		return m.failed(job, current, gate)
	}
	return m.finished(job, current, gate)
}

func (m *Machine) failed(job db.Job, current db.Service, gate gate) error {
	related, err := m.related(job, current)
	if err != nil {
		return err
	}

	// Another service already failed this kind of job, so the job is more
	// likely to be at fault than the services.
	if len(related) > 0 {
		for _, service := range related {
			switch service.State {
			case db.StateWarning:
				if err := m.setState(service, db.StateNormal, "", ""); err != nil {
					return err
				}
			case db.StateError:
				if err := m.setState(service, db.StateWarning, service.WarningTrigger, ""); err != nil {
					return err
				}
			}
		}
		return nil
	}

	switch current.State {
	case db.StateNormal:
		return m.setState(current, db.StateWarning, job.Signature, "")
	case db.StateWarning:
		if !gate.allows(current.ServiceType) {
			return nil
		}
		var failures int
		if err := m.cluster.Transaction(func(tx *db.ClusterTx) error {
			var err error
			failures, err = tx.ServiceFailedJobCount(current.ID, current.StateChanged)
			return err
		}); err != nil {
			return errors.WithStack(err)
		}
		if failures < gate.maxAttempts {
			level.Debug(m.logger).Log("msg", "Service below failure threshold", "service", current.ServiceType, "host", current.Host, "failures", failures)
			return nil
		}
		return m.setState(current, db.StateError, current.WarningTrigger, job.Signature)
	}
	return nil
}

func (m *Machine) finished(job db.Job, current db.Service, gate gate) error {
	if current.State == db.StateWarning {
		if err := m.setState(current, db.StateNormal, "", ""); err != nil {
			return err
		}
	}

	related, err := m.related(job, current)
	if err != nil {
		return err
	}
	if !gate.allows(current.ServiceType) {
		return nil
	}
	// The job runs fine elsewhere, so the services that warned about it
	// are to blame.
	for _, service := range related {
		if service.State != db.StateWarning {
			continue
		}
		if err := m.setState(service, db.StateError, service.WarningTrigger, job.Signature); err != nil {
			return err
		}
	}
	return nil
}

// related returns the other services of the job's type whose state was
// triggered by the job's signature.
func (m *Machine) related(job db.Job, current db.Service) ([]db.Service, error) {
	var services []db.Service
	err := m.cluster.Transaction(func(tx *db.ClusterTx) error {
		var err error
		services, err = tx.RelatedServices(current.ServiceType, job.Signature)
		return err
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	result := services[:0]
	for _, service := range services {
		if service.ID != current.ID {
			result = append(result, service)
		}
	}
	return result, nil
}

func (m *Machine) setState(service db.Service, state db.HealthState, warningTrigger, errorTrigger string) error {
	if err := m.cluster.Transaction(func(tx *db.ClusterTx) error {
		return tx.ServiceSetState(service.ID, state, warningTrigger, errorTrigger, m.clock.UTC())
	}); err != nil {
		return errors.Wrapf(err, "failed to set state of service %d", service.ID)
	}

	level.Info(m.logger).Log("msg", "Service changed state", "service", service.ServiceType, "host", service.Host, "from", service.State, "to", state)
	m.events.Send(events.TypeService, "service-state", map[string]interface{}{
		"service_type": service.ServiceType,
		"host":         service.Host,
		"state":        state.String(),
	})
	return nil
}

// gate decides whether services may be put into the ERROR state.
type gate struct {
	enabled     bool
	maxAttempts int
	exempt      map[string]struct{}
}

func newGate(config *clusterconfig.ReadOnlyConfig) (gate, error) {
	enabled, err := config.FailoverErrorStates()
	if err != nil {
		return gate{}, err
	}
	maxAttempts, err := config.FailoverMaxAttempts()
	if err != nil {
		return gate{}, err
	}
	types, err := config.FailoverNoErrorStateTypes()
	if err != nil {
		return gate{}, err
	}
	exempt := make(map[string]struct{}, len(types))
	for _, t := range types {
		exempt[t] = struct{}{}
	}
	return gate{
		enabled:     enabled,
		maxAttempts: maxAttempts,
		exempt:      exempt,
	}, nil
}

func (g gate) allows(serviceType string) bool {
	if !g.enabled {
		return false
	}
	_, ok := g.exempt[serviceType]
	return !ok
}
