// Package dispatcher hands queued jobs to the least loaded service able to
// process them.
package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	clusterconfig "github.com/spoke-d/dispatchd/internal/cluster/config"
	"github.com/spoke-d/dispatchd/internal/clock"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/events"
	"github.com/spoke-d/dispatchd/internal/identity"
	"github.com/spoke-d/dispatchd/internal/load"
	"github.com/spoke-d/dispatchd/internal/task"
	"golang.org/x/time/rate"
)

// Headers sent along with every dispatched job.
const (
	HeaderJob          = "X-Dispatch-Job"
	HeaderCreator      = "X-Dispatch-Creator"
	HeaderOrganization = "X-Dispatch-Organization"
	HeaderCorrelation  = "X-Dispatch-Correlation"
)

// Endpoint is appended to a service path to reach its dispatch handler.
const Endpoint = "/dispatch"

// Cluster mediates access to data stored in the registry database.
type Cluster interface {
	db.ClusterTransactioner
}

// ConfigSource reads the cluster-wide configuration.
type ConfigSource interface {
	Read() (*clusterconfig.ReadOnlyConfig, error)
}

// Resolver checks the identity a job runs on behalf of.
type Resolver interface {
	Resolve(creator, organization string) (identity.Identity, error)
}

// JobUpdater updates jobs through the registry, so that timing and
// failover rules apply.
type JobUpdater interface {
	UpdateJob(db.Job) (db.Job, error)
}

// HTTPClient sends dispatch requests.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Outcome describes what happened to a job during a dispatch cycle.
type Outcome int

// Outcomes of dispatching a single job.
const (
	Accepted Outcome = iota
	Rejected
	Failed
	Conflicted
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case Failed:
		return "failed"
	case Conflicted:
		return "conflicted"
	default:
		return "skipped"
	}
}

// Dispatcher runs dispatch cycles.
type Dispatcher struct {
	cluster  Cluster
	config   ConfigSource
	resolver Resolver
	jobs     JobUpdater
	client   HTTPClient
	limiter  *rate.Limiter
	timeout  time.Duration
	events   events.Sender
	clock    clock.Clock
	logger   log.Logger
}

// New creates a Dispatcher with sane defaults
func New(cluster Cluster, config ConfigSource, resolver Resolver, jobs JobUpdater, options ...Option) *Dispatcher {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	return &Dispatcher{
		cluster:  cluster,
		config:   config,
		resolver: resolver,
		jobs:     jobs,
		client:   opts.client,
		limiter:  rate.NewLimiter(rate.Limit(50), 50),
		timeout:  opts.timeout,
		events:   opts.events,
		clock:    opts.clock,
		logger:   opts.logger,
	}
}

// Run returns a task function that runs a dispatch cycle, scheduled every
// dispatch.interval seconds.
func (d *Dispatcher) Run() (task.Func, task.Schedule) {
	dispatchWrapper := func(ctx context.Context) {
		ch := make(chan struct{}, 1)
		go func() {
			if _, err := d.Dispatch(ctx); err != nil {
				level.Error(d.logger).Log("msg", "Dispatch cycle failed", "err", err)
			}
			ch <- struct{}{}
		}()
		select {
		case <-ch:
		case <-ctx.Done():
		}
	}

	schedule := func() (time.Duration, error) {
		config, err := d.config.Read()
		if err != nil {
			return time.Minute, errors.WithStack(err)
		}
		return config.DispatchInterval()
	}
	return dispatchWrapper, schedule
}

// Dispatch runs a single dispatch cycle and reports the outcome for every
// job considered.
func (d *Dispatcher) Dispatch(ctx context.Context) (map[int64]Outcome, error) {
	config, err := d.config.Read()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}
	limit, err := config.DispatchJobsLimit()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	perSecond, err := config.DispatchRate()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	d.limiter.SetLimit(rate.Limit(perSecond))
	d.limiter.SetBurst(perSecond)

	var (
		jobs     []db.Job
		hosts    []db.Host
		services []db.Service
		counts   map[string]int64
	)
	if err := d.cluster.Transaction(func(tx *db.ClusterTx) error {
		var err error
		if jobs, err = tx.JobsDispatchable(limit); err != nil {
			return errors.WithStack(err)
		}
		if hosts, err = tx.Hosts(); err != nil {
			return errors.WithStack(err)
		}
		if services, err = tx.Services(); err != nil {
			return errors.WithStack(err)
		}
		counts, err = tx.HostLoads(db.WorkflowType)
		return errors.WithStack(err)
	}); err != nil {
		return nil, errors.Wrap(err, "failed to load dispatch state")
	}
	if len(jobs) == 0 {
		return nil, nil
	}
	level.Debug(d.logger).Log("msg", "Starting dispatch cycle", "jobs", len(jobs))

	systemLoad := load.Compute(hosts, counts)
	// Signatures that nobody accepted this cycle.
	undispatchable := make(map[string]struct{})

	outcomes := make(map[int64]Outcome, len(jobs))
	for _, job := range jobs {
		if ctx.Err() != nil {
			return outcomes, ctx.Err()
		}

		signature := job.Type + "@" + job.Operation
		if _, ok := undispatchable[signature]; ok {
			outcomes[job.ID] = Skipped
			continue
		}

		id, err := d.resolver.Resolve(job.Creator, job.Organization)
		if err != nil {
			level.Warn(d.logger).Log("msg", "Skipping job with unresolvable identity", "job", job.ID, "creator", job.Creator, "organization", job.Organization, "err", err)
			outcomes[job.ID] = Skipped
			continue
		}

		limited := job.ParentID == 0 || job.Operation == db.OperationStartWorkflow
		candidates := load.Candidates(job.Type, services, hosts, systemLoad, limited)

		outcome, err := d.dispatchJob(ctx, job, id, candidates, systemLoad)
		if err != nil {
			level.Error(d.logger).Log("msg", "Failed to dispatch job", "job", job.ID, "err", err)
		}
		outcomes[job.ID] = outcome
		if outcome == Rejected {
			undispatchable[signature] = struct{}{}
		}
	}
	return outcomes, nil
}

func (d *Dispatcher) dispatchJob(ctx context.Context, job db.Job, id identity.Identity, candidates []db.Service, systemLoad load.SystemLoad) (Outcome, error) {
	if len(candidates) == 0 {
		level.Debug(d.logger).Log("msg", "No service available for job", "job", job.ID, "type", job.Type)
		return Rejected, nil
	}

	version := job.Version
	for _, candidate := range candidates {
		if err := d.limiter.Wait(ctx); err != nil {
			return Skipped, errors.WithStack(err)
		}

		if err := d.cluster.Transaction(func(tx *db.ClusterTx) error {
			return tx.JobClaim(job.ID, version, db.StatusDispatching, candidate.ID)
		}); errors.Cause(err) == db.ErrConflict {
			level.Debug(d.logger).Log("msg", "Job was claimed concurrently", "job", job.ID)
			return Conflicted, nil
		} else if err != nil {
			return Skipped, errors.WithStack(err)
		}
		version++

		claimed := job
		claimed.Version = version
		claimed.Status = db.StatusDispatching
		claimed.ProcessorServiceID = candidate.ID
		claimed.ProcessingHost = candidate.Host

		status, err := d.send(ctx, claimed, id, candidate)
		if err != nil {
			level.Debug(d.logger).Log("msg", "Dispatch request failed", "job", job.ID, "host", candidate.Host, "err", err)
			continue
		}

		switch status {
		case http.StatusOK, http.StatusNoContent:
			level.Info(d.logger).Log("msg", "Dispatched job", "job", job.ID, "type", job.Type, "operation", job.Operation, "host", candidate.Host)
			systemLoad.Increment(candidate.Host)
			d.events.Send(events.TypeJob, "job-dispatched", claimed)
			return Accepted, nil
		case http.StatusServiceUnavailable:
			level.Debug(d.logger).Log("msg", "Service is busy", "job", job.ID, "host", candidate.Host)
		case http.StatusPreconditionFailed:
			level.Warn(d.logger).Log("msg", "Service refused job", "job", job.ID, "host", candidate.Host)
			claimed.Status = db.StatusFailed
			if _, err := d.jobs.UpdateJob(claimed); err != nil {
				return Failed, errors.Wrap(err, "failed to mark job as failed")
			}
			return Failed, nil
		default:
			level.Debug(d.logger).Log("msg", "Unexpected dispatch response", "job", job.ID, "host", candidate.Host, "status", status)
		}
	}

	if err := d.cluster.Transaction(func(tx *db.ClusterTx) error {
		return tx.JobClaim(job.ID, version, db.StatusQueued, 0)
	}); err != nil {
		return Rejected, errors.Wrap(err, "failed to requeue job")
	}
	return Rejected, nil
}

func (d *Dispatcher) send(ctx context.Context, job db.Job, id identity.Identity, service db.Service) (int, error) {
	var buffer bytes.Buffer
	if err := json.NewEncoder(&buffer).Encode(job); err != nil {
		return -1, errors.WithStack(err)
	}

	url := fmt.Sprintf("%s%s%s", strings.TrimSuffix(service.Host, "/"), service.Path, Endpoint)
	request, err := http.NewRequest("POST", url, &buffer)
	if err != nil {
		return -1, errors.WithStack(err)
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	request = request.WithContext(ctx)

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set(HeaderJob, strconv.FormatInt(job.ID, 10))
	request.Header.Set(HeaderCreator, id.User)
	request.Header.Set(HeaderOrganization, id.Organization)
	request.Header.Set(HeaderCorrelation, uuid.New())

	response, err := d.client.Do(request)
	if err != nil {
		return -1, errors.Wrap(err, "failed to send HTTP request")
	}
	defer response.Body.Close()
	return response.StatusCode, nil
}
