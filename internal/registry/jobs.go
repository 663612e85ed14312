package registry

import (
	"time"

	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/events"
)

// CreateJobParams holds the input of CreateJob.
type CreateJobParams struct {
	Host         string
	Type         string
	Operation    string
	Arguments    []string
	Payload      string
	Dispatchable bool
	ParentID     int64
	Creator      string
	Organization string
}

// CreateJob stores a new job on behalf of the service of the given type
// running on the given host. Dispatchable jobs are queued for the
// dispatcher, the rest start running straight away on the creating service.
func (r *Registry) CreateJob(params CreateJobParams) (db.Job, error) {
	if isBlank(params.Host) || isBlank(params.Type) || isBlank(params.Operation) {
		return db.Job{}, IllegalArgument("host, type and operation must not be blank")
	}
	if params.Organization == "" {
		params.Organization = db.DefaultOrganization
	}

	var job db.Job
	err := r.cluster.Transaction(func(tx *db.ClusterTx) error {
		creator, err := tx.ServiceByTypeAndHost(params.Type, params.Host)
		if err == db.ErrNoSuchObject {
			return errors.WithStack(ServiceRegistryError{
				err: errors.Errorf("no service of type %q registered on host %q", params.Type, params.Host),
			})
		} else if err != nil {
			return errors.WithStack(err)
		}

		job = db.Job{
			Type:             params.Type,
			Operation:        params.Operation,
			Arguments:        params.Arguments,
			Payload:          params.Payload,
			Dispatchable:     params.Dispatchable,
			Creator:          params.Creator,
			Organization:     params.Organization,
			CreatorServiceID: creator.ID,
			DateCreated:      r.clock.UTC(),
			Signature:        db.Signature(params.Type, params.Operation),
		}
		if params.ParentID > 0 {
			parent, err := tx.JobByID(params.ParentID)
			if err == db.ErrNoSuchObject {
				return NotFound("parent job %d does not exist", params.ParentID)
			} else if err != nil {
				return errors.WithStack(err)
			}
			job.ParentID = parent.ID
			job.RootID = parent.RootID
			if job.RootID == 0 {
				job.RootID = parent.ID
			}
		}
		if job.Dispatchable {
			job.Status = db.StatusQueued
		} else {
			job.Status = db.StatusRunning
			job.ProcessorServiceID = creator.ID
			job.DateStarted = job.DateCreated
			job.QueueTime = 0
		}

		id, err := tx.JobAdd(job)
		if err != nil {
			return errors.WithStack(err)
		}
		job, err = tx.JobByID(id)
		return errors.WithStack(err)
	})
	if err != nil {
		return db.Job{}, Failure(err)
	}

	level.Debug(r.logger).Log("msg", "Created job", "job", job.ID, "type", job.Type, "operation", job.Operation)
	r.events.Send(events.TypeJob, "job-created", job)
	return job, nil
}

// UpdateJob persists the job, stamping its start and completion times as
// the status moves along. When the status changes the failover state
// machine is run once the update is committed.
func (r *Registry) UpdateJob(job db.Job) (db.Job, error) {
	var (
		updated  db.Job
		previous db.JobStatus
	)
	err := r.cluster.Transaction(func(tx *db.ClusterTx) error {
		stored, err := tx.JobByID(job.ID)
		if err == db.ErrNoSuchObject {
			return NotFound("job %d does not exist", job.ID)
		} else if err != nil {
			return errors.WithStack(err)
		}
		previous = stored.Status

		updated = stored
		updated.Operation = job.Operation
		updated.Arguments = job.Arguments
		updated.Payload = job.Payload
		updated.Status = job.Status
		updated.Dispatchable = job.Dispatchable
		if !job.DateStarted.IsZero() {
			updated.DateStarted = job.DateStarted
		}
		if !job.DateCompleted.IsZero() {
			updated.DateCompleted = job.DateCompleted
		}

		switch {
		case job.ProcessingHost != "":
			processor, err := tx.ServiceByTypeAndHost(stored.Type, job.ProcessingHost)
			if err == db.ErrNoSuchObject {
				return NotFound("no service of type %q registered on host %q", stored.Type, job.ProcessingHost)
			} else if err != nil {
				return errors.WithStack(err)
			}
			updated.ProcessorServiceID = processor.ID
			updated.ProcessingHost = job.ProcessingHost
		case job.ProcessorServiceID > 0:
			updated.ProcessorServiceID = job.ProcessorServiceID
		}

		stamp(&updated, previous, r.clock.UTC())

		if err := tx.JobUpdate(updated); err != nil {
			return errors.WithStack(err)
		}
		updated, err = tx.JobByID(job.ID)
		return errors.WithStack(err)
	})
	if err != nil {
		return db.Job{}, Failure(err)
	}

	r.events.Send(events.TypeJob, "job-updated", updated)
	if previous != updated.Status {
		if err := r.failover.Process(updated); err != nil {
			level.Warn(r.logger).Log("msg", "Failover processing failed", "job", updated.ID, "err", err)
		}
	}
	return updated, nil
}

// stamp fills in the timing fields that belong to the job's new status.
// Durations are in milliseconds.
func stamp(job *db.Job, previous db.JobStatus, now time.Time) {
	switch job.Status {
	case db.StatusRunning:
		if previous == db.StatusWaiting || !job.DateStarted.IsZero() {
			return
		}
		job.DateStarted = now
		job.QueueTime = millis(now.Sub(job.DateCreated))
	case db.StatusFailed:
		if !job.DateCompleted.IsZero() {
			return
		}
		job.DateCompleted = now
		started := job.DateStarted
		if started.IsZero() {
			started = job.DateCreated
		}
		job.RunTime = millis(now.Sub(started))
	case db.StatusFinished:
		if job.DateStarted.IsZero() {
			job.DateStarted = job.DateCreated
		}
		if !job.DateCompleted.IsZero() {
			return
		}
		job.DateCompleted = now
		job.RunTime = millis(now.Sub(job.DateStarted))
	}
}

func millis(d time.Duration) int64 {
	return int64(d / time.Millisecond)
}

// Job returns the job with the given id.
func (r *Registry) Job(id int64) (db.Job, error) {
	var job db.Job
	err := r.cluster.Transaction(func(tx *db.ClusterTx) error {
		var err error
		job, err = tx.JobByID(id)
		if err == db.ErrNoSuchObject {
			return NotFound("job %d does not exist", id)
		}
		return errors.WithStack(err)
	})
	return job, Failure(err)
}

// ChildJobs returns every descendant of the job. Root jobs answer from the
// root index, other jobs walk their children.
func (r *Registry) ChildJobs(id int64) ([]db.Job, error) {
	var jobs []db.Job
	err := r.cluster.Transaction(func(tx *db.ClusterTx) error {
		if _, err := tx.JobByID(id); err == db.ErrNoSuchObject {
			return NotFound("job %d does not exist", id)
		} else if err != nil {
			return errors.WithStack(err)
		}
		var err error
		if jobs, err = tx.JobsByRoot(id); err != nil {
			return errors.WithStack(err)
		}
		if len(jobs) > 0 {
			return nil
		}
		jobs, err = descendants(tx, id)
		return err
	})
	return jobs, Failure(err)
}

func descendants(tx *db.ClusterTx, id int64) ([]db.Job, error) {
	children, err := tx.JobChildren(id)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	result := children
	for _, child := range children {
		grandchildren, err := descendants(tx, child.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, grandchildren...)
	}
	return result, nil
}

// cleanRunningJobs recovers the jobs that the service was processing when
// it went away. Dispatchable jobs are restarted with their descendants
// cancelled, and the rest are failed.
func (r *Registry) cleanRunningJobs(tx *db.ClusterTx, service db.Service) error {
	jobs, err := tx.JobsByProcessor(service.ID, db.StatusRunning, db.StatusDispatching, db.StatusWaiting)
	if err != nil {
		return errors.WithStack(err)
	}

	for _, candidate := range jobs {
		// An earlier iteration may already have cancelled or restarted it.
		job, err := tx.JobByID(candidate.ID)
		if err == db.ErrNoSuchObject {
			continue
		} else if err != nil {
			return errors.WithStack(err)
		}
		if job.Status == db.StatusCanceled || job.Status == db.StatusRestart {
			continue
		}

		if !job.Dispatchable {
			level.Info(r.logger).Log("msg", "Marking undispatchable job as failed", "job", job.ID)
			job.Status = db.StatusFailed
			stamp(&job, candidate.Status, r.clock.UTC())
			if err := tx.JobUpdate(job); err != nil {
				return errors.WithStack(err)
			}
			continue
		}

		if job.RootID > 0 {
			root, err := tx.JobByID(job.RootID)
			if err != nil && err != db.ErrNoSuchObject {
				return errors.WithStack(err)
			}
			if err == nil && root.Status == db.StatusPaused {
				level.Info(r.logger).Log("msg", "Restarting paused root job", "job", root.ID)
				if err := r.cancelDescendants(tx, root.ID); err != nil {
					return err
				}
				root.Status = db.StatusRestart
				root.Operation = db.OperationStartOperation
				if err := tx.JobUpdate(root); err != nil {
					return errors.WithStack(err)
				}
				continue
			}
		}

		level.Info(r.logger).Log("msg", "Marking job for restart", "job", job.ID, "service", service.ServiceType, "host", service.Host)
		if err := r.cancelDescendants(tx, job.ID); err != nil {
			return err
		}
		job.Status = db.StatusRestart
		job.ProcessorServiceID = 0
		if err := tx.JobUpdate(job); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// cleanUndispatchableJobs cancels the non-dispatchable jobs left behind on
// the host by an earlier run. Nothing can pick them up again.
func (r *Registry) cleanUndispatchableJobs(tx *db.ClusterTx, baseURL string) error {
	jobs, err := tx.Jobs(db.JobFilter{
		Host:     baseURL,
		Statuses: []db.JobStatus{db.StatusInstantiated, db.StatusRunning},
	})
	if err != nil {
		return errors.WithStack(err)
	}
	for _, job := range jobs {
		if job.Dispatchable {
			continue
		}
		level.Info(r.logger).Log("msg", "Cancelling orphaned undispatchable job", "job", job.ID, "host", baseURL)
		job.Status = db.StatusCanceled
		if err := tx.JobUpdate(job); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func (r *Registry) cancelDescendants(tx *db.ClusterTx, id int64) error {
	children, err := tx.JobChildren(id)
	if err != nil {
		return errors.WithStack(err)
	}
	for _, child := range children {
		if err := r.cancelDescendants(tx, child.ID); err != nil {
			return err
		}
		if child.Status.Terminated() {
			continue
		}
		level.Debug(r.logger).Log("msg", "Cancelling child job", "job", child.ID, "parent", id)
		child.Status = db.StatusCanceled
		if err := tx.JobUpdate(child); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
