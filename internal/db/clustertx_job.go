package db

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Job is a durable record of an asynchronous unit of work.
type Job struct {
	ID                 int64     `json:"id" yaml:"id"`
	Version            int64     `json:"version" yaml:"version"`
	Type               string    `json:"type" yaml:"type"`
	Operation          string    `json:"operation" yaml:"operation"`
	Arguments          []string  `json:"arguments" yaml:"arguments"`
	Payload            string    `json:"payload" yaml:"payload"`
	Status             JobStatus `json:"status" yaml:"status"`
	Dispatchable       bool      `json:"dispatchable" yaml:"dispatchable"`
	Creator            string    `json:"creator" yaml:"creator"`
	Organization       string    `json:"organization" yaml:"organization"`
	CreatorServiceID   int64     `json:"creator_service_id" yaml:"creator_service_id"`
	CreatedHost        string    `json:"created_host" yaml:"created_host"`
	ProcessorServiceID int64     `json:"processor_service_id" yaml:"processor_service_id"`
	ProcessingHost     string    `json:"processing_host" yaml:"processing_host"`
	ParentID           int64     `json:"parent_id" yaml:"parent_id"`
	RootID             int64     `json:"root_id" yaml:"root_id"`
	DateCreated        time.Time `json:"date_created" yaml:"date_created"`
	DateStarted        time.Time `json:"date_started" yaml:"date_started"`
	DateCompleted      time.Time `json:"date_completed" yaml:"date_completed"`
	QueueTime          int64     `json:"queue_time" yaml:"queue_time"`
	RunTime            int64     `json:"run_time" yaml:"run_time"`
	Signature          string    `json:"signature" yaml:"signature"`
}

// JobFilter narrows job listings and counts. Zero fields match anything.
type JobFilter struct {
	Type      string
	Operation string
	Host      string
	Statuses  []JobStatus
}

// JobAdd inserts a new job and returns its id.
func (c *ClusterTx) JobAdd(job Job) (int64, error) {
	arguments, err := encodeArguments(job.Arguments)
	if err != nil {
		return -1, err
	}
	columns := []string{
		"version",
		"type",
		"operation",
		"arguments",
		"payload",
		"status",
		"dispatchable",
		"creator",
		"organization",
		"creator_service_id",
		"processor_service_id",
		"parent_id",
		"root_id",
		"date_created",
		"date_started",
		"date_completed",
		"queue_time",
		"run_time",
		"signature",
	}
	values := []interface{}{
		0,
		job.Type,
		job.Operation,
		arguments,
		job.Payload,
		job.Status,
		boolToInt(job.Dispatchable),
		job.Creator,
		job.Organization,
		nullable(job.CreatorServiceID),
		nullable(job.ProcessorServiceID),
		nullable(job.ParentID),
		nullable(job.RootID),
		job.DateCreated.UTC(),
		job.DateStarted.UTC(),
		job.DateCompleted.UTC(),
		job.QueueTime,
		job.RunTime,
		Signature(job.Type, job.Operation),
	}
	return c.query.UpsertObject(c.tx, "jobs", columns, values)
}

// JobByID returns the job with the given id.
func (c *ClusterTx) JobByID(id int64) (Job, error) {
	jobs, err := c.jobs("j.id=?", id)
	if err != nil {
		return Job{}, err
	}
	switch len(jobs) {
	case 0:
		return Job{}, ErrNoSuchObject
	case 1:
		return jobs[0], nil
	default:
		return Job{}, errors.Errorf("more than one job matches")
	}
}

// JobUpdate persists every mutable field of the job and bumps its version.
func (c *ClusterTx) JobUpdate(job Job) error {
	arguments, err := encodeArguments(job.Arguments)
	if err != nil {
		return err
	}
	return c.exec(`
UPDATE jobs
   SET version=version+1, operation=?, signature=?, arguments=?, payload=?, status=?, dispatchable=?,
       processor_service_id=?, date_started=?, date_completed=?, queue_time=?, run_time=?
 WHERE id=?`,
		job.Operation,
		Signature(job.Type, job.Operation),
		arguments,
		job.Payload,
		job.Status,
		boolToInt(job.Dispatchable),
		nullable(job.ProcessorServiceID),
		job.DateStarted.UTC(),
		job.DateCompleted.UTC(),
		job.QueueTime,
		job.RunTime,
		job.ID,
	)
}

// JobClaim moves the job to the given status and processor, but only if
// nobody touched the job since version was read. ErrConflict is returned
// when another writer got there first.
func (c *ClusterTx) JobClaim(id, version int64, status JobStatus, processorServiceID int64) error {
	err := c.exec(
		"UPDATE jobs SET status=?, processor_service_id=?, version=version+1 WHERE id=? AND version=?",
		status, nullable(processorServiceID), id, version,
	)
	if err == ErrNoSuchObject {
		return ErrConflict
	}
	return err
}

// JobsDispatchable returns at most limit dispatchable jobs waiting for a
// processor, restarted jobs first and then oldest first.
func (c *ClusterTx) JobsDispatchable(limit int) ([]Job, error) {
	where := "j.dispatchable=1 AND j.status IN (?, ?) ORDER BY CASE j.status WHEN ? THEN 0 ELSE 1 END, j.date_created, j.id"
	if limit > 0 {
		where += fmt.Sprintf(" LIMIT %d", limit)
	}
	return c.jobsOrdered(where, StatusQueued, StatusRestart, StatusRestart)
}

// JobsByProcessor returns the jobs processed by the given service in any of
// the given statuses.
func (c *ClusterTx) JobsByProcessor(serviceID int64, statuses ...JobStatus) ([]Job, error) {
	where := "j.processor_service_id=?"
	args := []interface{}{serviceID}
	if len(statuses) > 0 {
		where += " AND " + in("j.status", len(statuses))
		args = append(args, statusArgs(statuses)...)
	}
	return c.jobs(where, args...)
}

// Jobs returns the jobs matching the filter.
func (c *ClusterTx) Jobs(filter JobFilter) ([]Job, error) {
	where, args := filter.clause()
	return c.jobs(where, args...)
}

// JobChildren returns the direct children of the given job.
func (c *ClusterTx) JobChildren(id int64) ([]Job, error) {
	return c.jobs("j.parent_id=?", id)
}

// JobsByRoot returns every descendant of the given root job.
func (c *ClusterTx) JobsByRoot(rootID int64) ([]Job, error) {
	return c.jobs("j.root_id=?", rootID)
}

// JobsWithoutParent returns terminated jobs without a parent that were
// created before the given time, leaving workflow control jobs alone.
func (c *ClusterTx) JobsWithoutParent(before time.Time) ([]Job, error) {
	statuses := []JobStatus{StatusFinished, StatusFailed, StatusDeleted, StatusCanceled}
	where := "j.parent_id IS NULL AND j.date_created<? AND j.operation NOT IN (?, ?, ?) AND " + in("j.status", len(statuses))
	args := []interface{}{
		before.UTC(),
		OperationStartOperation,
		OperationStartWorkflow,
		OperationResume,
	}
	args = append(args, statusArgs(statuses)...)
	return c.jobs(where, args...)
}

// JobRemove deletes the job with the given id. Descendants go with it.
func (c *ClusterTx) JobRemove(id int64) error {
	deleted, err := c.query.DeleteObject(c.tx, "jobs", id)
	if err != nil {
		return errors.WithStack(err)
	}
	if !deleted {
		return ErrNoSuchObject
	}
	return nil
}

// JobCount returns the number of jobs matching the filter.
func (c *ClusterTx) JobCount(filter JobFilter) (int64, error) {
	where, args := filter.clause()
	stmt := `
SELECT COUNT(*)
  FROM jobs AS j
  LEFT JOIN services AS ps ON ps.id = j.processor_service_id
  LEFT JOIN hosts AS ph ON ph.id = ps.host_id `
	if where != "" {
		stmt += fmt.Sprintf("WHERE %s", where)
	}
	var counts []int64
	dest := func(i int) []interface{} {
		counts = append(counts, 0)
		return []interface{}{&counts[i]}
	}
	if err := c.query.SelectObjects(c.tx, dest, stmt, args...); err != nil {
		return -1, errors.Wrap(err, "failed to count jobs")
	}
	if len(counts) != 1 {
		return -1, errors.Errorf("expected one count row, got %d", len(counts))
	}
	return counts[0], nil
}

// ServiceFailedJobCount returns how many jobs failed on the given service
// since the given time.
func (c *ClusterTx) ServiceFailedJobCount(serviceID int64, since time.Time) (int, error) {
	return c.query.Count(
		c.tx,
		"jobs",
		"processor_service_id=? AND status=? AND date_completed>=?",
		serviceID, StatusFailed, since.UTC(),
	)
}

func (f JobFilter) clause() (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	if f.Type != "" {
		where = append(where, "j.type=?")
		args = append(args, f.Type)
	}
	if f.Operation != "" {
		where = append(where, "j.operation=?")
		args = append(args, f.Operation)
	}
	if f.Host != "" {
		where = append(where, "ph.base_url=?")
		args = append(args, f.Host)
	}
	if len(f.Statuses) > 0 {
		where = append(where, in("j.status", len(f.Statuses)))
		args = append(args, statusArgs(f.Statuses)...)
	}
	return strings.Join(where, " AND "), args
}

func (c *ClusterTx) jobs(where string, args ...interface{}) ([]Job, error) {
	if where == "" {
		return c.jobsOrdered("1=1 ORDER BY j.id", args...)
	}
	return c.jobsOrdered(where+" ORDER BY j.id", args...)
}

// jobsOrdered expects the where clause to carry its own ordering.
func (c *ClusterTx) jobsOrdered(where string, args ...interface{}) ([]Job, error) {
	var (
		jobs      []Job
		arguments []string
	)
	dest := func(i int) []interface{} {
		jobs = append(jobs, Job{})
		arguments = append(arguments, "")
		return []interface{}{
			&jobs[i].ID,
			&jobs[i].Version,
			&jobs[i].Type,
			&jobs[i].Operation,
			&arguments[i],
			&jobs[i].Payload,
			&jobs[i].Status,
			&jobs[i].Dispatchable,
			&jobs[i].Creator,
			&jobs[i].Organization,
			&jobs[i].CreatorServiceID,
			&jobs[i].CreatedHost,
			&jobs[i].ProcessorServiceID,
			&jobs[i].ProcessingHost,
			&jobs[i].ParentID,
			&jobs[i].RootID,
			&jobs[i].DateCreated,
			&jobs[i].DateStarted,
			&jobs[i].DateCompleted,
			&jobs[i].QueueTime,
			&jobs[i].RunTime,
			&jobs[i].Signature,
		}
	}
	stmt := fmt.Sprintf(`
SELECT j.id, j.version, j.type, j.operation, j.arguments, j.payload, j.status, j.dispatchable,
       j.creator, j.organization,
       COALESCE(j.creator_service_id, 0), COALESCE(ch.base_url, ''),
       COALESCE(j.processor_service_id, 0), COALESCE(ph.base_url, ''),
       COALESCE(j.parent_id, 0), COALESCE(j.root_id, 0),
       j.date_created, j.date_started, j.date_completed, j.queue_time, j.run_time, j.signature
  FROM jobs AS j
  LEFT JOIN services AS cs ON cs.id = j.creator_service_id
  LEFT JOIN hosts AS ch ON ch.id = cs.host_id
  LEFT JOIN services AS ps ON ps.id = j.processor_service_id
  LEFT JOIN hosts AS ph ON ph.id = ps.host_id
 WHERE %s`, where)
	if err := c.query.SelectObjects(c.tx, dest, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to fetch jobs")
	}
	for i := range jobs {
		if err := json.Unmarshal([]byte(arguments[i]), &jobs[i].Arguments); err != nil {
			return nil, errors.Wrapf(err, "failed to decode arguments of job %d", jobs[i].ID)
		}
	}
	return jobs, nil
}

func encodeArguments(arguments []string) (string, error) {
	if arguments == nil {
		arguments = []string{}
	}
	b, err := json.Marshal(arguments)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(b), nil
}

func statusArgs(statuses []JobStatus) []interface{} {
	args := make([]interface{}, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	return args
}
