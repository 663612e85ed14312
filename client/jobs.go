package client

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/pkg/api/daemon/jobs"
	"github.com/spoke-d/dispatchd/pkg/client"
)

// Jobs represents the job store of the registry.
type Jobs struct {
	client *Client
}

// List returns the jobs matching the filter
func (j *Jobs) List(filter db.JobFilter) ([]db.Job, error) {
	var result []db.Job
	if err := j.client.exec("GET", withQuery("/1.0/jobs", filterValues(filter)), nil, "", readInto(&result)); err != nil {
		return nil, errors.WithStack(err)
	}
	return result, nil
}

// Count returns the number of jobs matching the filter
func (j *Jobs) Count(filter db.JobFilter) (int64, error) {
	var result jobs.Count
	if err := j.client.exec("GET", withQuery("/1.0/jobs/count", filterValues(filter)), nil, "", readInto(&result)); err != nil {
		return 0, errors.WithStack(err)
	}
	return result.Count, nil
}

// Get returns the job together with its etag
func (j *Jobs) Get(id int64) (db.Job, string, error) {
	var (
		result db.Job
		etag   string
	)
	read := readInto(&result)
	if err := j.client.exec("GET", jobPath(id), nil, "", func(response *client.Response, meta Metadata) error {
		etag = meta.ETag
		return read(response, meta)
	}); err != nil {
		return result, "", errors.WithStack(err)
	}
	return result, etag, nil
}

// Create stores a new job
func (j *Jobs) Create(create jobs.Create) (db.Job, error) {
	var result db.Job
	if err := j.client.exec("POST", "/1.0/jobs", create, "", readInto(&result)); err != nil {
		return result, errors.WithStack(err)
	}
	return result, nil
}

// Update changes the job, the etag guards against concurrent changes when
// given.
func (j *Jobs) Update(job db.Job, etag string) (db.Job, error) {
	var result db.Job
	if err := j.client.exec("PUT", jobPath(job.ID), job, etag, readInto(&result)); err != nil {
		return result, errors.WithStack(err)
	}
	return result, nil
}

// Children returns the direct child jobs
func (j *Jobs) Children(id int64) ([]db.Job, error) {
	var result []db.Job
	if err := j.client.exec("GET", jobPath(id)+"/children", nil, "", readInto(&result)); err != nil {
		return nil, errors.WithStack(err)
	}
	return result, nil
}

// Remove deletes the jobs and all their descendants
func (j *Jobs) Remove(ids []int64) (int, error) {
	var result jobs.Removed
	if err := j.client.exec("POST", "/1.0/jobs/remove", jobs.Removal{IDs: ids}, "", readInto(&result)); err != nil {
		return 0, errors.WithStack(err)
	}
	return result.Removed, nil
}

// RemoveParentless deletes terminated top level jobs older than the given
// number of days.
func (j *Jobs) RemoveParentless(lifetimeDays int64) (int, error) {
	var result jobs.Removed
	if err := j.client.exec("POST", "/1.0/jobs/parentless", jobs.Parentless{LifetimeDays: lifetimeDays}, "", readInto(&result)); err != nil {
		return 0, errors.WithStack(err)
	}
	return result.Removed, nil
}

func jobPath(id int64) string {
	return fmt.Sprintf("/1.0/jobs/%d", id)
}

func filterValues(filter db.JobFilter) url.Values {
	statuses := make([]string, len(filter.Statuses))
	for i, status := range filter.Statuses {
		statuses[i] = status.String()
	}
	return url.Values{
		"type":      {filter.Type},
		"operation": {filter.Operation},
		"host":      {filter.Host},
		"status":    {strings.Join(statuses, ",")},
	}
}

// ParseJobIDs parses a list of job ids.
func ParseJobIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid job id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
