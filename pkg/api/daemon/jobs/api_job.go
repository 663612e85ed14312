package jobs

import (
	"context"
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/etag"
	"github.com/spoke-d/dispatchd/internal/json"
	"github.com/spoke-d/dispatchd/pkg/api"
)

// JobAPI reads and updates a single job.
type JobAPI struct {
	api.DefaultService
	name   string
	logger log.Logger
}

// NewJobAPI creates a JobAPI with sane defaults
func NewJobAPI(name string, options ...Option) *JobAPI {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	return &JobAPI{
		name:   name,
		logger: opts.logger,
	}
}

// Name returns the API name
func (a *JobAPI) Name() string {
	return a.name
}

// Get defines a service for calling "GET" method and returns a response.
func (a *JobAPI) Get(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	id, err := jobID(req)
	if err != nil {
		return api.BadRequest(err)
	}
	job, err := d.Registry().Job(id)
	if err != nil {
		return api.SmartError(err)
	}
	return api.SyncResponseETag(true, job, job)
}

// Put updates the job. The id in the path wins over the one in the body,
// an If-Match header must carry the etag of the stored job.
func (a *JobAPI) Put(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	id, err := jobID(req)
	if err != nil {
		return api.BadRequest(err)
	}
	var job db.Job
	if err := json.Read(req.Body, &job); err != nil {
		return api.BadRequest(err)
	}
	job.ID = id

	current, err := d.Registry().Job(id)
	if err != nil {
		return api.SmartError(err)
	}
	if err := etag.Check(req, current); err != nil {
		return api.PreconditionFailed(err)
	}

	updated, err := d.Registry().UpdateJob(job)
	if err != nil {
		return api.SmartError(err)
	}
	return api.SyncResponse(true, updated)
}

// ChildrenAPI lists the descendants of a job.
type ChildrenAPI struct {
	api.DefaultService
	name string
}

// NewChildrenAPI creates a ChildrenAPI with sane defaults
func NewChildrenAPI(name string) *ChildrenAPI {
	return &ChildrenAPI{
		name: name,
	}
}

// Name returns the API name
func (a *ChildrenAPI) Name() string {
	return a.name
}

// Get defines a service for calling "GET" method and returns a response.
func (a *ChildrenAPI) Get(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	id, err := jobID(req)
	if err != nil {
		return api.BadRequest(err)
	}
	children, err := d.Registry().ChildJobs(id)
	if err != nil {
		return api.SmartError(err)
	}
	if children == nil {
		children = []db.Job{}
	}
	return api.SyncResponse(true, children)
}
