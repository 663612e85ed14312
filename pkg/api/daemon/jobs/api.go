package jobs

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/json"
	"github.com/spoke-d/dispatchd/internal/registry"
	"github.com/spoke-d/dispatchd/pkg/api"
)

// API defines the jobs API
type API struct {
	api.DefaultService
	name   string
	logger log.Logger
}

// NewAPI creates a API with sane defaults
func NewAPI(name string, options ...Option) *API {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	return &API{
		name:   name,
		logger: opts.logger,
	}
}

// Name returns the API name
func (a *API) Name() string {
	return a.name
}

// Get returns the jobs matching the "type", "operation", "host" and
// "status" query parameters.
func (a *API) Get(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	filter, err := parseFilter(req)
	if err != nil {
		return api.BadRequest(err)
	}
	jobs, err := d.Registry().Jobs(filter)
	if err != nil {
		return api.SmartError(err)
	}
	if jobs == nil {
		jobs = []db.Job{}
	}
	return api.SyncResponse(true, jobs)
}

// Post creates a job on behalf of a registered service.
func (a *API) Post(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	var create Create
	if err := json.Read(req.Body, &create); err != nil {
		return api.BadRequest(err)
	}

	job, err := d.Registry().CreateJob(registry.CreateJobParams{
		Host:         create.Host,
		Type:         create.Type,
		Operation:    create.Operation,
		Arguments:    create.Arguments,
		Payload:      create.Payload,
		Dispatchable: create.Dispatchable,
		ParentID:     create.ParentID,
		Creator:      create.Creator,
		Organization: create.Organization,
	})
	if err != nil {
		return api.SmartError(err)
	}
	level.Debug(a.logger).Log("msg", "Created job", "job", job.ID, "type", job.Type, "operation", job.Operation)
	return api.SyncResponse(true, job)
}

// Create is the body of a job creation.
type Create struct {
	Host         string   `json:"host" yaml:"host"`
	Type         string   `json:"type" yaml:"type"`
	Operation    string   `json:"operation" yaml:"operation"`
	Arguments    []string `json:"arguments" yaml:"arguments"`
	Payload      string   `json:"payload" yaml:"payload"`
	Dispatchable bool     `json:"dispatchable" yaml:"dispatchable"`
	ParentID     int64    `json:"parent_id" yaml:"parent_id"`
	Creator      string   `json:"creator" yaml:"creator"`
	Organization string   `json:"organization" yaml:"organization"`
}

// Count holds the number of jobs matching a filter.
type Count struct {
	Count int64 `json:"count" yaml:"count"`
}

// Removal names the jobs to remove.
type Removal struct {
	IDs []int64 `json:"ids" yaml:"ids"`
}

// Parentless asks for the removal of root jobs older than the lifetime,
// in days.
type Parentless struct {
	LifetimeDays int64 `json:"lifetime_days" yaml:"lifetime_days"`
}

// Removed holds the number of jobs removed.
type Removed struct {
	Removed int `json:"removed" yaml:"removed"`
}

func parseFilter(req *http.Request) (db.JobFilter, error) {
	filter := db.JobFilter{
		Type:      req.FormValue("type"),
		Operation: req.FormValue("operation"),
		Host:      req.FormValue("host"),
	}
	if raw := req.FormValue("status"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			status, err := db.ParseJobStatus(strings.ToUpper(strings.TrimSpace(name)))
			if err != nil {
				return db.JobFilter{}, err
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	return filter, nil
}

func jobID(req *http.Request) (int64, error) {
	raw, ok := mux.Vars(req)["id"]
	if !ok {
		return 0, errors.Errorf("job id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid job id %q", raw)
	}
	return id, nil
}
