package incidents

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/incidents"
	"github.com/spoke-d/dispatchd/internal/json"
	"github.com/spoke-d/dispatchd/pkg/api"
)

// API defines the incidents API
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

// Get returns the incident tree of the jobs listed in the "job" query
// parameter. With "cascade" the tree follows the descendants.
func (a *API) Get(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	raw := req.FormValue("job")
	if raw == "" {
		return api.BadRequest(errors.Errorf("job is required"))
	}
	var jobIDs []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return api.BadRequest(errors.Wrapf(err, "invalid job id %q", part))
		}
		jobIDs = append(jobIDs, id)
	}

	var cascade bool
	if value := req.FormValue("cascade"); value != "" {
		if cascade, err = strconv.ParseBool(value); err != nil {
			return api.BadRequest(errors.Wrap(err, "invalid cascade"))
		}
	}

	tree, err := d.Incidents().IncidentsOfJob(jobIDs, cascade)
	if err != nil {
		return api.SmartError(err)
	}
	return api.SyncResponse(true, tree)
}

// Post stores an incident reported by a service.
func (a *API) Post(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	var report Report
	if err := json.Read(req.Body, &report); err != nil {
		return api.BadRequest(err)
	}

	incident, err := d.Incidents().StoreIncident(
		report.JobID,
		report.Timestamp,
		report.Code,
		report.Severity,
		report.Parameters,
		report.Details,
	)
	if err != nil {
		return api.SmartError(err)
	}
	level.Debug(a.logger).Log("msg", "Stored incident", "id", incident.ID, "job", incident.JobID)
	return api.SyncResponse(true, incident)
}

// IncidentAPI reads a single incident, localized when a locale is asked
// for.
type IncidentAPI struct {
	api.DefaultService
	name   string
	logger log.Logger
}

// NewIncidentAPI creates a IncidentAPI with sane defaults
func NewIncidentAPI(name string, options ...Option) *IncidentAPI {
	opts := newOptions()
	for _, option := range options {
		option(opts)
	}

	return &IncidentAPI{
		name:   name,
		logger: opts.logger,
	}
}

// Name returns the API name
func (a *IncidentAPI) Name() string {
	return a.name
}

// Get defines a service for calling "GET" method and returns a response.
func (a *IncidentAPI) Get(ctx context.Context, req *http.Request) api.Response {
	defer req.Body.Close()

	d, err := api.GetDaemon(ctx)
	if err != nil {
		return api.InternalError(err)
	}

	id, err := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		return api.BadRequest(errors.Wrap(err, "invalid incident id"))
	}
	incident, err := d.Incidents().Incident(id)
	if err != nil {
		return api.SmartError(err)
	}

	result := Localized{
		Incident: incident,
	}
	if locale := req.FormValue("locale"); locale != "" {
		text, err := d.Incidents().Localize(incident.Code, locale, incident.Parameters)
		if err == nil {
			result.Localization = &text
		} else if !incidents.IsNoText(err) {
			return api.SmartError(err)
		}
	}
	return api.SyncResponse(true, result)
}

// Report is the body of an incident report.
type Report struct {
	JobID      int64             `json:"job_id" yaml:"job_id"`
	Timestamp  time.Time         `json:"timestamp" yaml:"timestamp"`
	Code       string            `json:"code" yaml:"code"`
	Severity   db.Severity       `json:"severity" yaml:"severity"`
	Parameters map[string]string `json:"parameters" yaml:"parameters"`
	Details    []db.Detail       `json:"details" yaml:"details"`
}

// Localized is an incident with its human readable text, if any exists
// for the asked locale.
type Localized struct {
	db.Incident  `json:",inline" yaml:",inline"`
	Localization *incidents.Localization `json:"localization,omitempty" yaml:"localization,omitempty"`
}
