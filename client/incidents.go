package client

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/incidents"
	apiincidents "github.com/spoke-d/dispatchd/pkg/api/daemon/incidents"
)

// Incidents represents the diagnostics services report against jobs.
type Incidents struct {
	client *Client
}

// OfJobs returns the incidents of the jobs. With cascade set, the
// incidents of their descendants are included.
func (i *Incidents) OfJobs(jobIDs []int64, cascade bool) (incidents.Tree, error) {
	ids := make([]string, len(jobIDs))
	for k, id := range jobIDs {
		ids[k] = strconv.FormatInt(id, 10)
	}
	path := withQuery("/1.0/incidents", url.Values{
		"job":     {strings.Join(ids, ",")},
		"cascade": {boolParam(cascade)},
	})

	var result incidents.Tree
	if err := i.client.exec("GET", path, nil, "", readInto(&result)); err != nil {
		return result, errors.WithStack(err)
	}
	return result, nil
}

// Get returns a single incident, localized when a locale is given
func (i *Incidents) Get(id int64, locale string) (apiincidents.Localized, error) {
	path := withQuery(fmt.Sprintf("/1.0/incidents/%d", id), url.Values{"locale": {locale}})

	var result apiincidents.Localized
	if err := i.client.exec("GET", path, nil, "", readInto(&result)); err != nil {
		return result, errors.WithStack(err)
	}
	return result, nil
}

// Report stores an incident against a job
func (i *Incidents) Report(report apiincidents.Report) (db.Incident, error) {
	var result db.Incident
	if err := i.client.exec("POST", "/1.0/incidents", report, "", readInto(&result)); err != nil {
		return result, errors.WithStack(err)
	}
	return result, nil
}
