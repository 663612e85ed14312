package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Detail is a titled piece of text attached to an incident, a stack trace
// or a command line for example.
type Detail struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// Incident is a structured diagnostic attached to a job.
type Incident struct {
	ID         int64             `json:"id" yaml:"id"`
	JobID      int64             `json:"job_id" yaml:"job_id"`
	Timestamp  time.Time         `json:"timestamp" yaml:"timestamp"`
	Code       string            `json:"code" yaml:"code"`
	Severity   Severity          `json:"severity" yaml:"severity"`
	Parameters map[string]string `json:"parameters" yaml:"parameters"`
	Details    []Detail          `json:"details" yaml:"details"`
}

// IncidentAdd stores an incident and returns its id.
func (c *ClusterTx) IncidentAdd(incident Incident) (int64, error) {
	parameters := incident.Parameters
	if parameters == nil {
		parameters = map[string]string{}
	}
	details := incident.Details
	if details == nil {
		details = []Detail{}
	}
	p, err := json.Marshal(parameters)
	if err != nil {
		return -1, errors.WithStack(err)
	}
	d, err := json.Marshal(details)
	if err != nil {
		return -1, errors.WithStack(err)
	}
	columns := []string{"job_id", "timestamp", "code", "severity", "parameters", "details"}
	values := []interface{}{
		incident.JobID,
		incident.Timestamp.UTC(),
		incident.Code,
		incident.Severity,
		string(p),
		string(d),
	}
	return c.query.UpsertObject(c.tx, "incidents", columns, values)
}

// IncidentByID returns the incident with the given id.
func (c *ClusterTx) IncidentByID(id int64) (Incident, error) {
	incidents, err := c.incidents("id=?", id)
	if err != nil {
		return Incident{}, err
	}
	switch len(incidents) {
	case 0:
		return Incident{}, ErrNoSuchObject
	case 1:
		return incidents[0], nil
	default:
		return Incident{}, errors.Errorf("more than one incident matches")
	}
}

// IncidentsByJob returns the incidents of the given job, oldest first.
func (c *ClusterTx) IncidentsByJob(jobID int64) ([]Incident, error) {
	return c.incidents("job_id=?", jobID)
}

func (c *ClusterTx) incidents(where string, args ...interface{}) ([]Incident, error) {
	var (
		incidents  []Incident
		parameters []string
		details    []string
	)
	dest := func(i int) []interface{} {
		incidents = append(incidents, Incident{})
		parameters = append(parameters, "")
		details = append(details, "")
		return []interface{}{
			&incidents[i].ID,
			&incidents[i].JobID,
			&incidents[i].Timestamp,
			&incidents[i].Code,
			&incidents[i].Severity,
			&parameters[i],
			&details[i],
		}
	}
	stmt := `
SELECT id, job_id, timestamp, code, severity, parameters, details
  FROM incidents `
	if where != "" {
		stmt += fmt.Sprintf("WHERE %s ", where)
	}
	stmt += "ORDER BY timestamp, id"
	if err := c.query.SelectObjects(c.tx, dest, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to fetch incidents")
	}
	for i := range incidents {
		if err := json.Unmarshal([]byte(parameters[i]), &incidents[i].Parameters); err != nil {
			return nil, errors.WithStack(err)
		}
		if err := json.Unmarshal([]byte(details[i]), &incidents[i].Details); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	return incidents, nil
}
