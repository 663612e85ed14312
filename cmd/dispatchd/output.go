package main

import (
	"bytes"
	libjson "encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/incidents"
	"github.com/spoke-d/dispatchd/internal/load"
	"github.com/spoke-d/dispatchd/internal/registry"
	apiincidents "github.com/spoke-d/dispatchd/pkg/api/daemon/incidents"
	yaml "gopkg.in/yaml.v2"
)

// table describes how a value is rendered in the tabular format.
type table struct {
	headers []string
	rows    [][]string
}

func outputContent(format string, value interface{}, tab func() table) ([]byte, error) {
	switch format {
	case "yaml":
		return yaml.Marshal(value)
	case "json":
		content, err := libjson.MarshalIndent(value, "", "\t")
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return append(content, '\n'), nil
	case "tabular":
		buf := new(bytes.Buffer)
		renderTable(tab(), buf)
		return buf.Bytes(), nil
	}
	return nil, errors.Errorf("unexpected format %q", format)
}

func output(out io.Writer, format string, value interface{}, tab func() table) error {
	content, err := outputContent(format, value, tab)
	if err != nil {
		return errors.WithStack(err)
	}
	_, err = out.Write(content)
	return errors.WithStack(err)
}

func renderTable(t table, out io.Writer) {
	writer := tablewriter.NewWriter(out)
	writer.SetAlignment(tablewriter.ALIGN_LEFT)
	writer.SetAutoWrapText(false)
	writer.SetAutoFormatHeaders(false)
	writer.SetHeader(t.headers)
	writer.AppendBulk(t.rows)
	writer.Render()
}

func hostsTable(hosts []db.Host) func() table {
	return func() table {
		t := table{headers: []string{"BASE URL", "NODE", "ADDRESS", "MAX JOBS", "ONLINE", "ACTIVE", "MAINTENANCE"}}
		for _, host := range hosts {
			t.rows = append(t.rows, []string{
				host.BaseURL,
				host.NodeName,
				host.Address,
				strconv.FormatInt(host.MaxJobs, 10),
				strconv.FormatBool(host.Online),
				strconv.FormatBool(host.Active),
				strconv.FormatBool(host.Maintenance),
			})
		}
		return t
	}
}

func servicesTable(services []db.Service) func() table {
	return func() table {
		t := table{headers: []string{"ID", "TYPE", "HOST", "PATH", "ONLINE", "ACTIVE", "STATE", "TRIGGER"}}
		for _, service := range services {
			trigger := service.ErrorTrigger
			if trigger == "" {
				trigger = service.WarningTrigger
			}
			t.rows = append(t.rows, []string{
				strconv.FormatInt(service.ID, 10),
				service.ServiceType,
				service.Host,
				service.Path,
				strconv.FormatBool(service.Online),
				strconv.FormatBool(service.Active),
				service.State.String(),
				trigger,
			})
		}
		return t
	}
}

func jobsTable(jobs []db.Job) func() table {
	return func() table {
		t := table{headers: []string{"ID", "TYPE", "OPERATION", "STATUS", "PARENT", "PROCESSING HOST", "CREATED"}}
		for _, job := range jobs {
			t.rows = append(t.rows, []string{
				strconv.FormatInt(job.ID, 10),
				job.Type,
				job.Operation,
				job.Status.String(),
				optionalID(job.ParentID),
				job.ProcessingHost,
				formatTime(job.DateCreated),
			})
		}
		return t
	}
}

func jobTable(job db.Job) func() table {
	return func() table {
		return table{
			headers: []string{"FIELD", "VALUE"},
			rows: [][]string{
				{"id", strconv.FormatInt(job.ID, 10)},
				{"type", job.Type},
				{"operation", job.Operation},
				{"arguments", strings.Join(job.Arguments, " ")},
				{"status", job.Status.String()},
				{"dispatchable", strconv.FormatBool(job.Dispatchable)},
				{"creator", job.Creator},
				{"organization", job.Organization},
				{"processing host", job.ProcessingHost},
				{"parent", optionalID(job.ParentID)},
				{"root", optionalID(job.RootID)},
				{"created", formatTime(job.DateCreated)},
				{"started", formatTime(job.DateStarted)},
				{"completed", formatTime(job.DateCompleted)},
				{"queue time", formatMillis(job.QueueTime)},
				{"run time", formatMillis(job.RunTime)},
			},
		}
	}
}

func incidentsTable(tree incidents.Tree) func() table {
	return func() table {
		t := table{headers: []string{"ID", "JOB", "SEVERITY", "CODE", "TIMESTAMP", "DEPTH"}}
		var walk func(incidents.Tree, int)
		walk = func(tree incidents.Tree, depth int) {
			for _, incident := range tree.Incidents {
				t.rows = append(t.rows, []string{
					strconv.FormatInt(incident.ID, 10),
					strconv.FormatInt(incident.JobID, 10),
					incident.Severity.String(),
					incident.Code,
					formatTime(incident.Timestamp),
					strconv.Itoa(depth),
				})
			}
			for _, descendant := range tree.Descendants {
				walk(descendant, depth+1)
			}
		}
		walk(tree, 0)
		return t
	}
}

func localizedTable(incident apiincidents.Localized) func() table {
	return func() table {
		t := table{
			headers: []string{"FIELD", "VALUE"},
			rows: [][]string{
				{"id", strconv.FormatInt(incident.ID, 10)},
				{"job", strconv.FormatInt(incident.JobID, 10)},
				{"severity", incident.Severity.String()},
				{"code", incident.Code},
				{"timestamp", formatTime(incident.Timestamp)},
			},
		}
		if incident.Localization != nil {
			t.rows = append(t.rows,
				[]string{"title", incident.Localization.Title},
				[]string{"description", incident.Localization.Description},
			)
		}
		keys := make([]string, 0, len(incident.Parameters))
		for k := range incident.Parameters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.rows = append(t.rows, []string{"param " + k, incident.Parameters[k]})
		}
		for _, detail := range incident.Details {
			t.rows = append(t.rows, []string{detail.Title, detail.Content})
		}
		return t
	}
}

func configTable(values map[string]interface{}) func() table {
	return func() table {
		t := table{headers: []string{"KEY", "VALUE"}}
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.rows = append(t.rows, []string{k, fmt.Sprintf("%v", values[k])})
		}
		return t
	}
}

func loadsTable(loads load.SystemLoad) func() table {
	return func() table {
		t := table{headers: []string{"HOST", "CURRENT", "MAX", "FACTOR"}}
		hosts := make([]string, 0, len(loads))
		for host := range loads {
			hosts = append(hosts, host)
		}
		sort.Strings(hosts)
		for _, host := range hosts {
			l := loads[host]
			t.rows = append(t.rows, []string{
				host,
				strconv.FormatInt(l.CurrentLoad, 10),
				strconv.FormatInt(l.MaxLoad, 10),
				strconv.FormatFloat(l.LoadFactor(), 'f', 2, 64),
			})
		}
		return t
	}
}

func statisticsTable(stats []registry.Statistics) func() table {
	return func() table {
		t := table{headers: []string{"TYPE", "HOST", "STATE", "RUNNING", "QUEUED", "MEAN QUEUE", "MEAN RUN"}}
		for _, s := range stats {
			t.rows = append(t.rows, []string{
				s.Service.ServiceType,
				s.Service.Host,
				s.Service.State.String(),
				strconv.FormatInt(s.Running, 10),
				strconv.FormatInt(s.Queued, 10),
				formatMillis(s.MeanQueueTime),
				formatMillis(s.MeanRunTime),
			})
		}
		return t
	}
}

func optionalID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return ""
	}
	return (time.Duration(ms) * time.Millisecond).String()
}
