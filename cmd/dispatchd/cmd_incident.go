package main

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spoke-d/dispatchd/client"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/incidents"
	apiincidents "github.com/spoke-d/dispatchd/pkg/api/daemon/incidents"
)

func newIncidentCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "incident",
		Short: "Report and read the incidents of jobs",
	}
	cmd.AddCommand(
		newIncidentListCmd(flags),
		newIncidentShowCmd(flags),
		newIncidentReportCmd(flags),
	)
	return cmd
}

func newIncidentListCmd(flags *globalFlags) *cobra.Command {
	var cascade bool
	cmd := &cobra.Command{
		Use:   "list <job-id>...",
		Short: "List the incidents of jobs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := client.ParseJobIDs(args)
			if err != nil {
				return errors.WithStack(err)
			}
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				tree, err := c.Incidents().OfJobs(ids, cascade)
				if err != nil {
					return errors.WithStack(err)
				}
				return output(cmd.OutOrStdout(), flags.format, tree, incidentsTable(tree))
			})
		},
	}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "include the incidents of descendant jobs")
	return cmd
}

func newIncidentShowCmd(flags *globalFlags) *cobra.Command {
	var locale string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an incident, localized when a locale is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return errors.WithStack(err)
			}
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				incident, err := c.Incidents().Get(id, locale)
				if err != nil {
					return errors.WithStack(err)
				}
				return output(cmd.OutOrStdout(), flags.format, incident, localizedTable(incident))
			})
		},
	}
	cmd.Flags().StringVar(&locale, "locale", "", "locale of the texts, for example de-DE")
	return cmd
}

func newIncidentReportCmd(flags *globalFlags) *cobra.Command {
	var (
		severity   string
		parameters map[string]string
	)
	cmd := &cobra.Command{
		Use:   "report <job-id> <code>",
		Short: "Report an incident for a job",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return errors.WithStack(err)
			}
			report := apiincidents.Report{
				JobID:      id,
				Timestamp:  time.Now().UTC(),
				Code:       args[1],
				Parameters: parameters,
			}
			if err := report.Severity.UnmarshalText([]byte(strings.ToUpper(severity))); err != nil {
				return errors.WithStack(err)
			}
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				incident, err := c.Incidents().Report(report)
				if err != nil {
					return errors.WithStack(err)
				}
				return output(cmd.OutOrStdout(), flags.format, incident, incidentsTable(incidents.Tree{
					Incidents: []db.Incident{incident},
				}))
			})
		},
	}
	cmd.Flags().StringVar(&severity, "severity", "error", "one of failure, error, warning or info")
	cmd.Flags().StringToStringVar(&parameters, "param", nil, "parameter used by the incident texts, as key=value")
	return cmd
}
