package main

import (
	libjson "encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spoke-d/dispatchd/client"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/internal/exec"
	"github.com/spoke-d/dispatchd/pkg/api/daemon/jobs"
)

func newJobCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Create, inspect and change jobs",
	}
	cmd.AddCommand(
		newJobListCmd(flags),
		newJobCountCmd(flags),
		newJobShowCmd(flags),
		newJobCreateCmd(flags),
		newJobUpdateCmd(flags),
		newJobChildrenCmd(flags),
		newJobRemoveCmd(flags),
		newJobParentlessCmd(flags),
		newJobWatchCmd(flags),
	)
	return cmd
}

type jobFilterFlags struct {
	serviceType string
	operation   string
	host        string
	statuses    []string
}

func (f *jobFilterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.serviceType, "type", "", "only match jobs of this service type")
	cmd.Flags().StringVar(&f.operation, "operation", "", "only match jobs with this operation")
	cmd.Flags().StringVar(&f.host, "host", "", "only match jobs processed on this host")
	cmd.Flags().StringSliceVar(&f.statuses, "status", nil, "only match jobs in these statuses")
}

func (f *jobFilterFlags) filter() (db.JobFilter, error) {
	filter := db.JobFilter{
		Type:      f.serviceType,
		Operation: f.operation,
		Host:      f.host,
	}
	for _, name := range f.statuses {
		status, err := db.ParseJobStatus(strings.ToUpper(name))
		if err != nil {
			return filter, errors.WithStack(err)
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	return filter, nil
}

func newJobListCmd(flags *globalFlags) *cobra.Command {
	var filterFlags jobFilterFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filterFlags.filter()
			if err != nil {
				return errors.WithStack(err)
			}
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				list, err := c.Jobs().List(filter)
				if err != nil {
					return errors.WithStack(err)
				}
				return output(cmd.OutOrStdout(), flags.format, list, jobsTable(list))
			})
		},
	}
	filterFlags.register(cmd)
	return cmd
}

func newJobCountCmd(flags *globalFlags) *cobra.Command {
	var filterFlags jobFilterFlags
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filterFlags.filter()
			if err != nil {
				return errors.WithStack(err)
			}
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				count, err := c.Jobs().Count(filter)
				if err != nil {
					return errors.WithStack(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), count)
				return nil
			})
		},
	}
	filterFlags.register(cmd)
	return cmd
}

func newJobShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a job",
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
				job, _, err := c.Jobs().Get(id)
				if err != nil {
					return errors.WithStack(err)
				}
				return output(cmd.OutOrStdout(), flags.format, job, jobTable(job))
			})
		},
	}
}

func newJobCreateCmd(flags *globalFlags) *cobra.Command {
	var create jobs.Create
	cmd := &cobra.Command{
		Use:   "create <type> <operation> [arguments...]",
		Short: "Create a job for a service type",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			create.Type, create.Operation, create.Arguments = args[0], args[1], args[2:]
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				job, err := c.Jobs().Create(create)
				if err != nil {
					return errors.WithStack(err)
				}
				return output(cmd.OutOrStdout(), flags.format, job, jobTable(job))
			})
		},
	}
	cmd.Flags().StringVar(&create.Host, "host", "", "base url of the host creating the job")
	cmd.Flags().StringVar(&create.Payload, "payload", "", "opaque payload handed to the worker")
	cmd.Flags().BoolVar(&create.Dispatchable, "dispatchable", true, "queue the job for the dispatcher")
	cmd.Flags().Int64Var(&create.ParentID, "parent", 0, "id of the parent job")
	cmd.Flags().StringVar(&create.Creator, "creator", "", "user creating the job")
	cmd.Flags().StringVar(&create.Organization, "organization", "", "organization owning the job")
	return cmd
}

func newJobUpdateCmd(flags *globalFlags) *cobra.Command {
	var (
		status  string
		payload string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the status or payload of a job",
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
				job, etag, err := c.Jobs().Get(id)
				if err != nil {
					return errors.WithStack(err)
				}
				if status != "" {
					if job.Status, err = db.ParseJobStatus(strings.ToUpper(status)); err != nil {
						return errors.WithStack(err)
					}
				}
				if cmd.Flags().Changed("payload") {
					job.Payload = payload
				}
				updated, err := c.Jobs().Update(job, etag)
				if err != nil {
					return errors.WithStack(err)
				}
				return output(cmd.OutOrStdout(), flags.format, updated, jobTable(updated))
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "new status of the job")
	cmd.Flags().StringVar(&payload, "payload", "", "new payload of the job")
	return cmd
}

func newJobChildrenCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "children <id>",
		Short: "List the direct children of a job",
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
				list, err := c.Jobs().Children(id)
				if err != nil {
					return errors.WithStack(err)
				}
				return output(cmd.OutOrStdout(), flags.format, list, jobsTable(list))
			})
		},
	}
}

func newJobRemoveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove jobs together with their descendants",
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
				removed, err := c.Jobs().Remove(ids)
				if err != nil {
					return errors.WithStack(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d jobs\n", removed)
				return nil
			})
		},
	}
}

func newJobParentlessCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "parentless <days>",
		Short: "Remove finished parentless jobs older than the given number of days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := parseID(args[0])
			if err != nil {
				return errors.WithStack(err)
			}
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				removed, err := c.Jobs().RemoveParentless(days)
				if err != nil {
					return errors.WithStack(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d jobs\n", removed)
				return nil
			})
		},
	}
}

func newJobWatchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print job lifecycle events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			listener, err := c.Events().Listen("job")
			if err != nil {
				return errors.WithStack(err)
			}

			var mutex sync.Mutex
			encoder := libjson.NewEncoder(cmd.OutOrStdout())
			listener.AddHandler([]string{"job"}, func(event interface{}) {
				mutex.Lock()
				defer mutex.Unlock()
				encoder.Encode(event)
			})

			g := exec.NewGroup()
			g.Add(listener.Wait, func(error) {
				listener.Disconnect()
			})
			exec.Interrupt(g)
			return errors.WithStack(g.Run())
		},
	}
}
