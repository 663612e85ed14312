package main

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/pkg/api/daemon/hosts"
)

func newHostCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Manage the hosts worker services run on",
		Long: `Hosts are identified by their base URL. A host that is offline, disabled or
in maintenance receives no jobs.`,
	}
	cmd.AddCommand(
		newHostListCmd(flags),
		newHostShowCmd(flags),
		newHostRegisterCmd(flags),
		newHostUnregisterCmd(flags),
		newHostMaintenanceCmd(flags),
		newHostStateCmd(flags, "enable", "Let the dispatcher use a host again"),
		newHostStateCmd(flags, "disable", "Stop dispatching jobs to a host"),
	)
	return cmd
}

func newHostListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the registered hosts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				list, err := c.Hosts().List()
				if err != nil {
					return errors.WithStack(err)
				}
				return output(cmd.OutOrStdout(), flags.format, list, hostsTable(list))
			})
		},
	}
}

func newHostShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <base-url>",
		Short: "Show a host together with its services",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				details, err := c.Hosts().Get(args[0])
				if err != nil {
					return errors.WithStack(err)
				}
				if flags.format != "tabular" {
					return output(cmd.OutOrStdout(), flags.format, details, nil)
				}
				out := cmd.OutOrStdout()
				renderTable(hostsTable([]db.Host{details.Host})(), out)
				renderTable(servicesTable(details.Services)(), out)
				return nil
			})
		},
	}
}

func newHostRegisterCmd(flags *globalFlags) *cobra.Command {
	var registration hosts.Registration
	cmd := &cobra.Command{
		Use:   "register <base-url>",
		Short: "Register a host or bring it back online",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registration.BaseURL = args[0]
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				host, err := c.Hosts().Register(registration)
				if err != nil {
					return errors.WithStack(err)
				}
				return output(cmd.OutOrStdout(), flags.format, host, hostsTable([]db.Host{host}))
			})
		},
	}
	cmd.Flags().StringVar(&registration.Address, "ip", "", "ip address of the host")
	cmd.Flags().StringVar(&registration.NodeName, "node", "", "node name of the host")
	cmd.Flags().Int64Var(&registration.MaxJobs, "max-jobs", 0, "maximum number of concurrent jobs, 0 uses the cluster default")
	return cmd
}

func newHostUnregisterCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "unregister <base-url>",
		Short: "Take a host and its services offline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				if err := c.Hosts().Unregister(args[0]); err != nil {
					return errors.WithStack(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Host %s unregistered\n", args[0])
				return nil
			})
		},
	}
}

func newHostMaintenanceCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "maintenance <base-url> <true|false>",
		Short: "Move a host in or out of maintenance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			maintenance, err := strconv.ParseBool(args[1])
			if err != nil {
				return errors.Wrapf(err, "invalid maintenance flag %q", args[1])
			}
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				if err := c.Hosts().SetMaintenance(args[0], maintenance); err != nil {
					return errors.WithStack(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Host %s maintenance set to %t\n", args[0], maintenance)
				return nil
			})
		},
	}
}

func newHostStateCmd(flags *globalFlags, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <base-url>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				change := c.Hosts().Enable
				if action == "disable" {
					change = c.Hosts().Disable
				}
				if err := change(args[0]); err != nil {
					return errors.WithStack(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Host %s %sd\n", args[0], action)
				return nil
			})
		},
	}
}
