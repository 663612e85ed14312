package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spoke-d/dispatchd/internal/db"
	"github.com/spoke-d/dispatchd/pkg/api/daemon/services"
)

func newServiceCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the services offered by the hosts",
		Long: `A service is identified by its type and the base URL of its host. Services
that keep failing are moved to the WARNING and then ERROR state, sanitize
returns them to NORMAL.`,
	}
	cmd.AddCommand(
		newServiceListCmd(flags),
		newServiceRegisterCmd(flags),
		newServiceUnregisterCmd(flags),
		newServiceSanitizeCmd(flags),
		newServiceWarningsCmd(flags),
	)
	return cmd
}

func newServiceListCmd(flags *globalFlags) *cobra.Command {
	var serviceType, host string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the registered services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				list, err := c.Services().List(serviceType, host)
				if err != nil {
					return errors.WithStack(err)
				}
				return output(cmd.OutOrStdout(), flags.format, list, servicesTable(list))
			})
		},
	}
	cmd.Flags().StringVar(&serviceType, "type", "", "only list services of this type")
	cmd.Flags().StringVar(&host, "host", "", "only list services on this host")
	return cmd
}

func newServiceRegisterCmd(flags *globalFlags) *cobra.Command {
	var registration services.Registration
	cmd := &cobra.Command{
		Use:   "register <type> <base-url>",
		Short: "Register a service on a host",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			registration.ServiceType, registration.Host = args[0], args[1]
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				service, err := c.Services().Register(registration)
				if err != nil {
					return errors.WithStack(err)
				}
				return output(cmd.OutOrStdout(), flags.format, service, servicesTable([]db.Service{service}))
			})
		},
	}
	cmd.Flags().StringVar(&registration.Path, "path", "", "path of the service below the host base url")
	cmd.Flags().BoolVar(&registration.JobProducer, "job-producer", false, "the service creates jobs")
	return cmd
}

func newServiceUnregisterCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "unregister <type> <base-url>",
		Short: "Take a service offline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				if err := c.Services().Unregister(args[0], args[1]); err != nil {
					return errors.WithStack(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Service %s on %s unregistered\n", args[0], args[1])
				return nil
			})
		},
	}
}

func newServiceSanitizeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sanitize <type> <base-url>",
		Short: "Return a service to the NORMAL state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				if err := c.Services().Sanitize(args[0], args[1]); err != nil {
					return errors.WithStack(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Service %s on %s sanitized\n", args[0], args[1])
				return nil
			})
		},
	}
}

func newServiceWarningsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "warnings",
		Short: "List the services in the WARNING or ERROR state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				list, err := c.Services().Warnings()
				if err != nil {
					return errors.WithStack(err)
				}
				return output(cmd.OutOrStdout(), flags.format, list, servicesTable(list))
			})
		},
	}
}
