package main

import (
	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spoke-d/dispatchd/client"
)

var formats = []string{"tabular", "yaml", "json"}

type globalFlags struct {
	address  string
	format   string
	logLevel string
}

func (f *globalFlags) validate() error {
	if !contains(formats, f.format) {
		return errors.Errorf("invalid format %q (expected: tabular|yaml|json)", f.format)
	}
	return nil
}

func (f *globalFlags) logger(cmd *cobra.Command) (log.Logger, error) {
	return newLogger(cmd.ErrOrStderr(), f.logLevel)
}

func (f *globalFlags) client(cmd *cobra.Command) (*client.Client, error) {
	logger, err := f.logger(cmd)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return client.New(
		f.address,
		client.WithUserAgent("dispatchd/"+Version),
		client.WithLogger(log.WithPrefix(logger, "component", "client")),
	)
}

// newRootCmd creates the dispatchd command with all subcommands attached.
func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "dispatchd",
		Short: "Service registry and job dispatcher",
		Long: `dispatchd keeps track of the hosts and services of a worker fleet, and
dispatches queued jobs to the least loaded service able to run them.

Run "dispatchd daemon" to start a registry process, every other command
talks to a running one through its REST API.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return flags.validate()
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.PersistentFlags().StringVar(&flags.address, "address", "127.0.0.1:8080", "address of the registry api")
	cmd.PersistentFlags().StringVar(&flags.format, "format", "tabular", "output format tabular|yaml|json")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "log level debug|info|warn|error")

	cmd.AddCommand(
		newDaemonCmd(flags),
		newHostCmd(flags),
		newServiceCmd(flags),
		newJobCmd(flags),
		newIncidentCmd(flags),
		newConfigCmd(flags),
		newLoadCmd(flags),
		newStatsCmd(flags),
		newVersionCmd(flags),
	)
	return cmd
}
