package main

import (
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spoke-d/dispatchd/internal/exec"
	apidaemon "github.com/spoke-d/dispatchd/pkg/api/daemon"
	"github.com/spoke-d/dispatchd/pkg/daemon"
)

func newDaemonCmd(flags *globalFlags) *cobra.Command {
	var (
		configPath string
		address    string
	)
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run a registry process",
		Long: `Runs a registry process: it serves the REST API, dispatches queued jobs and
probes the registered services.

Any number of registry processes may share one database, they coordinate
through it alone. Settings local to the process are read from the YAML
file given with --config, which is watched for changes.`,
		Example: `  dispatchd daemon --config /etc/dispatchd/dispatchd.yaml
  dispatchd daemon --listen 0.0.0.0:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := daemon.DefaultConfig()
			if configPath != "" {
				var err error
				if config, err = daemon.ReadConfigFile(configPath); err != nil {
					return errors.WithStack(err)
				}
			}
			if address != "" {
				config.Address = address
			}

			logger, err := newLogger(cmd.ErrOrStderr(), config.LogLevel)
			if err != nil {
				return errors.WithStack(err)
			}

			d := daemon.New(
				Version,
				config,
				apidaemon.Extensions,
				apidaemon.Services(log.WithPrefix(logger, "component", "api")),
				daemon.WithConfigPath(configPath),
				daemon.WithLogger(log.WithPrefix(logger, "component", "daemon")),
			)

			var cancel <-chan struct{}
			g := exec.NewGroup()
			exec.Block(g)
			{
				g.Add(func() error {
					level.Info(logger).Log("msg", "Starting daemon", "address", config.Address)
					if err := d.Init(); err != nil {
						return errors.WithStack(err)
					}
					select {
					case <-cancel:
						level.Info(logger).Log("msg", "Received signal exiting")
					case <-d.ShutdownChan():
						level.Info(logger).Log("msg", "Shutting down daemon")
					}
					return d.Stop()
				}, func(err error) {
					d.UnsafeShutdown()
				})
			}
			cancel = exec.Interrupt(g)
			return errors.WithStack(g.Run())
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path of the daemon configuration file")
	cmd.Flags().StringVar(&address, "listen", "", "address the api listens on, overrides the configuration file")
	return cmd
}
