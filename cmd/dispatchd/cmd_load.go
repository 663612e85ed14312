package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newLoadCmd(flags *globalFlags) *cobra.Command {
	var max bool
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Show the current job load of every active host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				loads, err := c.Hosts().Loads(max)
				if err != nil {
					return errors.WithStack(err)
				}
				return output(cmd.OutOrStdout(), flags.format, loads, loadsTable(loads))
			})
		},
	}
	cmd.Flags().BoolVar(&max, "max", false, "only show the capacity of the hosts")
	return cmd
}

func newStatsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show running and queued jobs with mean times per service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				stats, err := c.Services().Statistics()
				if err != nil {
					return errors.WithStack(err)
				}
				return output(cmd.OutOrStdout(), flags.format, stats, statisticsTable(stats))
			})
		},
	}
}
