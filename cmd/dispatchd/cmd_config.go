package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and change the cluster configuration",
		Long: `The cluster configuration is shared by every dispatchd process using the
same database. Only values that differ from the defaults are shown.`,
	}
	cmd.AddCommand(
		newConfigShowCmd(flags),
		newConfigSetCmd(flags),
	)
	return cmd
}

func newConfigShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the cluster configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				values, _, err := c.Config().Get()
				if err != nil {
					return errors.WithStack(err)
				}
				return output(cmd.OutOrStdout(), flags.format, values, configTable(values))
			})
		},
	}
}

func newConfigSetCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key=value>...",
		Short: "Change cluster configuration values, an empty value restores the default",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseKeyValues(args)
			if err != nil {
				return errors.WithStack(err)
			}
			c, err := flags.client(cmd)
			if err != nil {
				return errors.WithStack(err)
			}
			return run(func() error {
				_, etag, err := c.Config().Get()
				if err != nil {
					return errors.WithStack(err)
				}
				if err := c.Config().Set(values, etag); err != nil {
					return errors.WithStack(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %d config keys\n", len(values))
				return nil
			})
		},
	}
}

func parseKeyValues(args []string) (map[string]interface{}, error) {
	values := make(map[string]interface{}, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, errors.Errorf("expected key=value, got %q", arg)
		}
		values[parts[0]] = parts[1]
	}
	return values, nil
}
