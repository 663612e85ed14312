package main

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type versionInfo struct {
	Client  string `json:"client" yaml:"client"`
	Server  string `json:"server" yaml:"server"`
	Runtime string `json:"runtime" yaml:"runtime"`
}

func newVersionCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the client and server versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := versionInfo{
				Client:  Version,
				Server:  "unreachable",
				Runtime: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
			}
			if c, err := flags.client(cmd); err == nil {
				if server, err := c.Info().Get(); err == nil {
					info.Server = server.Environment.ServerVersion
				}
			}
			return errors.WithStack(output(cmd.OutOrStdout(), flags.format, info, func() table {
				return table{
					headers: []string{"CLIENT", "SERVER", "RUNTIME"},
					rows:    [][]string{{info.Client, info.Server, info.Runtime}},
				}
			}))
		},
	}
}
