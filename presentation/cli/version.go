package cli

import (
	"ethertap/presentation/runners/version"

	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			version.NewRunner(cmd.OutOrStdout()).Run(cmd.Context())
		},
	}
}
