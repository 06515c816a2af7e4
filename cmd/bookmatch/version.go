package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/bookmatch/internal/app"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of bookmatch",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bookmatch %s (%s, %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		},
	}
}
