package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// set during build with ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Display version information",
	Aliases: []string{"v"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "assetctl %s (%s)\n", Version, GitCommit)
	},
}
