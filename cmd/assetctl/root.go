package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "assetctl",
	Short: "Inspect image negotiation and derive variants",
	Long: `assetctl works with the same rules as the asset router.

It shows which object a request would be routed to and renders the
published JPEG widths of an original image into a local origin tree.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(deriveCmd)
	rootCmd.AddCommand(versionCmd)
}
