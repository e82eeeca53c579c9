package main

import (
	"fmt"

	"github.com/ds124wfegd/assetrouter/internal/pkg/processor"
	"github.com/ds124wfegd/assetrouter/internal/pkg/storage"
	"github.com/spf13/cobra"
)

var (
	deriveRoot      string
	deriveQuality   int
	deriveOverwrite bool
)

var deriveCmd = &cobra.Command{
	Use:   "derive <original path>...",
	Short: "Render published JPEG widths for originals",
	Long: `Render <base>-<width>w.jpg next to each original under --root.

Widths wider than the source are skipped. avif and webp variants
must be produced by an external encoder.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDerive,
}

func init() {
	deriveCmd.Flags().StringVar(&deriveRoot, "root", "./storage", "origin tree the paths are relative to")
	deriveCmd.Flags().IntVar(&deriveQuality, "quality", 85, "JPEG quality (1-100)")
	deriveCmd.Flags().BoolVar(&deriveOverwrite, "overwrite", false, "replace existing variants")
}

func runDerive(cmd *cobra.Command, args []string) error {
	deriver := processor.NewImageProcessor(storage.NewFileStorage(deriveRoot), processor.Options{
		JPEGQuality: deriveQuality,
		Overwrite:   deriveOverwrite,
	})

	out := cmd.OutOrStdout()
	failed := 0
	for _, original := range args {
		result, err := deriver.Derive(cmd.Context(), original)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", original, err)
			failed++
			continue
		}
		for _, written := range result.Written {
			fmt.Fprintf(out, "wrote %s\n", written)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d originals failed", failed, len(args))
	}
	return nil
}
