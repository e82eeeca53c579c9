package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ds124wfegd/assetrouter/internal/pkg/negotiate"
	"github.com/spf13/cobra"
)

var (
	resolveAccept        string
	resolveViewportWidth string
	resolveDPR           string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <image path>",
	Short: "Print the object a request would be routed to",
	Example: `  assetctl resolve hero/banner.jpg --accept image/avif,image/webp
  assetctl resolve /images/hero/banner.png --viewport-width 414`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveAccept, "accept", "", "Accept header value")
	resolveCmd.Flags().StringVar(&resolveViewportWidth, "viewport-width", "", "Viewport-Width header value")
	resolveCmd.Flags().StringVar(&resolveDPR, "dpr", "", "DPR header value (parsed, not used for sizing)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	imagePath := strings.TrimPrefix(strings.TrimPrefix(args[0], "/images/"), "/")
	if imagePath == "" {
		return fmt.Errorf("empty image path")
	}

	h := http.Header{}
	if resolveAccept != "" {
		h.Set(negotiate.HeaderAccept, resolveAccept)
	}
	if resolveViewportWidth != "" {
		h.Set(negotiate.HeaderViewportWidth, resolveViewportWidth)
	}
	if resolveDPR != "" {
		h.Set(negotiate.HeaderDPR, resolveDPR)
	}

	target := negotiate.ComputeTarget(imagePath, h)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "path:         %s\n", target.Path)
	fmt.Fprintf(out, "format:       %s\n", target.Format)
	fmt.Fprintf(out, "content-type: %s\n", target.Format.ContentType())
	fmt.Fprintf(out, "width:        %d\n", target.Width)
	fmt.Fprintf(out, "fallback:     %s\n", imagePath)
	return nil
}
