// Package cli provides the command-line interface for bgunmix.
package cli

import (
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the bgunmix command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bgunmix",
		Short: "Remove a uniform background color from an image",
		Long: `bgunmix removes a solid background from an image by unmixing every pixel
into a set of foreground colors, the background color and an opacity.

Anti-aliased edges, soft shadows and glows keep their translucency instead of
leaving a halo of background color behind.`,
		SilenceUsage: true,
	}

	// Global flags
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolP("quiet", "q", false, "suppress non-error output")

	root.AddCommand(newProcessCmd())
	root.AddCommand(newDeduceCmd())
	root.AddCommand(newDetectCmd())
	root.AddCommand(newParseCmd())
	root.AddCommand(newUnmixCmd())
	return root
}

// newLogger returns a logger writing to the command's stderr at the level selected
// by --verbose and --quiet.
func newLogger(cmd *cobra.Command) hclog.Logger {
	level := hclog.Info
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = hclog.Debug
	}
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		level = hclog.Error
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "bgunmix",
		Output: cmd.ErrOrStderr(),
		Level:  level,
	})
}
