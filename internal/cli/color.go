package cli

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cobra"

	"github.com/setanarut/bgunmix"
)

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <hex>...",
		Short: "Parse hex colors and print them in canonical form",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range args {
				c, err := bgunmix.ParseHex(s)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d %d %d\n", c.Hex(), c.R, c.G, c.B)
			}
			return nil
		},
	}
}

func newUnmixCmd() *cobra.Command {
	var (
		foreground []string
		background string
		simple     bool
	)

	cmd := &cobra.Command{
		Use:   "unmix <hex>",
		Short: "Unmix a single color into foreground weights and alpha",
		Long: `Decompose one observed color into weights of the given foreground colors
over the background color.

Examples:
  # How much red is in this pink on white?
  bgunmix unmix -f '#f00' '#ff8080'

  # Two colors on black, plain least squares
  bgunmix unmix -b '#000' -f '#f00' -f '#00f' --simple '#800080'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			observed, err := bgunmix.ParseHex(args[0])
			if err != nil {
				return err
			}
			bg, err := bgunmix.ParseHex(background)
			if err != nil {
				return fmt.Errorf("background color: %w", err)
			}
			specs, err := bgunmix.ParseForegroundSpecs(foreground)
			if err != nil {
				return err
			}
			fg := make([]bgunmix.Color, len(specs))
			for i, spec := range specs {
				known, ok := spec.(bgunmix.Known)
				if !ok {
					return fmt.Errorf("foreground color %d: %q needs an image to deduce from", i, bgunmix.AutoToken)
				}
				fg[i] = known.Color
			}

			fgN := make([]colorful.Color, len(fg))
			for i, c := range fg {
				fgN[i] = bgunmix.Normalize(c)
			}
			var res bgunmix.UnmixResult
			if simple {
				res = bgunmix.UnmixSimple(observed, fgN, bgunmix.Normalize(bg))
			} else {
				res = bgunmix.Unmix(observed, fgN, bgunmix.Normalize(bg))
			}
			result, alpha := bgunmix.ResultColor(res, fgN)
			newLogger(cmd).Debug("unmixed color", "observed", observed.Hex(), "weights", formatWeights(res.Weights), "simple", simple)

			out := cmd.OutOrStdout()
			for i, w := range res.Weights {
				fmt.Fprintf(out, "%s\t%.4f\n", fg[i].Hex(), w)
			}
			fmt.Fprintf(out, "alpha\t%.4f\n", alpha)
			fmt.Fprintf(out, "color\t%s\n", bgunmix.Denormalize(result).Hex())
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&foreground, "foreground", "f", nil, "foreground colors as hex (repeatable)")
	cmd.Flags().StringVarP(&background, "background", "b", "#ffffff", "background color as hex")
	cmd.Flags().BoolVar(&simple, "simple", false, "use a single least-squares solve instead of preferring opacity")
	return cmd
}

// formatWeights renders weights as a comma separated list for log fields.
func formatWeights(weights []float64) string {
	parts := make([]string, len(weights))
	for i, w := range weights {
		parts[i] = fmt.Sprintf("%.4f", w)
	}
	return strings.Join(parts, ",")
}
