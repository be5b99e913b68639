package cli

import (
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cobra"

	"github.com/setanarut/bgunmix"
	"github.com/setanarut/bgunmix/utils"
)

func newDeduceCmd() *cobra.Command {
	var (
		engine   engineFlags
		swatch   string
		tileSize int
	)

	cmd := &cobra.Command{
		Use:   "deduce <image>",
		Short: "Print the foreground colors that would be used for an image",
		Long: `Resolve the foreground colors for an image without processing it.

Every "auto" slot is deduced from the image histogram, given colors are printed
as they are. One hex color is printed per slot, in slot order.

Examples:
  # Deduce two colors on a detected background
  bgunmix deduce -f auto -f auto logo.png

  # Keep red, deduce one more, save a swatch
  bgunmix deduce -f '#f00' -f auto --swatch colors.png logo.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd)

			opts, err := engine.options(logger)
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if len(opts.Foreground) == 0 {
				opts.Foreground = []bgunmix.ForegroundSpec{bgunmix.Unknown{}}
			}

			img, err := loadImage(cmd, args[0])
			if err != nil {
				return fmt.Errorf("failed to load image: %w", err)
			}

			colors, err := bgunmix.DeduceColors(img, opts)
			if err != nil {
				return err
			}
			for _, c := range colors {
				fmt.Fprintln(cmd.OutOrStdout(), c.Hex())
			}

			if swatch != "" {
				palette := make([]colorful.Color, len(colors))
				for i, c := range colors {
					palette[i] = bgunmix.Normalize(c)
				}
				if err := utils.SavePalette(palette, tileSize, swatch); err != nil {
					return err
				}
				logger.Info("wrote swatch", "path", swatch)
			}
			return nil
		},
	}

	engine.register(cmd.Flags())
	cmd.Flags().StringVar(&swatch, "swatch", "", "also save the colors as a swatch image")
	cmd.Flags().IntVar(&tileSize, "tile-size", 64, "swatch tile size in pixels")
	return cmd
}

func newDetectCmd() *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:   "detect <image>",
		Short: "Print the detected background color of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd)

			m, ok := utils.ParseBackgroundMethod(method)
			if !ok {
				return fmt.Errorf("unknown background method %q (want edge, dominant or kmeans)", method)
			}
			img, err := loadImage(cmd, args[0])
			if err != nil {
				return fmt.Errorf("failed to load image: %w", err)
			}

			opts := bgunmix.DefaultOptions()
			opts.BackgroundMethod = m
			opts.Logger = logger
			bg := bgunmix.ResolveBackground(imaging.Clone(img), opts)
			fmt.Fprintln(cmd.OutOrStdout(), bg.Hex())
			return nil
		},
	}

	cmd.Flags().StringVar(&method, "method", utils.BackgroundEdgeVote.String(), "detection method (edge, dominant, kmeans)")
	return cmd
}
