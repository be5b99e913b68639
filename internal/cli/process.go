package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/setanarut/bgunmix"
)

func newProcessCmd() *cobra.Command {
	var (
		engine engineFlags
		output string
		trim   bool
	)

	cmd := &cobra.Command{
		Use:   "process <image>",
		Short: "Remove the background from an image",
		Long: `Remove the background from an image and write a transparent PNG.

Every pixel is unmixed into the foreground colors and the background color.
Pixels matching the background become fully transparent, blended pixels keep
the opacity of their foreground contribution.

Without --strict, pixels that are not close to any foreground color (glows,
gradients, unlisted colors) keep their own color at the lowest opacity that
reproduces them over the background.

Use "-" as the image to read from stdin. Output defaults to <image>.unmixed.png,
or stdout when reading from stdin.

Examples:
  # Detect the background and keep every color
  bgunmix process logo.png

  # Red and blue artwork on white, deduce a third color
  bgunmix process -b '#fff' -f '#ff0000' -f '#0000ff' -f auto logo.png

  # Only allow the listed colors and crop to the content
  bgunmix process --strict --trim -f auto -f auto -o out.png logo.jpg

  # Pipe through
  cat logo.png | bgunmix process -b '#000' - > out.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd)
			input := args[0]

			opts, err := engine.options(logger)
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			opts.Trim = trim

			img, err := loadImage(cmd, input)
			if err != nil {
				return fmt.Errorf("failed to load image: %w", err)
			}
			bounds := img.Bounds()
			logger.Debug("image loaded", "path", input, "width", bounds.Dx(), "height", bounds.Dy())

			start := time.Now()
			out, err := bgunmix.Process(img, opts)
			if err != nil {
				return err
			}
			logger.Debug("processed image", "elapsed", time.Since(start))

			if output == "" {
				output = defaultOutputPath(input)
			}
			if err := writeImage(cmd, out, output); err != nil {
				return err
			}
			if output != stdio {
				logger.Info("wrote image", "path", output)
			}
			return nil
		},
	}

	engine.register(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "-" for stdout (default: <image>.unmixed.png)`)
	cmd.Flags().BoolVar(&trim, "trim", false, "crop the output to the non-transparent content")
	return cmd
}
