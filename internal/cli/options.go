package cli

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/setanarut/bgunmix"
	"github.com/setanarut/bgunmix/utils"
)

// stdio selects stdin or stdout in place of a file path.
const stdio = "-"

// engineFlags are the flags shared by every command that runs the engine on an image.
type engineFlags struct {
	foreground       []string
	background       string
	backgroundMethod string
	strict           bool
	threshold        float64
	workers          int
}

func (f *engineFlags) register(fs *pflag.FlagSet) {
	fs.StringSliceVarP(&f.foreground, "foreground", "f", nil, `foreground colors as hex, or "auto" to deduce one (repeatable)`)
	fs.StringVarP(&f.background, "background", "b", "", "background color as hex (default: detect from image edges)")
	fs.StringVar(&f.backgroundMethod, "background-method", utils.BackgroundEdgeVote.String(), "background detection method (edge, dominant, kmeans)")
	fs.BoolVar(&f.strict, "strict", false, "restrict every pixel to the foreground colors")
	fs.Float64Var(&f.threshold, "threshold", bgunmix.DefaultThreshold, "closeness threshold in [0, 1]")
	fs.IntVar(&f.workers, "workers", 0, "parallel workers (default: number of CPUs)")
}

func (f *engineFlags) options(logger hclog.Logger) (bgunmix.Options, error) {
	opts := bgunmix.DefaultOptions()
	opts.Logger = logger
	opts.Strict = f.strict
	opts.Threshold = f.threshold
	opts.Workers = f.workers

	specs, err := bgunmix.ParseForegroundSpecs(f.foreground)
	if err != nil {
		return opts, err
	}
	opts.Foreground = specs

	if f.background != "" {
		bg, err := bgunmix.ParseHex(f.background)
		if err != nil {
			return opts, fmt.Errorf("background color: %w", err)
		}
		opts.Background = &bg
	}

	method, ok := utils.ParseBackgroundMethod(f.backgroundMethod)
	if !ok {
		return opts, fmt.Errorf("unknown background method %q (want edge, dominant or kmeans)", f.backgroundMethod)
	}
	opts.BackgroundMethod = method

	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// loadImage reads path, or stdin when path is "-".
func loadImage(cmd *cobra.Command, path string) (image.Image, error) {
	if path == stdio {
		return utils.DecodeImage(cmd.InOrStdin())
	}
	return utils.ReadImage(path)
}

// defaultOutputPath places the result next to the input as <name>.unmixed.png.
func defaultOutputPath(input string) string {
	if input == stdio {
		return stdio
	}
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".unmixed.png"
}

// writeImage writes img to path, or PNG to stdout when path is "-".
func writeImage(cmd *cobra.Command, img image.Image, path string) error {
	if path == stdio {
		return utils.EncodePNG(cmd.OutOrStdout(), img)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return utils.SaveImage(img, path)
}
