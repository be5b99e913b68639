package bgunmix

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/hashicorp/go-hclog"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/setanarut/bgunmix/utils"
)

// Pixels within this normalized distance per channel of the background become fully
// transparent.
const backgroundTolerance = 1e-6

var ErrInvalidOptions = errors.New("invalid options")

type Options struct {
	// Foreground colors in output order. Unknown slots are deduced from the image.
	// Empty in non-strict mode means any color may be foreground.
	Foreground []ForegroundSpec
	// Background color to remove. Nil estimates it with BackgroundMethod.
	Background       *Color
	BackgroundMethod utils.BackgroundMethod
	// Strict restricts every pixel to the foreground colors. Non-strict mode keeps
	// pixels that match no foreground color (glows, gradients) with any color at
	// minimum alpha.
	Strict bool
	// Threshold in [0,1] merges deduction candidates and decides whether a pixel is
	// close to a foreground color.
	Threshold float64
	// Trim crops the output to the bounding box of non-transparent pixels.
	Trim bool
	// Workers for the per-pixel transform. Zero uses runtime.NumCPU().
	Workers int
	Logger  hclog.Logger
}

func DefaultOptions() Options {
	return Options{
		BackgroundMethod: utils.BackgroundEdgeVote,
		Threshold:        DefaultThreshold,
	}
}

func (o Options) Validate() error {
	if math.IsNaN(o.Threshold) || o.Threshold < 0 || o.Threshold > 1 {
		return fmt.Errorf("%w: threshold must be within [0, 1], got %g", ErrInvalidOptions, o.Threshold)
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidOptions, o.Workers)
	}
	for i, spec := range o.Foreground {
		if spec == nil {
			return fmt.Errorf("%w: foreground color %d is nil", ErrInvalidOptions, i)
		}
	}
	return nil
}

func (o Options) logger() hclog.Logger {
	if o.Logger == nil {
		return hclog.NewNullLogger()
	}
	return o.Logger
}

// Process removes the background of img and returns the unmixed image.
func Process(img image.Image, opts Options) (*image.NRGBA, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := opts.logger()

	src := imaging.Clone(img)
	bg := ResolveBackground(src, opts)
	fg := resolveForeground(src, bg, opts)
	logger.Debug("resolved colors", "background", bg.Hex(), "foreground", hexList(fg), "strict", opts.Strict)

	out := transform(src, newPixelProcessor(fg, bg, opts), opts.Workers)

	if opts.Trim {
		trimmed := utils.Trim(out)
		logger.Debug("trimmed output", "from", out.Bounds().Size(), "to", trimmed.Bounds().Size())
		out = trimmed
	}
	return out, nil
}

// DeduceColors resolves opts.Foreground against img without transforming any pixel.
// The result has one color per foreground spec.
func DeduceColors(img image.Image, opts Options) ([]Color, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	src := imaging.Clone(img)
	bg := ResolveBackground(src, opts)
	return resolveForeground(src, bg, opts), nil
}

// ResolveBackground returns opts.Background or estimates it from img.
func ResolveBackground(img *image.NRGBA, opts Options) Color {
	if opts.Background != nil {
		return *opts.Background
	}
	c := utils.DetectBackground(img, opts.BackgroundMethod)
	bg := Color{R: c.R, G: c.G, B: c.B}
	opts.logger().Debug("detected background", "method", opts.BackgroundMethod.String(), "color", bg.Hex())
	return bg
}

func resolveForeground(img *image.NRGBA, bg Color, opts Options) []Color {
	for _, spec := range opts.Foreground {
		if _, ok := spec.(Unknown); ok {
			return Deduce(NewHistogram(img), bg, opts.Foreground, opts.Threshold, opts.logger())
		}
	}
	return fillSlots(opts.Foreground, nil)
}

// CompositeOverBackground flattens a translucent pixel onto bg.
func CompositeOverBackground(px color.NRGBA, bg Color) Color {
	if px.A == 255 {
		return Color{R: px.R, G: px.G, B: px.B}
	}
	a := float64(px.A) / 255.0
	blend := func(f, b uint8) uint8 {
		v := (float64(f)/255.0*a + float64(b)/255.0*(1-a)) * 255.0
		return uint8(min(255, max(0, v+0.5)))
	}
	return Color{R: blend(px.R, bg.R), G: blend(px.G, bg.G), B: blend(px.B, bg.B)}
}

type pixelProcessor struct {
	fg        []colorful.Color
	bg        Color
	bgN       colorful.Color
	strict    bool
	threshold float64
}

func newPixelProcessor(fg []Color, bg Color, opts Options) *pixelProcessor {
	return &pixelProcessor{
		fg:        normalizeAll(fg),
		bg:        bg,
		bgN:       Normalize(bg),
		strict:    opts.Strict,
		threshold: opts.Threshold,
	}
}

func (p *pixelProcessor) process(px color.NRGBA) color.NRGBA {
	obs := Normalize(CompositeOverBackground(px, p.bg))
	if isBackground(obs, p.bgN) {
		return color.NRGBA{}
	}

	if p.strict || (len(p.fg) > 0 && closeToForeground(obs, p.fg, p.bgN, p.threshold)) {
		c, alpha := ResultColor(unmix(obs, p.fg, p.bgN, true), p.fg)
		return toNRGBA(c, alpha)
	}

	fg, alpha := MinimumAlpha(obs, p.bgN)
	return toNRGBA(fg, alpha)
}

func isBackground(obs, bg colorful.Color) bool {
	return math.Abs(obs.R-bg.R) < backgroundTolerance &&
		math.Abs(obs.G-bg.G) < backgroundTolerance &&
		math.Abs(obs.B-bg.B) < backgroundTolerance
}

func toNRGBA(c colorful.Color, alpha float64) color.NRGBA {
	out := Denormalize(c)
	return color.NRGBA{R: out.R, G: out.G, B: out.B, A: uint8(min(1, max(0, alpha))*255 + 0.5)}
}

// transform runs p over every pixel of src. Rows are split into one chunk per
// worker and every worker writes only its own rows.
func transform(src *image.NRGBA, p *pixelProcessor, workers int) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	h := bounds.Dy()
	chunk := (h + workers - 1) / workers

	var wg sync.WaitGroup
	for i := range workers {
		startY := bounds.Min.Y + i*chunk
		endY := min(startY+chunk, bounds.Max.Y)
		if startY >= endY {
			continue
		}
		wg.Go(func() {
			for y := startY; y < endY; y++ {
				for x := bounds.Min.X; x < bounds.Max.X; x++ {
					dst.SetNRGBA(x, y, p.process(src.NRGBAAt(x, y)))
				}
			}
		})
	}
	wg.Wait()
	return dst
}
