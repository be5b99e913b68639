package bgunmix

import (
	"errors"
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/setanarut/bgunmix/utils"
)

func onePixel(c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, c)
	return img
}

func TestProcessPixels(t *testing.T) {
	black := Color{0, 0, 0}
	red := Color{255, 0, 0}

	tests := []struct {
		name   string
		in     color.NRGBA
		bg     Color
		fg     []ForegroundSpec
		strict bool
		want   color.NRGBA
	}{
		{
			name:   "StrictOpaqueForeground",
			in:     color.NRGBA{255, 0, 0, 255},
			bg:     black,
			fg:     []ForegroundSpec{Known{Color: red}},
			strict: true,
			want:   color.NRGBA{255, 0, 0, 255},
		},
		{
			name: "MinimumAlphaWithoutForeground",
			in:   color.NRGBA{128, 0, 0, 255},
			bg:   black,
			want: color.NRGBA{255, 0, 0, 128},
		},
		{
			name: "BackgroundIsTransparent",
			in:   color.NRGBA{255, 255, 255, 255},
			bg:   white,
			fg:   []ForegroundSpec{Known{Color: red}},
			want: color.NRGBA{},
		},
		{
			name:   "StrictBackgroundIsTransparent",
			in:     color.NRGBA{255, 255, 255, 255},
			bg:     white,
			fg:     []ForegroundSpec{Known{Color: red}},
			strict: true,
			want:   color.NRGBA{},
		},
		{
			name: "BlendCloseToForeground",
			in:   color.NRGBA{255, 128, 128, 255},
			bg:   white,
			fg:   []ForegroundSpec{Known{Color: red}},
			want: color.NRGBA{255, 0, 0, 127},
		},
		{
			name: "GlowKeepsItsOwnColor",
			in:   color.NRGBA{128, 255, 128, 255},
			bg:   white,
			fg:   []ForegroundSpec{Known{Color: red}},
			want: color.NRGBA{0, 255, 0, 127},
		},
		{
			name:   "StrictProjectsOntoForeground",
			in:     color.NRGBA{128, 255, 128, 255},
			bg:     white,
			fg:     []ForegroundSpec{Known{Color: Color{0, 255, 0}}},
			strict: true,
			want:   color.NRGBA{0, 255, 0, 127},
		},
		{
			name: "TransparentInputIsBackground",
			in:   color.NRGBA{10, 200, 30, 0},
			bg:   white,
			want: color.NRGBA{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Background = &tt.bg
			opts.Foreground = tt.fg
			opts.Strict = tt.strict

			out, err := Process(onePixel(tt.in), opts)
			if err != nil {
				t.Fatalf("Process returned error: %v", err)
			}
			if got := out.NRGBAAt(0, 0); got != tt.want {
				t.Errorf("pixel = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestProcessDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	img := image.NewNRGBA(image.Rect(0, 0, 37, 23))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}

	opts := DefaultOptions()
	opts.Foreground = []ForegroundSpec{Known{Color: Color{200, 30, 30}}, Known{Color: Color{40, 60, 200}}}
	opts.Background = &white

	var first []byte
	for _, workers := range []int{1, 3, 8, 64} {
		opts.Workers = workers
		out, err := Process(img, opts)
		if err != nil {
			t.Fatalf("workers %d: %v", workers, err)
		}
		if first == nil {
			first = out.Pix
			continue
		}
		if string(out.Pix) != string(first) {
			t.Errorf("workers %d produced a different image", workers)
		}
	}
}

func TestProcessAutoForeground(t *testing.T) {
	red := Color{200, 30, 30}
	img := solidImage(10, 10, white)
	setRow(img, 2, 3, 5, red)
	setRow(img, 2, 5, 5, Color{222, 120, 120})

	opts := DefaultOptions()
	opts.Foreground = []ForegroundSpec{Unknown{}}

	colors, err := DeduceColors(img, opts)
	if err != nil {
		t.Fatalf("DeduceColors returned error: %v", err)
	}
	if len(colors) != 1 || Distance(Normalize(colors[0]), Normalize(red)) >= DefaultThreshold {
		t.Fatalf("deduced %v; want near %v", colors, red)
	}

	opts.Strict = true
	out, err := Process(img, opts)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if got := out.NRGBAAt(0, 0); got.A != 0 {
		t.Errorf("background pixel = %v; want transparent", got)
	}
	if got := out.NRGBAAt(2, 3); got != (color.NRGBA{200, 30, 30, 255}) {
		t.Errorf("foreground pixel = %v; want opaque %v", got, red)
	}
	if got := out.NRGBAAt(2, 5); got != (color.NRGBA{200, 30, 30, 153}) {
		t.Errorf("blended pixel = %v; want %v at 60%%", got, red)
	}
}

func TestProcessTrim(t *testing.T) {
	img := solidImage(6, 6, white)
	img.SetNRGBA(2, 3, color.NRGBA{255, 0, 0, 255})
	img.SetNRGBA(4, 4, color.NRGBA{255, 0, 0, 255})

	opts := DefaultOptions()
	opts.Trim = true
	out, err := Process(img, opts)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if got := out.Bounds(); got != image.Rect(0, 0, 3, 2) {
		t.Fatalf("bounds = %v; want 3x2", got)
	}
	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("top-left = %v; want opaque red", got)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"NegativeThreshold", func(o *Options) { o.Threshold = -0.1 }},
		{"ThresholdAboveOne", func(o *Options) { o.Threshold = 1.5 }},
		{"NaNThreshold", func(o *Options) { o.Threshold = math.NaN() }},
		{"NegativeWorkers", func(o *Options) { o.Workers = -1 }},
		{"NilForeground", func(o *Options) { o.Foreground = []ForegroundSpec{nil} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			if err := opts.Validate(); !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("Validate() = %v; want ErrInvalidOptions", err)
			}
			if _, err := Process(onePixel(color.NRGBA{A: 255}), opts); !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("Process() = %v; want ErrInvalidOptions", err)
			}
		})
	}

	if err := DefaultOptions().Validate(); err != nil {
		t.Errorf("default options invalid: %v", err)
	}
}

func TestCompositeOverBackground(t *testing.T) {
	black := Color{0, 0, 0}
	tests := []struct {
		px   color.NRGBA
		bg   Color
		want Color
	}{
		{color.NRGBA{10, 20, 30, 255}, white, Color{10, 20, 30}},
		{color.NRGBA{10, 20, 30, 0}, white, white},
		{color.NRGBA{255, 255, 255, 128}, black, Color{128, 128, 128}},
	}
	for _, tt := range tests {
		if got := CompositeOverBackground(tt.px, tt.bg); got != tt.want {
			t.Errorf("CompositeOverBackground(%v, %v) = %v; want %v", tt.px, tt.bg, got, tt.want)
		}
	}
}

func TestResolveBackgroundDetects(t *testing.T) {
	img := solidImage(30, 30, Color{12, 34, 56})
	setRow(img, 5, 10, 20, Color{255, 0, 0})
	if got := ResolveBackground(img, DefaultOptions()); got != (Color{12, 34, 56}) {
		t.Errorf("ResolveBackground = %v; want {12 34 56}", got)
	}
}

func TestProcessDetectedBackgroundIsTransparent(t *testing.T) {
	bg := Color{12, 200, 90}
	img := solidImage(40, 40, bg)
	setRow(img, 5, 0, 10, Color{255, 0, 0})

	for _, method := range []utils.BackgroundMethod{utils.BackgroundEdgeVote, utils.BackgroundDominant, utils.BackgroundKMeans} {
		t.Run(method.String(), func(t *testing.T) {
			opts := DefaultOptions()
			opts.BackgroundMethod = method
			if got := ResolveBackground(img, opts); got != bg {
				t.Fatalf("ResolveBackground = %v; want %v", got, bg)
			}
			out, err := Process(img, opts)
			if err != nil {
				t.Fatalf("Process returned error: %v", err)
			}
			if got := out.NRGBAAt(20, 20); got != (color.NRGBA{}) {
				t.Errorf("background pixel = %v; want transparent", got)
			}
		})
	}
}
