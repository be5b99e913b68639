// Package bgunmix removes a uniform background color from an image by unmixing every pixel into
// foreground colors, a background color and an opacity.
package bgunmix

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	// DefaultThreshold is the default closeness threshold, 5% of the maximum RGB distance.
	DefaultThreshold = 0.05

	epsilon = 1e-10

	// shorthand hex digits expand by 17 (f -> ff)
	hexShorthandMultiplier = 17
)

var ErrInvalidHex = errors.New("invalid hex color")

// Color is an 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// RGBA implements color.Color with full opacity.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R) * 0x101
	g = uint32(c.G) * 0x101
	b = uint32(c.B) * 0x101
	return r, g, b, 0xffff
}

func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// Normalize scales c to [0,1] per channel.
func Normalize(c Color) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// Denormalize clamps c to [0,1] and rounds each channel to the nearest byte.
func Denormalize(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return Color{R: r, G: g, B: b}
}

// Distance is the Euclidean distance between two normalized colors.
func Distance(a, b colorful.Color) float64 {
	return a.DistanceRgb(b)
}

// ParseHex parses "#rrggbb", "rrggbb", "#rgb" or "rgb".
func ParseHex(s string) (Color, error) {
	hex := strings.TrimPrefix(s, "#")

	var width int
	switch len(hex) {
	case 3:
		width = 1
	case 6:
		width = 2
	default:
		return Color{}, fmt.Errorf("%w: must be 3 or 6 characters long (got %d: %q)", ErrInvalidHex, len(hex), hex)
	}

	names := [3]string{"red", "green", "blue"}
	var out [3]uint8
	for i := range 3 {
		part := hex[i*width : (i+1)*width]
		v, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("%w: invalid %s component %q", ErrInvalidHex, names[i], part)
		}
		if width == 1 {
			v *= hexShorthandMultiplier
		}
		out[i] = uint8(v)
	}
	return Color{R: out[0], G: out[1], B: out[2]}, nil
}

// ForegroundSpec is either Known or Unknown.
type ForegroundSpec interface {
	foregroundSpec()
}

// Known is a foreground color given by the caller.
type Known struct {
	Color Color
}

// Unknown is a foreground slot to be deduced from the image.
type Unknown struct{}

func (Known) foregroundSpec()   {}
func (Unknown) foregroundSpec() {}

// AutoToken selects an Unknown foreground slot.
const AutoToken = "auto"

func ParseForegroundSpec(s string) (ForegroundSpec, error) {
	if s == AutoToken {
		return Unknown{}, nil
	}
	c, err := ParseHex(s)
	if err != nil {
		return nil, err
	}
	return Known{Color: c}, nil
}

// ParseForegroundSpecs parses specs in order; the first failure aborts with its position.
func ParseForegroundSpecs(specs []string) ([]ForegroundSpec, error) {
	out := make([]ForegroundSpec, 0, len(specs))
	for i, s := range specs {
		spec, err := ParseForegroundSpec(s)
		if err != nil {
			return nil, fmt.Errorf("foreground color %d: %w", i, err)
		}
		out = append(out, spec)
	}
	return out, nil
}

func normalizeAll(colors []Color) []colorful.Color {
	out := make([]colorful.Color, len(colors))
	for i, c := range colors {
		out[i] = Normalize(c)
	}
	return out
}
