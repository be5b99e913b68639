package utils

import (
	"image"
	"image/color"
	"log"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

type BackgroundMethod int

const (
	// BackgroundEdgeVote takes the most common color among the corners and every
	// EdgeSampleInterval-th edge pixel.
	BackgroundEdgeVote BackgroundMethod = iota
	// BackgroundDominant takes the edge sample closest to the heaviest dominantcolor
	// cluster.
	BackgroundDominant
	// BackgroundKMeans takes the edge sample closest to the center of the most
	// populated k-means cluster. Cluster seeding is random, so results may differ between runs.
	BackgroundKMeans
)

const EdgeSampleInterval = 10

func (m BackgroundMethod) String() string {
	switch m {
	case BackgroundDominant:
		return "dominant"
	case BackgroundKMeans:
		return "kmeans"
	default:
		return "edge"
	}
}

// ParseBackgroundMethod is the inverse of BackgroundMethod.String.
func ParseBackgroundMethod(s string) (BackgroundMethod, bool) {
	for _, m := range []BackgroundMethod{BackgroundEdgeVote, BackgroundDominant, BackgroundKMeans} {
		if m.String() == s {
			return m, true
		}
	}
	return BackgroundEdgeVote, false
}

// EdgeSamples returns the corners followed by every interval-th pixel of the top and
// bottom rows and of the left and right columns. Translucent pixels are composited
// over black.
func EdgeSamples(img *image.NRGBA, interval int) []color.RGBA {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}
	if interval <= 0 {
		interval = 1
	}
	x0, y0, x1, y1 := b.Min.X, b.Min.Y, b.Max.X-1, b.Max.Y-1

	points := []image.Point{{x0, y0}, {x1, y0}, {x0, y1}, {x1, y1}}
	for x := x0; x <= x1; x += interval {
		points = append(points, image.Pt(x, y0), image.Pt(x, y1))
	}
	for y := y0; y <= y1; y += interval {
		points = append(points, image.Pt(x0, y), image.Pt(x1, y))
	}

	out := make([]color.RGBA, len(points))
	for i, p := range points {
		c := img.NRGBAAt(p.X, p.Y)
		if c.A < 255 {
			a := float64(c.A) / 255.0
			c.R = uint8(float64(c.R)*a + 0.5)
			c.G = uint8(float64(c.G)*a + 0.5)
			c.B = uint8(float64(c.B)*a + 0.5)
		}
		out[i] = color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
	}
	return out
}

// DetectBackground estimates the uniform background color of img. An empty image
// yields black.
func DetectBackground(img *image.NRGBA, method BackgroundMethod) color.RGBA {
	samples := EdgeSamples(img, EdgeSampleInterval)
	if len(samples) == 0 {
		return color.RGBA{A: 255}
	}
	switch method {
	case BackgroundDominant:
		if c, ok := dominantBackground(samples); ok {
			return c
		}
		log.Println("background warning: dominantcolor found no cluster, falling back to edge vote")
	case BackgroundKMeans:
		if c, ok := kmeansBackground(samples); ok {
			return c
		}
		log.Println("background warning: kmeans returned no cluster, falling back to edge vote")
	}
	return majorityColor(samples)
}

// majorityColor returns the most frequent sample; ties go to the first sampled.
func majorityColor(samples []color.RGBA) color.RGBA {
	counts := make(map[color.RGBA]int, len(samples))
	best, bestCount := samples[0], 0
	for _, s := range samples {
		counts[s]++
	}
	for _, s := range samples {
		if n := counts[s]; n > bestCount {
			best, bestCount = s, n
		}
	}
	return best
}

// sampleStrip lays samples out as a one-pixel-high image.
func sampleStrip(samples []color.RGBA) *image.RGBA {
	strip := image.NewRGBA(image.Rect(0, 0, len(samples), 1))
	for i, s := range samples {
		strip.SetRGBA(i, 0, s)
	}
	return strip
}

func dominantBackground(samples []color.RGBA) (color.RGBA, bool) {
	found := dominantcolor.FindWeight(sampleStrip(samples), 4)
	if len(found) == 0 {
		return color.RGBA{}, false
	}
	best := found[0]
	for _, c := range found[1:] {
		if c.Weight > best.Weight {
			best = c
		}
	}
	return nearestSample(samples, best.RGBA), true
}

func kmeansBackground(samples []color.RGBA) (color.RGBA, bool) {
	dataset := make(clusters.Observations, 0, len(samples))
	for _, s := range samples {
		dataset = append(dataset, clusters.Coordinates{
			float64(s.R) / 255.0,
			float64(s.G) / 255.0,
			float64(s.B) / 255.0,
		})
	}

	k := min(3, len(dataset))
	km := kmeans.New()
	cc, err := km.Partition(dataset, k)
	if err != nil || len(cc) == 0 {
		return color.RGBA{}, false
	}

	// Most populated cluster first.
	slices.SortStableFunc(cc, func(a, b clusters.Cluster) int {
		return len(b.Observations) - len(a.Observations)
	})
	center := cc[0].Center
	if len(center) < 3 {
		return color.RGBA{}, false
	}
	r, g, b := colorful.Color{R: center[0], G: center[1], B: center[2]}.Clamped().RGB255()
	return nearestSample(samples, color.RGBA{R: r, G: g, B: b}), true
}

// nearestSample snaps c to the closest sampled color. Ties go to the first sampled.
func nearestSample(samples []color.RGBA, c color.RGBA) color.RGBA {
	best, bestDist := samples[0], -1
	for _, s := range samples {
		dr := int(s.R) - int(c.R)
		dg := int(s.G) - int(c.G)
		db := int(s.B) - int(c.B)
		if d := dr*dr + dg*dg + db*db; bestDist < 0 || d < bestDist {
			best, bestDist = s, d
		}
	}
	return best
}
