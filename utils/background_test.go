package utils

import (
	"image"
	"image/color"
	"testing"
)

func fill(img *image.NRGBA, c color.NRGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

func TestEdgeSamples(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 25, 12))
	fill(img, color.NRGBA{255, 255, 255, 255})
	img.SetNRGBA(24, 11, color.NRGBA{200, 100, 50, 128})

	samples := EdgeSamples(img, 10)
	// 4 corners, 3 columns on two rows, 2 rows on two columns
	if len(samples) != 4+3*2+2*2 {
		t.Fatalf("got %d samples; want 14", len(samples))
	}
	if got := samples[3]; got != (color.RGBA{100, 50, 25, 255}) {
		t.Errorf("translucent corner = %v; want composited over black", got)
	}

	if got := EdgeSamples(image.NewNRGBA(image.Rect(0, 0, 0, 0)), 10); got != nil {
		t.Errorf("empty image samples = %v; want nil", got)
	}
}

func TestDetectBackground(t *testing.T) {
	bg := color.NRGBA{12, 200, 90, 255}
	img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	fill(img, bg)
	// subject touching the top edge
	for x := 5; x < 15; x++ {
		img.SetNRGBA(x, 0, color.NRGBA{255, 0, 0, 255})
	}

	want := color.RGBA{12, 200, 90, 255}
	if got := DetectBackground(img, BackgroundEdgeVote); got != want {
		t.Errorf("edge vote = %v; want %v", got, want)
	}
	if got := DetectBackground(image.NewNRGBA(image.Rect(0, 0, 0, 0)), BackgroundEdgeVote); got != (color.RGBA{A: 255}) {
		t.Errorf("empty image = %v; want opaque black", got)
	}

	t.Run("KMeans", func(t *testing.T) {
		uniform := image.NewNRGBA(image.Rect(0, 0, 40, 40))
		fill(uniform, bg)
		if got := DetectBackground(uniform, BackgroundKMeans); got != want {
			t.Errorf("kmeans = %v; want %v", got, want)
		}
	})

	// a subject on the edge pulls cluster averages away from the background
	t.Run("SubjectOnEdge", func(t *testing.T) {
		for _, method := range []BackgroundMethod{BackgroundDominant, BackgroundKMeans} {
			t.Run(method.String(), func(t *testing.T) {
				if got := DetectBackground(img, method); got != want {
					t.Errorf("%s = %v; want %v", method, got, want)
				}
			})
		}
	})
}

func TestNearestSample(t *testing.T) {
	samples := []color.RGBA{
		{12, 200, 90, 255},
		{255, 0, 0, 255},
		{12, 200, 90, 255},
	}
	tests := []struct {
		center color.RGBA
		want   color.RGBA
	}{
		{color.RGBA{24, 190, 85, 0}, samples[0]},
		{color.RGBA{200, 40, 20, 0}, samples[1]},
		{color.RGBA{12, 200, 90, 0}, samples[0]},
	}
	for _, tt := range tests {
		if got := nearestSample(samples, tt.center); got != tt.want {
			t.Errorf("nearestSample(%v) = %v; want %v", tt.center, got, tt.want)
		}
	}
}

func TestMajorityColor(t *testing.T) {
	a := color.RGBA{1, 1, 1, 255}
	b := color.RGBA{2, 2, 2, 255}
	if got := majorityColor([]color.RGBA{b, a, a, b}); got != b {
		t.Errorf("tie = %v; want first sampled %v", got, b)
	}
	if got := majorityColor([]color.RGBA{b, a, a}); got != a {
		t.Errorf("majority = %v; want %v", got, a)
	}
}

func TestParseBackgroundMethod(t *testing.T) {
	for _, m := range []BackgroundMethod{BackgroundEdgeVote, BackgroundDominant, BackgroundKMeans} {
		got, ok := ParseBackgroundMethod(m.String())
		if !ok || got != m {
			t.Errorf("ParseBackgroundMethod(%q) = %v, %v", m.String(), got, ok)
		}
	}
	if _, ok := ParseBackgroundMethod("median"); ok {
		t.Error("unknown method accepted")
	}
}
