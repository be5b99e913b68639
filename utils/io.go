package utils

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	_ "golang.org/x/image/webp"
)

// ReadImage decodes the image at path, applying any EXIF orientation.
// Supported formats: JPEG, PNG, GIF, TIFF, BMP and WebP.
func ReadImage(path string) (image.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// DecodeImage decodes an image from r.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// SaveImage writes img to filename in the format implied by its extension.
func SaveImage(img image.Image, filename string) error {
	if _, err := imaging.FormatFromFilename(filename); err != nil {
		return fmt.Errorf("cannot save %s: %w", filename, err)
	}
	if err := imaging.Save(img, filename); err != nil {
		return fmt.Errorf("failed to write output image: %w", err)
	}
	return nil
}

// EncodePNG writes img to w as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// PaletteImage renders palette as a strip of square tiles.
func PaletteImage(palette []colorful.Color, tileSize int) (*image.RGBA, error) {
	if len(palette) == 0 {
		return nil, fmt.Errorf("empty palette")
	}
	if tileSize <= 0 {
		tileSize = 64
	}

	w := tileSize * len(palette)
	h := tileSize
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for i, c := range palette {
		r, g, b := c.Clamped().RGB255()
		x0 := i * tileSize
		x1 := x0 + tileSize
		for y := range h {
			for x := x0; x < x1; x++ {
				img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
			}
		}
	}
	return img, nil
}

func SavePalette(palette []colorful.Color, tileSize int, filename string) error {
	img, err := PaletteImage(palette, tileSize)
	if err != nil {
		return err
	}
	return SaveImage(img, filename)
}
