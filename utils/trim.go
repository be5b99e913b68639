package utils

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ContentBounds returns the bounding box of pixels with non-zero alpha and whether
// any exist.
func ContentBounds(img *image.NRGBA) (image.Rectangle, bool) {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.Pix[img.PixOffset(x, y)+3] == 0 {
				continue
			}
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x)
			maxY = max(maxY, y)
		}
	}
	if maxX < minX || maxY < minY {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// Trim crops img to ContentBounds. A fully transparent image becomes a single
// transparent pixel.
func Trim(img *image.NRGBA) *image.NRGBA {
	rect, ok := ContentBounds(img)
	if !ok {
		out := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		out.SetNRGBA(0, 0, color.NRGBA{})
		return out
	}
	if rect == img.Bounds() {
		return img
	}
	return imaging.Crop(img, rect)
}
