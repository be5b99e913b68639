package bgunmix

import (
	"image"
	"slices"
)

// HistogramEntry counts the pixels of one distinct RGB color.
type HistogramEntry struct {
	Color Color
	Count int
}

// NewHistogram counts every distinct RGB color of img, ignoring alpha. Entries are
// ordered by count, most frequent first; equal counts keep row-major first-seen order.
func NewHistogram(img *image.NRGBA) []HistogramEntry {
	b := img.Bounds()
	index := make(map[Color]int)
	var entries []HistogramEntry
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := range b.Dx() {
			off := x * 4
			c := Color{R: row[off], G: row[off+1], B: row[off+2]}
			if i, ok := index[c]; ok {
				entries[i].Count++
				continue
			}
			index[c] = len(entries)
			entries = append(entries, HistogramEntry{Color: c, Count: 1})
		}
	}
	slices.SortStableFunc(entries, func(a, b HistogramEntry) int {
		return b.Count - a.Count
	})
	return entries
}
