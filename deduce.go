package bgunmix

import (
	"math"
	"slices"

	"github.com/hashicorp/go-hclog"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	// histogram colors examined when proposing candidates
	maxCandidateSources = 100

	// candidates kept per unknown slot before reference colors are added
	candidatesPerUnknown = 10

	maxCandidatesTwoUnknowns        = 30
	maxCandidatesThreeUnknowns      = 25
	selectedCandidatesThreeUnknowns = 20

	// forward reconstruction tolerance of a candidate, in 0-255 units
	candidateTolerance = 5.0

	// histogram colors this close to the background propose nothing
	backgroundProximity = 0.01

	maxPenaltyPerColor = 0.00001
	cubeDiagonal       = 1.732
)

var (
	candidateAlphas = [...]float64{0.25, 0.50, 0.75, 0.90, 1.00}

	referenceColors = [...]Color{
		{255, 0, 0},
		{0, 255, 0},
		{0, 0, 255},
		{255, 255, 0},
		{255, 0, 255},
		{0, 255, 255},
		{255, 128, 0},
		{128, 0, 255},
	}

	neutralGray = Color{128, 128, 128}
)

// Deduce resolves every Unknown in specs to a color, keeping Known colors in place.
// The result has one color per spec, in spec order.
func Deduce(hist []HistogramEntry, bg Color, specs []ForegroundSpec, threshold float64, logger hclog.Logger) []Color {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	var known []Color
	unknowns := 0
	for _, spec := range specs {
		switch s := spec.(type) {
		case Known:
			known = append(known, s.Color)
		case Unknown:
			unknowns++
		}
	}

	if unknowns == 0 {
		return fillSlots(specs, nil)
	}

	candidates := findCandidates(hist, bg, unknowns*candidatesPerUnknown, threshold)
	logger.Debug("proposed foreground candidates", "count", len(candidates), "unknowns", unknowns)

	for _, ref := range referenceColors {
		if ref == bg || slices.Contains(known, ref) || withinThreshold(candidates, ref, threshold) {
			continue
		}
		candidates = append(candidates, ref)
	}

	d := &deduction{
		hist:  hist,
		bg:    Normalize(bg),
		specs: specs,
	}

	var best []Color
	switch {
	case unknowns == 1:
		best = d.search(candidates, 1)
	case unknowns == 2:
		if len(candidates) > maxCandidatesTwoUnknowns {
			candidates = selectMostDifferent(candidates, maxCandidatesTwoUnknowns)
		}
		best = d.search(candidates, 2)
	case unknowns == 3:
		if len(candidates) > maxCandidatesThreeUnknowns {
			candidates = selectMostDifferent(candidates, selectedCandidatesThreeUnknowns)
		}
		best = d.search(candidates, 3)
	default:
		best = selectMostDifferent(candidates, unknowns)
		logger.Debug("picked most different foreground colors", "candidates", len(candidates), "colors", hexList(best))
		return fillSlots(specs, best)
	}

	logger.Debug("deduced foreground colors", "candidates", len(candidates), "colors", hexList(best), "score", d.bestScore)
	return fillSlots(specs, best)
}

// findCandidates proposes foreground colors that blend with bg into one of the most
// frequent histogram colors at a fixed set of alphas.
func findCandidates(hist []HistogramEntry, bg Color, limit int, threshold float64) []Color {
	bgN := Normalize(bg)
	var raw []Color

	for _, e := range hist[:min(len(hist), maxCandidateSources)] {
		obs := Normalize(e.Color)
		if Distance(obs, bgN) < backgroundProximity {
			continue
		}
		for _, alpha := range candidateAlphas {
			fg, ok := impliedForeground(obs, bgN, alpha)
			if !ok {
				continue
			}
			dr := (fg.R*alpha + bgN.R*(1-alpha)) * 255
			dg := (fg.G*alpha + bgN.G*(1-alpha)) * 255
			db := (fg.B*alpha + bgN.B*(1-alpha)) * 255
			dr -= float64(e.Color.R)
			dg -= float64(e.Color.G)
			db -= float64(e.Color.B)
			if math.Sqrt(dr*dr+dg*dg+db*db) < candidateTolerance {
				raw = append(raw, Denormalize(fg))
			}
		}
	}

	var unique []Color
	for _, c := range raw {
		if !withinThreshold(unique, c, threshold) {
			unique = append(unique, c)
		}
	}

	if len(unique) > limit {
		return selectMostDifferent(unique, limit)
	}
	return unique
}

func impliedForeground(obs, bg colorful.Color, alpha float64) (colorful.Color, bool) {
	fg := colorful.Color{
		R: (obs.R - bg.R*(1-alpha)) / alpha,
		G: (obs.G - bg.G*(1-alpha)) / alpha,
		B: (obs.B - bg.B*(1-alpha)) / alpha,
	}
	return fg, fg.IsValid()
}

// selectMostDifferent picks n colors by farthest-point selection, seeded with the
// most saturated color. Ties go to the earlier color.
func selectMostDifferent(colors []Color, n int) []Color {
	if len(colors) <= n {
		return append([]Color(nil), colors...)
	}

	norm := normalizeAll(colors)
	picked := make([]bool, len(colors))
	selected := make([]int, 0, n)

	seed, seedSpread := 0, -1
	for i, c := range colors {
		if s := spread(c); s > seedSpread {
			seed, seedSpread = i, s
		}
	}
	picked[seed] = true
	selected = append(selected, seed)

	for len(selected) < n {
		bestIdx, bestDist := -1, -1.0
		for i := range colors {
			if picked[i] {
				continue
			}
			nearest := math.MaxFloat64
			for _, s := range selected {
				nearest = min(nearest, Distance(norm[i], norm[s]))
			}
			if nearest > bestDist {
				bestIdx, bestDist = i, nearest
			}
		}
		if bestIdx < 0 {
			break
		}
		picked[bestIdx] = true
		selected = append(selected, bestIdx)
	}

	out := make([]Color, len(selected))
	for i, idx := range selected {
		out[i] = colors[idx]
	}
	return out
}

func spread(c Color) int {
	hi := max(c.R, c.G, c.B)
	lo := min(c.R, c.G, c.B)
	return int(hi) - int(lo)
}

type deduction struct {
	hist      []HistogramEntry
	bg        colorful.Color
	specs     []ForegroundSpec
	bestScore float64
}

// search tries every unordered k-combination of candidates in the unknown slots and
// returns the one with the lowest score.
func (d *deduction) search(candidates []Color, k int) []Color {
	var best []Color
	d.bestScore = math.MaxFloat64

	trial := make([]Color, k)
	var walk func(start, depth int)
	walk = func(start, depth int) {
		if depth == k {
			if score := d.score(trial); score < d.bestScore {
				d.bestScore = score
				best = append(best[:0], trial...)
			}
			return
		}
		for i := start; i < len(candidates); i++ {
			trial[depth] = candidates[i]
			walk(i+1, depth+1)
		}
	}
	walk(0, 0)
	return best
}

// score is the sqrt(count)-weighted mean reconstruction error of the histogram under
// simple unmixing, plus a small penalty for foreground colors close to the background.
func (d *deduction) score(trial []Color) float64 {
	fg := normalizeAll(fillSlots(d.specs, trial))

	var totalErr, totalWeight float64
	for _, e := range d.hist {
		w := math.Sqrt(float64(e.Count))
		obs := Normalize(e.Color)
		res := unmix(obs, fg, d.bg, false)
		c, alpha := ResultColor(res, fg)
		rec := colorful.Color{
			R: c.R*alpha + d.bg.R*(1-alpha),
			G: c.G*alpha + d.bg.G*(1-alpha),
			B: c.B*alpha + d.bg.B*(1-alpha),
		}
		totalErr += Distance(rec, obs) * w
		totalWeight += w
	}

	reconstruction := 0.0
	if totalWeight > 0 {
		reconstruction = totalErr / totalWeight
	}

	penalty := 0.0
	for _, c := range fg {
		penalty += (1 - Distance(c, d.bg)/cubeDiagonal) * maxPenaltyPerColor
	}
	if len(fg) > 0 {
		penalty /= float64(len(fg))
	}

	return reconstruction + penalty
}

// fillSlots lays out known colors and fill in slot order. Unknown slots past the end
// of fill become neutral gray.
func fillSlots(specs []ForegroundSpec, fill []Color) []Color {
	out := make([]Color, 0, len(specs))
	next := 0
	for _, spec := range specs {
		switch s := spec.(type) {
		case Known:
			out = append(out, s.Color)
		case Unknown:
			if next < len(fill) {
				out = append(out, fill[next])
			} else {
				out = append(out, neutralGray)
			}
			next++
		}
	}
	return out
}

func withinThreshold(colors []Color, c Color, threshold float64) bool {
	n := Normalize(c)
	for _, x := range colors {
		if Distance(Normalize(x), n) < threshold {
			return true
		}
	}
	return false
}

func hexList(colors []Color) []string {
	out := make([]string, len(colors))
	for i, c := range colors {
		out[i] = c.Hex()
	}
	return out
}
