package bgunmix

import (
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/mat"
)

// Reconstruction error accepted by the single and pair candidates of the
// opacity-optimized solve, in normalized units (about 2.55 of 255).
const maxReconstructionError = 0.01

// UnmixResult holds one weight per foreground color and the overall alpha.
type UnmixResult struct {
	Weights []float64
	Alpha   float64
}

// Unmix decomposes observed against fg and bg, preferring the explanation with the
// highest opacity that still reconstructs observed.
func Unmix(observed Color, fg []colorful.Color, bg colorful.Color) UnmixResult {
	return unmix(Normalize(observed), fg, bg, true)
}

// UnmixSimple decomposes observed with a single least-squares solve over all of fg.
func UnmixSimple(observed Color, fg []colorful.Color, bg colorful.Color) UnmixResult {
	return unmix(Normalize(observed), fg, bg, false)
}

func unmix(obs colorful.Color, fg []colorful.Color, bg colorful.Color, optimize bool) UnmixResult {
	switch len(fg) {
	case 0:
		return UnmixResult{Weights: []float64{}, Alpha: 0}
	case 1:
		w := projectWeight(obs, fg[0], bg)
		return UnmixResult{Weights: []float64{w}, Alpha: w}
	}
	if optimize {
		return unmixOptimized(obs, fg, bg)
	}
	return unmixSimple(obs, fg, bg)
}

// projectWeight projects obs-bg onto fg-bg and clamps the ratio to [0,1].
func projectWeight(obs, fg, bg colorful.Color) float64 {
	dr, dg, db := fg.R-bg.R, fg.G-bg.G, fg.B-bg.B
	normSq := dr*dr + dg*dg + db*db
	if normSq <= epsilon*epsilon {
		return 0
	}
	dot := (obs.R-bg.R)*dr + (obs.G-bg.G)*dg + (obs.B-bg.B)*db
	return min(1, max(0, dot/normSq))
}

func unmixSimple(obs colorful.Color, fg []colorful.Color, bg colorful.Color) UnmixResult {
	weights, ok := leastSquares(obs, fg, bg)
	if !ok {
		weights = make([]float64, len(fg))
		weights[0] = 1
	}
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum > 1 {
		for i := range weights {
			weights[i] /= sum
		}
		return UnmixResult{Weights: weights, Alpha: 1}
	}
	return UnmixResult{Weights: weights, Alpha: sum}
}

// leastSquares solves (obs-bg) = A·w where column i of A is fg[i]-bg, using the
// minimum-norm SVD solution, and clamps negative weights to zero. It reports false
// when A has no usable rank.
func leastSquares(obs colorful.Color, fg []colorful.Color, bg colorful.Color) ([]float64, bool) {
	n := len(fg)
	a := mat.NewDense(3, n, nil)
	for i, c := range fg {
		a.Set(0, i, c.R-bg.R)
		a.Set(1, i, c.G-bg.G)
		a.Set(2, i, c.B-bg.B)
	}
	b := mat.NewVecDense(3, []float64{obs.R - bg.R, obs.G - bg.G, obs.B - bg.B})

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, false
	}
	rank := svd.Rank(epsilon)
	if rank == 0 {
		return nil, false
	}
	var x mat.VecDense
	svd.SolveVecTo(&x, b, rank)

	weights := make([]float64, n)
	for i := range n {
		weights[i] = max(0, x.AtVec(i))
	}
	return weights, true
}

// unmixOptimized starts from the least-squares solution over all colors and then
// tries every single color and every pair, keeping the highest alpha whose
// reconstruction error stays below maxReconstructionError.
func unmixOptimized(obs colorful.Color, fg []colorful.Color, bg colorful.Color) UnmixResult {
	n := len(fg)
	best := make([]float64, n)
	bestAlpha := 0.0

	if weights, ok := leastSquares(obs, fg, bg); ok {
		sum := 0.0
		for _, w := range weights {
			sum += w
		}
		if sum > 0 {
			if sum > 1 {
				for i := range weights {
					weights[i] /= sum
				}
			}
			best = weights
			bestAlpha = min(sum, 1)
		}
	}

	for i, c := range fg {
		if Distance(c, bg) <= epsilon {
			continue
		}
		w := projectWeight(obs, c, bg)
		if w > bestAlpha && reconstructionError(obs, bg, []colorful.Color{c}, []float64{w}) < maxReconstructionError {
			best = make([]float64, n)
			best[i] = w
			bestAlpha = w
		}
	}

	if bestAlpha >= 0.99 {
		return UnmixResult{Weights: best, Alpha: bestAlpha}
	}

	for i := range n {
		for j := i + 1; j < n; j++ {
			pair := []colorful.Color{fg[i], fg[j]}
			weights, ok := leastSquares(obs, pair, bg)
			if !ok {
				continue
			}
			sum := weights[0] + weights[1]
			if sum <= 0 {
				continue
			}
			alpha := min(sum, 1)
			if sum > 1 {
				weights[0] /= sum
				weights[1] /= sum
			}
			if alpha > bestAlpha && reconstructionError(obs, bg, pair, weights) < maxReconstructionError {
				best = make([]float64, n)
				best[i] = weights[0]
				best[j] = weights[1]
				bestAlpha = alpha
			}
		}
	}

	return UnmixResult{Weights: best, Alpha: bestAlpha}
}

// reconstructionError is |sum(w_i*fg_i) + (1-sum(w_i))*bg - obs|.
func reconstructionError(obs, bg colorful.Color, fg []colorful.Color, weights []float64) float64 {
	rest := 1.0
	var r, g, b float64
	for i, c := range fg {
		r += weights[i] * c.R
		g += weights[i] * c.G
		b += weights[i] * c.B
		rest -= weights[i]
	}
	rec := colorful.Color{R: r + rest*bg.R, G: g + rest*bg.G, B: b + rest*bg.B}
	return Distance(rec, obs)
}

// ResultColor returns the weight-normalized blend of fg and the alpha of res.
// A fully transparent result is black.
func ResultColor(res UnmixResult, fg []colorful.Color) (colorful.Color, float64) {
	if res.Alpha == 0 {
		return colorful.Color{}, 0
	}
	sum := 0.0
	for _, w := range res.Weights {
		sum += w
	}
	var out colorful.Color
	if sum <= 0 {
		return out, res.Alpha
	}
	for i, w := range res.Weights {
		if i >= len(fg) {
			break
		}
		out.R += w * fg[i].R
		out.G += w * fg[i].G
		out.B += w * fg[i].B
	}
	out.R /= sum
	out.G /= sum
	out.B /= sum
	return out, res.Alpha
}

// closeToForeground reports whether some single foreground color, projected alone,
// reconstructs obs within threshold.
func closeToForeground(obs colorful.Color, fg []colorful.Color, bg colorful.Color, threshold float64) bool {
	for _, c := range fg {
		if Distance(c, bg) <= epsilon {
			continue
		}
		w := projectWeight(obs, c, bg)
		if reconstructionError(obs, bg, []colorful.Color{c}, []float64{w}) < threshold {
			return true
		}
	}
	return false
}
