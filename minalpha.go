package bgunmix

import "github.com/lucasb-eyer/go-colorful"

const alphaScanSteps = 1000

// MinimumAlpha finds the smallest alpha in (0,1] for which some foreground color with
// every channel in [0,1] satisfies obs = alpha*fg + (1-alpha)*bg.
//
// The eight corners of the color cube are solved exactly; a scan in steps of 1/1000
// then looks for a smaller alpha below the best corner. When neither succeeds the
// result is alpha 1 with fg = obs, which always reconstructs exactly.
func MinimumAlpha(obs, bg colorful.Color) (colorful.Color, float64) {
	bestFg := obs
	bestAlpha := 1.0

	o := [3]float64{obs.R, obs.G, obs.B}
	b := [3]float64{bg.R, bg.G, bg.B}

	for corner := range 8 {
		fg := [3]float64{
			float64(corner >> 2 & 1),
			float64(corner >> 1 & 1),
			float64(corner & 1),
		}
		alpha, ok := cornerAlpha(o, b, fg)
		if !ok || alpha <= 0 || alpha > 1 || alpha >= bestAlpha {
			continue
		}
		bestAlpha = alpha
		bestFg = colorful.Color{R: fg[0], G: fg[1], B: fg[2]}
	}

	for step := 1; step <= alphaScanSteps; step++ {
		alpha := float64(step) / alphaScanSteps
		if alpha >= bestAlpha {
			break
		}
		var fg [3]float64
		valid := true
		for i := range 3 {
			fg[i] = (o[i] - (1-alpha)*b[i]) / alpha
			if fg[i] < 0 || fg[i] > 1 {
				valid = false
				break
			}
		}
		if valid {
			bestAlpha = alpha
			bestFg = colorful.Color{R: fg[0], G: fg[1], B: fg[2]}
			break
		}
	}

	return bestFg, bestAlpha
}

// cornerAlpha returns the single alpha that blends fg over bg into obs, if every
// channel agrees on one.
func cornerAlpha(obs, bg, fg [3]float64) (float64, bool) {
	alpha := 0.0
	set := false
	for i := range 3 {
		denom := fg[i] - bg[i]
		if denom > -epsilon && denom < epsilon {
			// any alpha satisfies this channel, but only if obs sits on the background too
			if d := obs[i] - bg[i]; d > epsilon || d < -epsilon {
				return 0, false
			}
			continue
		}
		a := (obs[i] - bg[i]) / denom
		if !set {
			alpha, set = a, true
			continue
		}
		if d := a - alpha; d > epsilon || d < -epsilon {
			return 0, false
		}
	}
	if !set {
		return 0, false
	}
	for i := range 3 {
		rec := alpha*fg[i] + (1-alpha)*bg[i]
		if d := rec - obs[i]; d > epsilon || d < -epsilon {
			return 0, false
		}
	}
	return alpha, true
}
