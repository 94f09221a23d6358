package ta

import "math"

// Mean returns the arithmetic mean of vals, NaN when vals is empty.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// Slope is the ordinary least-squares slope of vals against their index
// 0..n-1. Fewer than two points have no slope and return 0.
func Slope(vals []float64) float64 {
	n := float64(len(vals))
	if n < 2 {
		return 0
	}
	xMean := (n - 1) / 2
	yMean := Mean(vals)
	var num, den float64
	for i, y := range vals {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// MinMax returns the smallest and largest of vals. ok is false for an empty slice.
func MinMax(vals []float64) (lo, hi float64, ok bool) {
	if len(vals) == 0 {
		return 0, 0, false
	}
	lo, hi = vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi, true
}

var (
	saturateMax = math.Nextafter(1, 0)
	saturateMin = math.Nextafter(-1, 0)
)

// Saturate maps x/scale into the open interval (-1, 1) with tanh. tanh
// rounds to exactly ±1 in float64 once |x/scale| passes about 19, so the
// result is clamped one ulp inside the bounds.
func Saturate(x, scale float64) float64 {
	return math.Max(saturateMin, math.Min(saturateMax, math.Tanh(x/scale)))
}
