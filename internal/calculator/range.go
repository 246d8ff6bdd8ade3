package calculator

import "math"

// RollingMax returns the highest value of xs over each trailing window.
// A window containing any NaN yields NaN.
func RollingMax(xs []float64, window int) []float64 {
	return rollingExtreme(xs, window, math.Max)
}

// RollingMin returns the lowest value of xs over each trailing window.
// A window containing any NaN yields NaN.
func RollingMin(xs []float64, window int) []float64 {
	return rollingExtreme(xs, window, math.Min)
}

func rollingExtreme(xs []float64, window int, pick func(a, b float64) float64) []float64 {
	out := nanSlice(len(xs))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		best := xs[i-window+1]
		for _, x := range xs[i-window+2 : i+1] {
			if math.IsNaN(x) {
				best = math.NaN()
				break
			}
			best = pick(best, x)
		}
		out[i] = best
	}
	return out
}

// TrueRange computes max(high-low, |high-prevClose|, |low-prevClose|).
// The first bar has no previous close and is NaN.
func TrueRange(highs, lows, closes []float64) []float64 {
	out := nanSlice(len(closes))
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		out[i] = math.Max(highs[i]-lows[i], math.Max(math.Abs(highs[i]-prev), math.Abs(lows[i]-prev)))
	}
	return out
}

// Add returns a[i]+b[i]; NaN propagates.
func Add(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

// Sub returns a[i]-b[i]; NaN propagates.
func Sub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// Scale returns xs[i]*k.
func Scale(xs []float64, k float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x * k
	}
	return out
}
