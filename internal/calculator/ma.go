package calculator

import (
	"math"

	"TrendWave/internal/model"
)

// RollingMean computes the simple moving average of xs over the given window.
// out[i] is NaN until a full window of defined values ending at i is available.
func RollingMean(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		sum := 0.0
		ok := true
		for _, x := range xs[i-window+1 : i+1] {
			if math.IsNaN(x) {
				ok = false
				break
			}
			sum += x
		}
		if ok {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// Closes extracts the close column.
func Closes(points []model.PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Close
	}
	return out
}

// Highs extracts the high column.
func Highs(points []model.PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.High
	}
	return out
}

// Lows extracts the low column.
func Lows(points []model.PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Low
	}
	return out
}

// TypicalPrices returns (high+low+close)/3 per bar.
func TypicalPrices(points []model.PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = (p.High + p.Low + p.Close) / 3
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
