package strategy

import (
	"TrendWave/internal/calculator"
	"TrendWave/internal/model"
)

const (
	volatilityWindow = 70
	shortWindow      = 25
	atrWindow        = 100
	// bandWindow is half of the literal 50, independent of the length parameter.
	bandWindow = 50 / 2
	// volatilityScale stays at 1.0 whatever factor is passed in.
	volatilityScale = 1.0
	atrBandMultiple = 5
)

// bandColumns holds the stateless rolling transforms of one series, addressable by bar index.
type bandColumns struct {
	typical    []float64
	volatility []float64
	shortAvg   []float64
	longAvg    []float64
	upperRaw   []float64
	lowerRaw   []float64
	upper      []float64
	lower      []float64
	trueRange  []float64
	atr        []float64
}

// computeBands runs every rolling-window step. No step depends on trend state.
func computeBands(points []model.PricePoint, length int) bandColumns {
	highs := calculator.Highs(points)
	lows := calculator.Lows(points)
	closes := calculator.Closes(points)

	var c bandColumns
	c.typical = calculator.TypicalPrices(points)

	c.volatility = calculator.Sub(
		calculator.RollingMean(highs, volatilityWindow),
		calculator.RollingMean(lows, volatilityWindow),
	)
	c.volatility = calculator.Scale(c.volatility, volatilityScale)

	c.shortAvg = calculator.RollingMean(closes, shortWindow)
	c.longAvg = calculator.RollingMean(closes, length)

	c.upperRaw = calculator.Add(c.shortAvg, c.volatility)
	c.lowerRaw = calculator.Sub(c.longAvg, c.volatility)

	c.upper = calculator.RollingMax(c.upperRaw, bandWindow)
	c.lower = calculator.RollingMin(c.lowerRaw, bandWindow)

	c.trueRange = calculator.TrueRange(highs, lows, closes)
	c.atr = calculator.RollingMean(c.trueRange, atrWindow)
	return c
}
