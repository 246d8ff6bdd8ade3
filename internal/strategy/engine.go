package strategy

import (
	"fmt"

	"TrendWave/internal/model"
)

const (
	// DefaultLength is the long average window.
	DefaultLength = 50
	// DefaultFactor is the nominal volatility multiplier.
	DefaultFactor = 1.0
)

// RequiredBars returns the minimum series length Compute accepts for the given length.
func RequiredBars(length int) int {
	if length > atrWindow {
		return length
	}
	return atrWindow
}

// Compute calculates TrendWave Bands over a daily series.
// It is a pure function of its inputs; the series is not modified.
//
// factor is accepted for call compatibility but volatility is always scaled by 1.0.
func Compute(series model.PriceSeries, length int, factor float64) (*model.AnnotatedSeries, error) {
	_ = factor
	if length <= 0 {
		return nil, fmt.Errorf("%w: length must be positive, got %d", ErrInvalidParameter, length)
	}
	if n, need := series.Len(), RequiredBars(length); n < need {
		return nil, fmt.Errorf("%w: %s has %d bars, need %d", ErrInsufficientData, series.Symbol, n, need)
	}
	if err := Validate(series); err != nil {
		return nil, fmt.Errorf("%s: %w", series.Symbol, err)
	}

	cols := computeBands(series.Points, length)
	states := foldTrend(cols.typical, cols.upper, cols.lower)

	points := make([]model.AnnotatedPoint, len(series.Points))
	for i, p := range series.Points {
		st := states[i]
		ap := model.AnnotatedPoint{
			PricePoint:       p,
			TypicalPrice:     cols.typical[i],
			Volatility:       cols.volatility[i],
			ShortAverage:     cols.shortAvg[i],
			LongAverage:      cols.longAvg[i],
			UpperRaw:         cols.upperRaw[i],
			LowerRaw:         cols.lowerRaw[i],
			UpperBand:        cols.upper[i],
			LowerBand:        cols.lower[i],
			TrueRange:        cols.trueRange[i],
			AverageTrueRange: cols.atr[i],
			Direction:        st.Direction,
			CountUp:          st.CountUp,
			CountDown:        st.CountDown,
			UpperBand2:       cols.lower[i] + cols.atr[i]*atrBandMultiple,
			LowerBand2:       cols.upper[i] - cols.atr[i]*atrBandMultiple,
		}
		ap.UpperPlotted, ap.LowerPlotted = plotted(st.Direction, cols.upper[i], cols.lower[i])
		if i > 0 {
			ap.Signal = signalAt(states[i-1].Direction, st.Direction)
		}
		points[i] = ap
	}

	return &model.AnnotatedSeries{Symbol: series.Symbol, Points: points}, nil
}
