package strategy

import (
	"math"

	"TrendWave/internal/model"
)

// maxCount caps both run counters.
const maxCount = 70

// countStep is the counter increment per bar spent in a trend.
const countStep = 0.5

// trendState is the loop-carried tuple of the forward pass.
type trendState struct {
	Direction model.Direction
	CountUp   float64
	CountDown float64
}

// crossedAbove reports a move from at-or-below the band to strictly above it.
// Any NaN operand makes the comparison false.
func crossedAbove(prevPrice, prevBand, price, band float64) bool {
	return prevPrice <= prevBand && price > band
}

// crossedBelow reports a move from at-or-above the band to strictly below it.
func crossedBelow(prevPrice, prevBand, price, band float64) bool {
	return prevPrice >= prevBand && price < band
}

// step advances the trend state by one bar.
func step(prev trendState, sigUp, sigDown bool) trendState {
	next := prev
	switch {
	case sigUp:
		next.Direction = model.Up
	case sigDown:
		next.Direction = model.Down
	}

	switch next.Direction {
	case model.Up:
		next.CountUp = prev.CountUp + countStep
		next.CountDown = 0
	case model.Down:
		next.CountDown = prev.CountDown + countStep
		next.CountUp = 0
	}

	next.CountUp = math.Min(maxCount, next.CountUp)
	next.CountDown = math.Min(maxCount, next.CountDown)
	return next
}

// foldTrend is the strict sequential pass over typical price and the smoothed bands.
// Bar 0 is flat with zero counters.
func foldTrend(typical, upper, lower []float64) []trendState {
	states := make([]trendState, len(typical))
	for i := 1; i < len(typical); i++ {
		sigUp := crossedAbove(typical[i-1], upper[i-1], typical[i], upper[i])
		sigDown := crossedBelow(typical[i-1], lower[i-1], typical[i], lower[i])
		states[i] = step(states[i-1], sigUp, sigDown)
	}
	return states
}

// signalAt derives the crossover signal from the current and previous direction.
func signalAt(prev, cur model.Direction) model.Signal {
	switch {
	case cur == model.Up && prev != model.Up:
		return model.SignalBuy
	case cur == model.Down && prev != model.Down:
		return model.SignalSell
	default:
		return model.SignalNone
	}
}

// plotted applies the visibility rule: the band on the far side of the trend is hidden.
func plotted(dir model.Direction, upper, lower float64) (float64, float64) {
	switch dir {
	case model.Up:
		return math.NaN(), lower
	case model.Down:
		return upper, math.NaN()
	default:
		return upper, lower
	}
}
