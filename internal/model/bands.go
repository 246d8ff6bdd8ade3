package model

// Direction is the loop-carried trend state of an instrument.
type Direction int8

const (
	Flat Direction = 0
	Up   Direction = 1
	Down Direction = -1
)

// Label returns the trend label used in reports.
func (d Direction) Label() string {
	switch d {
	case Up:
		return "uptrend"
	case Down:
		return "downtrend"
	default:
		return "neutral"
	}
}

// Signal is the crossover event fired on the bar where Direction changes.
type Signal int8

const (
	SignalNone Signal = 0
	SignalBuy  Signal = 1
	SignalSell Signal = -1
)

// Label returns BUY, SELL or HOLD.
func (s Signal) Label() string {
	switch s {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// AnnotatedPoint is one PricePoint plus every TrendWave column.
// Undefined values (rolling windows still warming up, hidden bands) are NaN.
type AnnotatedPoint struct {
	PricePoint

	TypicalPrice float64
	Volatility   float64
	ShortAverage float64
	LongAverage  float64

	UpperRaw  float64
	LowerRaw  float64
	UpperBand float64
	LowerBand float64

	TrueRange        float64
	AverageTrueRange float64

	Direction Direction
	CountUp   float64
	CountDown float64

	UpperPlotted float64
	LowerPlotted float64

	// Extended wave bands, cosmetic only.
	UpperBand2 float64
	LowerBand2 float64

	Signal Signal
}

// AnnotatedSeries is the Band Engine output for one instrument.
type AnnotatedSeries struct {
	Symbol string
	Points []AnnotatedPoint
}

// Latest returns the last row, or false for an empty series.
func (s *AnnotatedSeries) Latest() (AnnotatedPoint, bool) {
	if s == nil || len(s.Points) == 0 {
		return AnnotatedPoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Previous returns the second-to-last row, or false when there is none.
func (s *AnnotatedSeries) Previous() (AnnotatedPoint, bool) {
	if s == nil || len(s.Points) < 2 {
		return AnnotatedPoint{}, false
	}
	return s.Points[len(s.Points)-2], true
}
