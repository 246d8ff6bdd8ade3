package model

import "time"

// Bucket is the classification of an instrument in one refresh cycle.
type Bucket string

const (
	BucketBuy     Bucket = "BUY"
	BucketSell    Bucket = "SELL"
	BucketNeutral Bucket = "NEUTRAL"
)

// Snapshot is the per-instrument view taken from the latest annotated row.
type Snapshot struct {
	Price       float64   `json:"price"`
	Direction   Direction `json:"direction"`
	CountUp     float64   `json:"count_up"`
	CountDown   float64   `json:"count_down"`
	Upper       *float64  `json:"upper,omitempty"` // nil when the upper band is hidden
	Lower       *float64  `json:"lower,omitempty"` // nil when the lower band is hidden
	DaysInTrend float64   `json:"days_in_trend"`
	Signal      Signal    `json:"signal"`
	TrendLabel  string    `json:"trend"`
	Bucket      Bucket    `json:"bucket"`
	AsOf        time.Time `json:"as_of"`
}

// SignalReport is the aggregate of one refresh cycle. It is rebuilt from scratch every cycle.
type SignalReport struct {
	Buy         []string
	Sell        []string
	Neutral     []string
	Snapshots   map[string]Snapshot
	Failed      map[string]string
	GeneratedAt time.Time
}

// NewSignalReport returns an empty report with initialized maps.
func NewSignalReport() *SignalReport {
	return &SignalReport{
		Snapshots:   make(map[string]Snapshot),
		Failed:      make(map[string]string),
		GeneratedAt: time.Now(),
	}
}

// SummaryRow is one line of the sorted summary table.
type SummaryRow struct {
	Symbol      string
	Price       float64
	Trend       string
	DaysInTrend float64
	Signal      string
}

// Distribution counts instruments per display category.
type Distribution struct {
	Buy       int
	Sell      int
	Uptrend   int
	Downtrend int
	Neutral   int
}

// Total returns the number of classified instruments.
func (d Distribution) Total() int {
	return d.Buy + d.Sell + d.Uptrend + d.Downtrend + d.Neutral
}
