package model

import "time"

// PricePoint represents a single daily OHLC bar.
type PricePoint struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds the ordered daily bars of one instrument, oldest first.
type PriceSeries struct {
	Symbol    string
	Points    []PricePoint
	FetchedAt time.Time
}

// Len returns the number of bars in the series.
func (s PriceSeries) Len() int { return len(s.Points) }
