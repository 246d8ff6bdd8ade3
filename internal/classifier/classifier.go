package classifier

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"

	"TrendWave/internal/model"
)

// errEmptySeries is returned for an instrument without any annotated rows.
var errEmptySeries = errors.New("empty annotated series")

// Classify buckets each instrument by the signal on its latest row.
// An instrument that cannot be classified is logged, recorded in Failed and left out of every bucket.
func Classify(annotated map[string]*model.AnnotatedSeries) *model.SignalReport {
	report := model.NewSignalReport()

	for _, symbol := range sortedKeys(annotated) {
		snap, err := snapshot(annotated[symbol])
		if err != nil {
			log.Printf("[WARN] classify %s: %v", symbol, err)
			report.Failed[symbol] = err.Error()
			continue
		}
		report.Snapshots[symbol] = snap

		switch snap.Bucket {
		case model.BucketBuy:
			report.Buy = append(report.Buy, symbol)
		case model.BucketSell:
			report.Sell = append(report.Sell, symbol)
		default:
			report.Neutral = append(report.Neutral, symbol)
		}
	}
	return report
}

func snapshot(series *model.AnnotatedSeries) (model.Snapshot, error) {
	latest, ok := series.Latest()
	if !ok {
		return model.Snapshot{}, errEmptySeries
	}
	if math.IsNaN(latest.Close) || math.IsInf(latest.Close, 0) {
		return model.Snapshot{}, fmt.Errorf("latest close is not finite: %v", latest.Close)
	}

	snap := model.Snapshot{
		Price:     latest.Close,
		Direction: latest.Direction,
		CountUp:   latest.CountUp,
		CountDown: latest.CountDown,
		Signal:    latest.Signal,
		AsOf:      latest.Time,
	}
	if latest.Direction == model.Up {
		snap.DaysInTrend = latest.CountUp
	} else {
		snap.DaysInTrend = latest.CountDown
	}
	if !math.IsNaN(latest.UpperPlotted) {
		snap.Upper = floatPtr(latest.UpperBand)
	}
	if !math.IsNaN(latest.LowerPlotted) {
		snap.Lower = floatPtr(latest.LowerBand)
	}

	switch latest.Signal {
	case model.SignalBuy:
		snap.Bucket = model.BucketBuy
		snap.TrendLabel = "uptrend (new)"
	case model.SignalSell:
		snap.Bucket = model.BucketSell
		snap.TrendLabel = "downtrend (new)"
	default:
		snap.Bucket = model.BucketNeutral
		snap.TrendLabel = latest.Direction.Label()
	}
	return snap, nil
}

func floatPtr(v float64) *float64 { return &v }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
