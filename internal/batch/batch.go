// Package batch runs the Band Engine over many instruments in parallel and
// turns the per-instrument outcomes into one SignalReport.
package batch

import (
	"context"
	"log"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"TrendWave/internal/classifier"
	"TrendWave/internal/model"
	"TrendWave/internal/strategy"
)

// Params configures one batch run.
type Params struct {
	Length  int
	Factor  float64
	Workers int // <= 0 means runtime.NumCPU()
}

// DefaultParams returns the default indicator parameters.
func DefaultParams() Params {
	return Params{Length: strategy.DefaultLength, Factor: strategy.DefaultFactor}
}

// Result is the outcome of computing one instrument: exactly one of Series and Err is set.
type Result struct {
	Series *model.AnnotatedSeries
	Err    error
}

// ComputeAll runs strategy.Compute for every series on a bounded worker pool.
// A failing instrument never affects the others. Instruments not started before
// ctx is cancelled get ctx.Err() as their result.
func ComputeAll(ctx context.Context, series map[string]model.PriceSeries, p Params) map[string]Result {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var (
		mu      sync.Mutex
		results = make(map[string]Result, len(series))
	)
	g := new(errgroup.Group)
	g.SetLimit(workers)

	for symbol, s := range series {
		g.Go(func() error {
			var r Result
			if err := ctx.Err(); err != nil {
				r.Err = err
			} else {
				if s.Symbol == "" {
					s.Symbol = symbol
				}
				r.Series, r.Err = strategy.Compute(s, p.Length, p.Factor)
			}
			mu.Lock()
			results[symbol] = r
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Split separates successful series from failures.
func Split(results map[string]Result) (map[string]*model.AnnotatedSeries, map[string]error) {
	ok := make(map[string]*model.AnnotatedSeries, len(results))
	failed := make(map[string]error)
	for symbol, r := range results {
		if r.Err != nil {
			failed[symbol] = r.Err
			continue
		}
		ok[symbol] = r.Series
	}
	return ok, failed
}

// Evaluate computes every instrument and classifies the survivors.
// Compute failures are logged and listed in the report's Failed map.
func Evaluate(ctx context.Context, series map[string]model.PriceSeries, p Params) *model.SignalReport {
	ok, failed := Split(ComputeAll(ctx, series, p))
	report := classifier.Classify(ok)
	for symbol, err := range failed {
		log.Printf("[WARN] compute %s: %v", symbol, err)
		report.Failed[symbol] = err.Error()
	}
	return report
}
