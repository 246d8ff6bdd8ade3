package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendWave/internal/model"
	"TrendWave/internal/strategy"
)

func makeSeries(symbol string, n int, delta float64) model.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]model.PricePoint, n)
	for i := range points {
		c := 100.0
		if i >= 100 {
			c += delta * float64(i-99)
		}
		points[i] = model.PricePoint{
			Time: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 500,
		}
	}
	return model.PriceSeries{Symbol: symbol, Points: points}
}

func TestComputeAll_MatchesSequential(t *testing.T) {
	input := make(map[string]model.PriceSeries)
	for i := 0; i < 20; i++ {
		sym := fmt.Sprintf("SYM%02d", i)
		input[sym] = makeSeries(sym, 120+i, float64(i%3-1))
	}

	for _, workers := range []int{1, 4, 0} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			results := ComputeAll(context.Background(), input, Params{Length: 50, Factor: 1, Workers: workers})
			require.Len(t, results, len(input))
			for sym, s := range input {
				want, err := strategy.Compute(s, 50, 1)
				require.NoError(t, err)
				got := results[sym]
				require.NoError(t, got.Err)
				assert.Equal(t, fmt.Sprintf("%v", want.Points), fmt.Sprintf("%v", got.Series.Points), sym)
			}
		})
	}
}

func TestComputeAll_FailureIsolation(t *testing.T) {
	bad := makeSeries("DUP", 120, 1)
	bad.Points[50].Time = bad.Points[49].Time

	results := ComputeAll(context.Background(), map[string]model.PriceSeries{
		"GOOD":  makeSeries("GOOD", 120, 1),
		"SHORT": makeSeries("SHORT", 60, 1),
		"DUP":   bad,
	}, DefaultParams())

	assert.NoError(t, results["GOOD"].Err)
	assert.NotNil(t, results["GOOD"].Series)
	assert.ErrorIs(t, results["SHORT"].Err, strategy.ErrInsufficientData)
	assert.ErrorIs(t, results["DUP"].Err, strategy.ErrMalformedSeries)
	assert.Nil(t, results["DUP"].Series)
}

func TestComputeAll_FillsMissingSymbol(t *testing.T) {
	s := makeSeries("", 120, 1)
	results := ComputeAll(context.Background(), map[string]model.PriceSeries{"ANON": s}, DefaultParams())
	require.NoError(t, results["ANON"].Err)
	assert.Equal(t, "ANON", results["ANON"].Series.Symbol)
}

func TestComputeAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := ComputeAll(ctx, map[string]model.PriceSeries{
		"A": makeSeries("A", 120, 1),
		"B": makeSeries("B", 120, -1),
	}, DefaultParams())
	for sym, r := range results {
		assert.Truef(t, errors.Is(r.Err, context.Canceled), "%s: %v", sym, r.Err)
	}
}

func TestSplit(t *testing.T) {
	boom := errors.New("boom")
	ok, failed := Split(map[string]Result{
		"A": {Series: &model.AnnotatedSeries{Symbol: "A"}},
		"B": {Err: boom},
	})
	assert.Len(t, ok, 1)
	assert.Equal(t, map[string]error{"B": boom}, failed)
}

func TestEvaluate(t *testing.T) {
	report := Evaluate(context.Background(), map[string]model.PriceSeries{
		"RISE":  makeSeries("RISE", 103, 1),
		"FALL":  makeSeries("FALL", 103, -1),
		"FLAT":  makeSeries("FLAT", 120, 0),
		"SHORT": makeSeries("SHORT", 10, 0),
	}, DefaultParams())

	assert.Equal(t, []string{"RISE"}, report.Buy)
	assert.Equal(t, []string{"FALL"}, report.Sell)
	assert.Equal(t, []string{"FLAT"}, report.Neutral)
	require.Contains(t, report.Failed, "SHORT")
	assert.Contains(t, report.Failed["SHORT"], "insufficient data")
	assert.NotContains(t, report.Snapshots, "SHORT")
}
