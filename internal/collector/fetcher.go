package collector

import (
	"context"

	"TrendWave/internal/model"
)

// Fetcher defines the interface for fetching daily price history.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.PricePoint, error)
	Name() string
}
