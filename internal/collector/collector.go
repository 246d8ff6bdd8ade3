package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sort"
	"time"

	"TrendWave/internal/model"
)

// ErrNoData is returned when a provider answers without any bars.
var ErrNoData = errors.New("no data returned")

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price  float64
	Bars   map[string][]model.PricePoint
	Errors map[string]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol string, days int) ([]model.PricePoint, error) {
	if err, ok := m.Errors[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	return generateMockBars(m.Price, days), nil
}

func generateMockBars(basePrice float64, count int) []model.PricePoint {
	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -count)
	bars := make([]model.PricePoint, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.PricePoint{
			Time:   start.AddDate(0, 0, i),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector fetches the price history of a symbol list.
type Collector struct {
	Fetcher Fetcher
	Symbols []string
	Days    int
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbols []string, days int) *Collector {
	return &Collector{Fetcher: fetcher, Symbols: symbols, Days: days}
}

// CollectAll downloads every symbol. Symbols that fail or return no bars are
// reported in the error map and left out of the series map.
func (c *Collector) CollectAll(ctx context.Context) (map[string]model.PriceSeries, map[string]error) {
	series := make(map[string]model.PriceSeries, len(c.Symbols))
	failed := make(map[string]error)

	for _, sym := range c.Symbols {
		if err := ctx.Err(); err != nil {
			failed[sym] = err
			continue
		}
		bars, err := c.Fetcher.FetchDailyBars(ctx, sym, c.Days)
		if err != nil {
			log.Printf("[ERROR] fetch %s from %s: %v", sym, c.Fetcher.Name(), err)
			failed[sym] = err
			continue
		}
		if len(bars) == 0 {
			log.Printf("[ERROR] no data available for %s", sym)
			failed[sym] = fmt.Errorf("%s: %w", sym, ErrNoData)
			continue
		}
		series[sym] = model.PriceSeries{Symbol: sym, Points: bars, FetchedAt: time.Now()}
		log.Printf("[INFO] downloaded %d bars for %s", len(bars), sym)
	}
	return series, failed
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// normalize sorts bars chronologically and keeps the last bar of each calendar day.
func normalize(bars []model.PricePoint) []model.PricePoint {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && sameDay(out[n-1].Time, b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
