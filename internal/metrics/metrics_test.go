package metrics

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendWave/internal/model"
)

func report() *model.SignalReport {
	r := model.NewSignalReport()
	r.GeneratedAt = time.Unix(1760459400, 0)
	r.Buy = []string{"A", "B"}
	r.Neutral = []string{"C"}
	for _, s := range []string{"A", "B", "C"} {
		r.Snapshots[s] = model.Snapshot{}
	}
	r.Failed["D"] = "boom"
	return r
}

func TestObserveReport(t *testing.T) {
	m := NewMetrics()
	m.ObserveReport(report(), 2*time.Second)
	m.ObserveReport(report(), time.Second)
	m.ObserveFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RefreshTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshTotal.WithLabelValues("error")))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.InstrumentsTotal.WithLabelValues("classified")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.InstrumentsTotal.WithLabelValues("failed")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.SignalsTotal.WithLabelValues("buy")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SignalsTotal.WithLabelValues("sell")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BucketSize.WithLabelValues("BUY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BucketSize.WithLabelValues("NEUTRAL")))
	assert.Equal(t, 1760459400.0, testutil.ToFloat64(m.LastRefresh))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RefreshDuration))
}

func TestHandler(t *testing.T) {
	m := NewMetrics()
	m.ObserveReport(report(), time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `trendwave_signals_total{signal="buy"} 2`)
	assert.Contains(t, string(body), "trendwave_refresh_duration_seconds_count 1")
}

func TestServeHealth(t *testing.T) {
	tests := []struct {
		name    string
		observe func(m *Metrics)
		code    int
		status  string
	}{
		{"before first refresh", func(*Metrics) {}, http.StatusServiceUnavailable, "degraded"},
		{"partial failure", func(m *Metrics) { m.ObserveReport(report(), time.Second) }, http.StatusOK, "healthy"},
		{"all failed", func(m *Metrics) {
			r := model.NewSignalReport()
			r.Failed["X"] = "down"
			m.ObserveReport(r, time.Second)
		}, http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMetrics()
			tt.observe(m)

			rec := httptest.NewRecorder()
			m.ServeHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, tt.code, rec.Code)

			var body map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.status, body["status"])
		})
	}
}
