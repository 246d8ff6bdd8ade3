// Package metrics exposes Prometheus metrics for the refresh cycle.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"TrendWave/internal/model"
)

// Metrics holds all Prometheus metrics of the bot.
type Metrics struct {
	Registry *prometheus.Registry

	RefreshTotal     *prometheus.CounterVec // labels: result=ok|error
	InstrumentsTotal *prometheus.CounterVec // labels: outcome=classified|failed
	SignalsTotal     *prometheus.CounterVec // labels: signal=buy|sell
	BucketSize       *prometheus.GaugeVec   // labels: bucket
	RefreshDuration  prometheus.Histogram
	LastRefresh      prometheus.Gauge

	mu         sync.RWMutex
	lastReport time.Time
	lastFailed int
	lastTotal  int
}

// NewMetrics creates and registers all metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trendwave_refresh_total",
			Help: "Refresh cycles by result",
		}, []string{"result"}),
		InstrumentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trendwave_instruments_total",
			Help: "Instruments processed by outcome",
		}, []string{"outcome"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trendwave_signals_total",
			Help: "Fresh buy and sell signals emitted",
		}, []string{"signal"}),
		BucketSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "trendwave_bucket_instruments",
			Help: "Instruments per bucket in the latest report",
		}, []string{"bucket"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trendwave_refresh_duration_seconds",
			Help:    "Wall time of one refresh cycle (download, compute, classify)",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		LastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trendwave_last_refresh_timestamp_seconds",
			Help: "Unix time of the latest completed refresh",
		}),
	}

	m.Registry.MustRegister(
		m.RefreshTotal,
		m.InstrumentsTotal,
		m.SignalsTotal,
		m.BucketSize,
		m.RefreshDuration,
		m.LastRefresh,
	)
	return m
}

// ObserveReport records one completed refresh cycle.
func (m *Metrics) ObserveReport(report *model.SignalReport, duration time.Duration) {
	m.RefreshTotal.WithLabelValues("ok").Inc()
	m.InstrumentsTotal.WithLabelValues("classified").Add(float64(len(report.Snapshots)))
	m.InstrumentsTotal.WithLabelValues("failed").Add(float64(len(report.Failed)))
	m.SignalsTotal.WithLabelValues("buy").Add(float64(len(report.Buy)))
	m.SignalsTotal.WithLabelValues("sell").Add(float64(len(report.Sell)))
	m.BucketSize.WithLabelValues(string(model.BucketBuy)).Set(float64(len(report.Buy)))
	m.BucketSize.WithLabelValues(string(model.BucketSell)).Set(float64(len(report.Sell)))
	m.BucketSize.WithLabelValues(string(model.BucketNeutral)).Set(float64(len(report.Neutral)))
	m.RefreshDuration.Observe(duration.Seconds())
	m.LastRefresh.Set(float64(report.GeneratedAt.Unix()))

	m.mu.Lock()
	m.lastReport = report.GeneratedAt
	m.lastFailed = len(report.Failed)
	m.lastTotal = len(report.Snapshots) + len(report.Failed)
	m.mu.Unlock()
}

// ObserveFailure records a refresh cycle that produced no report.
func (m *Metrics) ObserveFailure() {
	m.RefreshTotal.WithLabelValues("error").Inc()
}

// Handler returns the /metrics handler for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ServeHealth handles /healthz. It is degraded before the first refresh and
// when every instrument of the latest refresh failed.
func (m *Metrics) ServeHealth(w http.ResponseWriter, _ *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := "healthy"
	code := http.StatusOK
	if m.lastReport.IsZero() || (m.lastTotal > 0 && m.lastFailed == m.lastTotal) {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	body := struct {
		Status      string `json:"status"`
		LastRefresh string `json:"last_refresh,omitempty"`
		Instruments int    `json:"instruments"`
		Failed      int    `json:"failed"`
	}{
		Status:      status,
		Instruments: m.lastTotal,
		Failed:      m.lastFailed,
	}
	if !m.lastReport.IsZero() {
		body.LastRefresh = m.lastReport.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	srv *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, m *Metrics) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", m.ServeHealth)
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		log.Printf("[INFO] metrics server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] metrics server: %v", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
