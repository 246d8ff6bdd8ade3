package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"
	"sync"
	"time"

	"TrendWave/internal/batch"
	"TrendWave/internal/classifier"
	"TrendWave/internal/collector"
	"TrendWave/internal/metrics"
	"TrendWave/internal/model"
	"TrendWave/internal/notifier"
	"TrendWave/internal/recorder"

	"github.com/robfig/cron/v3"
)

// Sender delivers formatted messages to the chat.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the refresh cycle on a cron schedule and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Params    batch.Params
	Notifier  Sender
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics // optional
	Ctx       context.Context

	refreshID cron.EntryID
	running   sync.Mutex

	mu   sync.RWMutex
	last *model.SignalReport
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, p batch.Params, sender Sender, rec recorder.Recorder, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Params:    p,
		Notifier:  sender,
		Recorder:  rec,
		Metrics:   m,
		Ctx:       ctx,
	}
}

// RegisterAll registers the refresh task.
func (s *Scheduler) RegisterAll(refreshCron string) error {
	id, err := s.Cron.AddFunc(refreshCron, s.refreshTask)
	if err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	s.refreshID = id
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunRefreshNow executes the refresh task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

// LastReport returns the report of the latest completed refresh, or nil.
func (s *Scheduler) LastReport() *model.SignalReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// NextRun returns the next scheduled refresh, or the zero time when none is scheduled.
func (s *Scheduler) NextRun() time.Time {
	if s.refreshID == 0 {
		return time.Time{}
	}
	return s.Cron.Entry(s.refreshID).Next
}

func (s *Scheduler) refreshTask() {
	if _, err := s.Refresh(s.Ctx); err != nil {
		log.Printf("[ERROR] refresh: %v", err)
	}
}

// ErrRefreshRunning is returned when a refresh is requested while another one is in progress.
var ErrRefreshRunning = errors.New("refresh already running")

// Refresh downloads all symbols, runs the indicator, classifies the results,
// then sends, records and observes the report. Download and compute failures
// end up in the report; only cancellation aborts the cycle.
func (s *Scheduler) Refresh(ctx context.Context) (*model.SignalReport, error) {
	if !s.running.TryLock() {
		return nil, ErrRefreshRunning
	}
	defer s.running.Unlock()

	log.Println("[INFO] running refresh")
	start := time.Now()

	series, fetchFailed := s.Collector.CollectAll(ctx)
	report := batch.Evaluate(ctx, series, s.Params)
	for sym, err := range fetchFailed {
		report.Failed[sym] = err.Error()
	}
	if err := ctx.Err(); err != nil {
		if s.Metrics != nil {
			s.Metrics.ObserveFailure()
		}
		return nil, fmt.Errorf("refresh aborted: %w", err)
	}

	rows := classifier.Summary(report)
	dist := classifier.Distribution(report)
	log.Printf("[INFO] refresh done: %d buy, %d sell, %d neutral, %d failed",
		len(report.Buy), len(report.Sell), len(report.Neutral), len(report.Failed))

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	s.trySend(ctx, notifier.FormatReport(report, rows, dist))

	if err := s.Recorder.RecordReport(report, rows); err != nil {
		log.Printf("[ERROR] record report: %v", err)
	}
	if s.Metrics != nil {
		s.Metrics.ObserveReport(report, time.Since(start))
	}
	return report, nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// Group chats address commands as /cmd@BotName.
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch name {
	case "/signals":
		if _, err := s.Refresh(s.Ctx); err != nil {
			return fmt.Sprintf("❌ refresh failed: %v", err)
		}
		return ""
	case "/status":
		return s.statusReply()
	case "/trend":
		if len(fields) < 2 {
			return "Usage: /trend SYMBOL"
		}
		return s.trendReply(strings.ToUpper(fields[1]))
	default:
		return notifier.FormatHelp()
	}
}

// statusReply falls back to the recorder's last stored run until this
// process has completed its own refresh.
func (s *Scheduler) statusReply() string {
	if report := s.LastReport(); report != nil {
		return notifier.FormatStatus(report, s.NextRun())
	}
	if h, ok := s.Recorder.(recorder.RunHistory); ok {
		run, err := h.LastRun()
		if err == nil {
			return notifier.FormatStoredStatus(run, s.NextRun())
		}
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[WARN] read last stored run: %v", err)
		}
	}
	return notifier.FormatStatus(nil, s.NextRun())
}

func (s *Scheduler) trendReply(symbol string) string {
	report := s.LastReport()
	if report == nil {
		return "No refresh has run yet. Send /signals first."
	}
	if snap, ok := report.Snapshots[symbol]; ok {
		return notifier.FormatSnapshot(symbol, snap)
	}
	if reason, ok := report.Failed[symbol]; ok {
		return fmt.Sprintf("⚠️ %s failed in the last refresh: %s", html.EscapeString(symbol), html.EscapeString(reason))
	}
	return fmt.Sprintf("Unknown symbol %s", html.EscapeString(symbol))
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
