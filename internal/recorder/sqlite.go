package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"TrendWave/internal/model"
)

// SQLiteRecorder persists refresh cycles to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signal_runs (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			buy_count     INTEGER,
			sell_count    INTEGER,
			neutral_count INTEGER,
			failed_count  INTEGER,
			failures      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON signal_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS instrument_snapshots (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        INTEGER NOT NULL REFERENCES signal_runs(id),
			symbol        TEXT NOT NULL,
			bucket        TEXT,
			price         REAL,
			direction     INTEGER,
			count_up      REAL,
			count_down    REAL,
			upper_band    REAL,
			lower_band    REAL,
			days_in_trend REAL,
			signal        TEXT,
			trend         TEXT,
			summary_rank  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snap_run ON instrument_snapshots(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_snap_symbol ON instrument_snapshots(symbol)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordReport stores one run row and one snapshot row per classified instrument.
// summary_rank is the position in rows, or -1 when the instrument is not in the table.
func (r *SQLiteRecorder) RecordReport(report *model.SignalReport, rows []model.SummaryRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	failures, err := json.Marshal(report.Failed)
	if err != nil {
		return fmt.Errorf("marshal failures: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO signal_runs
		(timestamp, buy_count, sell_count, neutral_count, failed_count, failures)
		VALUES (?,?,?,?,?,?)`,
		report.GeneratedAt.Unix(), len(report.Buy), len(report.Sell), len(report.Neutral),
		len(report.Failed), string(failures),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	rank := make(map[string]int, len(rows))
	for i, row := range rows {
		rank[row.Symbol] = i
	}

	stmt, err := tx.Prepare(`INSERT INTO instrument_snapshots
		(run_id, symbol, bucket, price, direction, count_up, count_down,
		 upper_band, lower_band, days_in_trend, signal, trend, summary_rank)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare snapshot: %w", err)
	}
	defer stmt.Close()

	for sym, snap := range report.Snapshots {
		pos, ok := rank[sym]
		if !ok {
			pos = -1
		}
		if _, err := stmt.Exec(runID, sym, string(snap.Bucket), finite(snap.Price), int(snap.Direction),
			snap.CountUp, snap.CountDown, snap.Upper, snap.Lower, snap.DaysInTrend,
			snap.Signal.Label(), snap.TrendLabel, pos,
		); err != nil {
			return fmt.Errorf("insert snapshot %s: %w", sym, err)
		}
	}
	return tx.Commit()
}

// LastRun returns the most recent stored run, or sql.ErrNoRows.
func (r *SQLiteRecorder) LastRun() (RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var rec RunRecord
	err := r.db.QueryRow(`SELECT id, timestamp, buy_count, sell_count, neutral_count, failed_count
		FROM signal_runs ORDER BY id DESC LIMIT 1`).
		Scan(&rec.ID, &rec.Timestamp, &rec.BuyCount, &rec.SellCount, &rec.NeutralCount, &rec.FailedCount)
	return rec, err
}

func finite(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
