package recorder

import "TrendWave/internal/model"

// Recorder persists the outcome of each refresh cycle for later analysis.
type Recorder interface {
	RecordReport(report *model.SignalReport, rows []model.SummaryRow) error
	Close() error
}

// RunHistory is implemented by recorders that can read stored runs back.
type RunHistory interface {
	LastRun() (RunRecord, error)
}

// RunRecord is one stored refresh cycle as read back from the store.
type RunRecord struct {
	ID           int64
	Timestamp    int64
	BuyCount     int
	SellCount    int
	NeutralCount int
	FailedCount  int
}
