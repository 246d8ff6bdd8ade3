package recorder

import "TrendWave/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordReport(_ *model.SignalReport, _ []model.SummaryRow) error { return nil }
func (n *NoopRecorder) Close() error                                                    { return nil }
