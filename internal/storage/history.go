package storage

import (
	"time"

	"github.com/google/uuid"

	"loginload/internal/report"
	"loginload/internal/runner"
)

// HistoryItem is one finished run.
type HistoryItem struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Config    runner.Config  `json:"config"`
	Summary   report.Summary `json:"summary"`
}

// NewHistoryItem stamps a summary with a fresh id.
func NewHistoryItem(cfg runner.Config, summary report.Summary, at time.Time) HistoryItem {
	return HistoryItem{
		ID:        uuid.New().String(),
		Timestamp: at,
		Config:    cfg,
		Summary:   summary,
	}
}
