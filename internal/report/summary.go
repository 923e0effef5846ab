// Package report turns a finished run into summaries and export files.
package report

import (
	"sync/atomic"
	"time"

	"loginload/internal/check"
	"loginload/internal/runner"
	"loginload/internal/stats"
)

type Summary struct {
	Scenario        string             `json:"scenario"`
	Duration        time.Duration      `json:"duration"`
	Requests        uint64             `json:"total_requests"`
	Success         uint64             `json:"success"`
	Fail            uint64             `json:"fail"`
	Bytes           uint64             `json:"bytes"`
	Iterations      uint64             `json:"iterations"`
	IterationErrors uint64             `json:"iteration_errors"`
	RPS             float64            `json:"rps"`
	Service         stats.Percentiles  `json:"service"`
	Iteration       stats.Percentiles  `json:"iteration"`
	Checks          []check.Result     `json:"checks,omitempty"`
	Errors          []stats.ErrorCount `json:"errors,omitempty"`
}

// Summarize captures the runner state after a run that took elapsed.
func Summarize(r *runner.Runner, elapsed time.Duration) Summary {
	s := Summary{
		Scenario:        r.Cfg.Scenario,
		Duration:        elapsed,
		Requests:        atomic.LoadUint64(&r.Stats.Requests),
		Success:         atomic.LoadUint64(&r.Stats.Success),
		Fail:            atomic.LoadUint64(&r.Stats.Fail),
		Bytes:           atomic.LoadUint64(&r.Stats.Bytes),
		Iterations:      atomic.LoadUint64(&r.Stats.Iterations),
		IterationErrors: atomic.LoadUint64(&r.Stats.IterationErrors),
		Service:         r.Stats.ServiceTime.Percentiles(),
		Iteration:       r.Stats.IterationTime.Percentiles(),
		Checks:          r.Checks.Summary(),
		Errors:          r.Stats.TopErrors(),
	}
	if r.Scenario != nil {
		s.Scenario = r.Scenario.Name()
	}
	if elapsed > 0 {
		s.RPS = float64(s.Requests) / elapsed.Seconds()
	}
	return s
}

// ChecksPassed reports whether every recorded check passed every time.
func (s Summary) ChecksPassed() bool {
	for _, c := range s.Checks {
		if c.Fails > 0 {
			return false
		}
	}
	return true
}
