// Package cli drives a headless run and prints progress and results to a terminal.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"loginload/internal/check"
	"loginload/internal/report"
	"loginload/internal/runner"
)

const rule = "======================================================================"

// Start runs r to completion, printing a progress line while it runs and the
// summary afterwards. Reports are written when the config has an OutPrefix.
func Start(ctx context.Context, r *runner.Runner, out io.Writer) (report.Summary, error) {
	cfg := r.Cfg
	printHeader(out, r)

	done := make(chan error, 1)
	startTime := time.Now()
	go func() {
		done <- r.Run(ctx)
	}()

	ticker := time.NewTicker(200 * time.Millisecond) // Faster updates for progress bar
	defer ticker.Stop()

	totalDuration := cfg.TotalDuration()

	for {
		select {
		case <-r.Updates:
			// Drain updates
		case err := <-done:
			if err != nil {
				fmt.Fprintln(out)
				return report.Summary{}, err
			}
			elapsed := time.Since(startTime)
			s := report.Summarize(r, elapsed)
			PrintSummary(out, s)
			if err := handleAutoReport(out, r, s); err != nil {
				return s, err
			}
			return s, nil
		case <-ticker.C:
			printProgress(out, r.Snapshot(), time.Since(startTime), totalDuration)
		}
	}
}

func printProgress(out io.Writer, snap runner.StatsSnapshot, elapsed, totalDuration time.Duration) {
	rps := 0.0
	if elapsed.Seconds() > 0 {
		rps = float64(snap.Requests) / elapsed.Seconds()
	}

	pct := elapsed.Seconds() / totalDuration.Seconds()
	if pct > 1.0 {
		pct = 1.0
	}

	if elapsed >= totalDuration && snap.Inflight > 0 {
		fmt.Fprintf(out, "\r%s %3.0f%% | %s/%s | Draining: %d iterations...                ",
			progressBar(1.0, 20), 100.0,
			elapsed.Round(time.Second), totalDuration,
			snap.Inflight)
		return
	}

	fmt.Fprintf(out, "\r%s %3.0f%% | %s/%s | VUs: %3d | RPS: %.1f | OK: %d | Err: %d | Checks: %d/%d",
		progressBar(pct, 20), pct*100,
		elapsed.Round(time.Second), totalDuration,
		snap.ActiveVUs,
		rps,
		snap.Success,
		snap.Fail,
		snap.ChecksPassed, snap.ChecksPassed+snap.ChecksFailed,
	)
}

func printHeader(out io.Writer, r *runner.Runner) {
	cfg := r.Cfg
	name := cfg.Scenario
	if r.Scenario != nil {
		name = r.Scenario.Name()
	}
	target := cfg.Target
	if target == "" {
		target = "(scenario default)"
	}

	fmt.Fprintf(out, "\n🚀 STARTING LOGINLOAD RUN\n")
	fmt.Fprintf(out, "%s\n", rule)
	fmt.Fprintf(out, "Scenario   : %s\n", name)
	fmt.Fprintf(out, "Target URL : %s\n", target)
	if cfg.Mode == runner.ModeUsers {
		fmt.Fprintf(out, "Mode       : users (%d VUs, think %s)\n", cfg.NumUsers, cfg.ThinkTime)
	} else {
		fmt.Fprintf(out, "Mode       : rps (%d iterations/s)\n", cfg.TargetRPS)
	}
	fmt.Fprintf(out, "Duration   : %ds (Steady) + %ds (RampUp) + %ds (RampDown)\n", cfg.SteadyDur, cfg.RampUp, cfg.RampDown)
	if cfg.MaxIterations > 0 {
		fmt.Fprintf(out, "Iterations : max %d\n", cfg.MaxIterations)
	}
	fmt.Fprintf(out, "Timeout    : %ds\n", cfg.TimeoutSec)
	fmt.Fprintf(out, "%s\n\n", rule)
}

func progressBar(pct float64, width int) string {
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("-", width-filled) + "]"
}

// PrintSummary writes the end-of-run report, checks included.
func PrintSummary(out io.Writer, s report.Summary) {
	fmt.Fprintf(out, "\n\n📊 RUN RESULTS (%s)\n", s.Scenario)
	fmt.Fprintf(out, "%s\n", rule)
	fmt.Fprintf(out, "Total Duration : %s\n", s.Duration.Round(time.Second))
	fmt.Fprintf(out, "Iterations     : %d (%d errored)\n", s.Iterations, s.IterationErrors)
	fmt.Fprintf(out, "Requests Sent  : %d\n", s.Requests)
	fmt.Fprintf(out, "Success        : %d\n", s.Success)
	fmt.Fprintf(out, "Failures       : %d\n", s.Fail)
	fmt.Fprintf(out, "Actual RPS     : %.2f\n", s.RPS)
	fmt.Fprintf(out, "\n⏱️  RESPONSE TIMES (ms)\n")
	fmt.Fprintf(out, "   P50 : %.2f\n", s.Service.P50)
	fmt.Fprintf(out, "   P90 : %.2f\n", s.Service.P90)
	fmt.Fprintf(out, "   P95 : %.2f\n", s.Service.P95)
	fmt.Fprintf(out, "   P99 : %.2f\n", s.Service.P99)
	fmt.Fprintf(out, "   Max : %.2f\n", s.Service.Max)

	if len(s.Checks) > 0 {
		fmt.Fprintf(out, "\n✅ CHECKS\n")
		for _, c := range s.Checks {
			fmt.Fprint(out, formatCheck(c))
		}
	}

	if len(s.Errors) > 0 {
		fmt.Fprintf(out, "\n❌ FAILURE SUMMARY\n")
		for _, e := range s.Errors {
			fmt.Fprintf(out, "   %d x %s\n", e.Count, e.Message)
		}
	}
	fmt.Fprintf(out, "%s\n", rule)
}

func formatCheck(c check.Result) string {
	mark := "✓"
	if c.Fails > 0 {
		mark = "✗"
	}
	line := fmt.Sprintf("   %s %s\n", mark, c.Name)
	if c.Fails > 0 {
		line += fmt.Sprintf("    ↳  %.0f%% - ✓ %d / ✗ %d\n", c.Rate(), c.Passes, c.Fails)
	}
	return line
}

func handleAutoReport(out io.Writer, r *runner.Runner, s report.Summary) error {
	prefix := r.Cfg.OutPrefix
	results := r.ResultsCopy()
	if prefix == "" || len(results) == 0 {
		return nil
	}

	fmt.Fprintf(out, "\n💾 Generating reports with prefix: %s\n", prefix)
	if err := report.WriteAll(prefix, results, s); err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ Reports saved to %s.{csv,json,_summary.json,_timeline.json}\n", prefix)
	return nil
}
