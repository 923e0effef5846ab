// Package tui is the live dashboard for a run.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"loginload/internal/report"
	"loginload/internal/runner"
	"loginload/internal/storage"
	"loginload/internal/tui/live"
	"loginload/internal/tui/result"
	"loginload/internal/tui/styles"
)

// Saver persists finished runs. *storage.Store satisfies it.
type Saver interface {
	Save(item storage.HistoryItem) error
}

type ClearStatusMsg struct{}

type runDoneMsg struct {
	err     error
	elapsed time.Duration
}

func clearStatusCmd() tea.Cmd {
	return tea.Tick(3*time.Second, func(_ time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

type Model struct {
	Runner *runner.Runner
	Store  Saver

	// Core State
	RunActive bool
	RunCtx    context.Context
	RunCancel context.CancelFunc
	quitting  bool

	Err     error
	Summary *report.Summary

	Live   live.Model
	Result result.Model

	// Layout
	Width  int
	Height int

	// Feedback
	StatusMsg string
}

// NewModel prepares a dashboard that starts r when the program starts. store may be nil.
func NewModel(ctx context.Context, r *runner.Runner, store Saver) Model {
	runCtx, cancel := context.WithCancel(ctx)
	return Model{
		Runner:    r,
		Store:     store,
		RunActive: true,
		RunCtx:    runCtx,
		RunCancel: cancel,
		Live:      live.NewModel(r.Cfg.TotalDuration()),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		runCmd(m.RunCtx, m.Runner),
		waitForUpdate(m.Runner.Updates),
	)
}

func runCmd(ctx context.Context, r *runner.Runner) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		err := r.Run(ctx)
		return runDoneMsg{err: err, elapsed: time.Since(start)}
	}
}

func waitForUpdate(sub runner.StatsUpdateChan) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case ClearStatusMsg:
		m.StatusMsg = ""
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.RunActive {
				// wait for in-flight iterations before leaving
				m.quitting = true
				m.RunCancel()
				m.StatusMsg = "Stopping..."
				return m, nil
			}
			return m, tea.Quit

		case "ctrl+s": // Stop
			if m.RunActive {
				m.RunCancel()
				m.StatusMsg = "Stopping..."
			}
			return m, nil

		case "ctrl+p": // Export
			m.StatusMsg = m.export()
			return m, clearStatusCmd()
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Live, _ = m.Live.Update(msg)
		m.Result, _ = m.Result.Update(msg)
		return m, nil

	case runner.StatsSnapshot:
		var c tea.Cmd
		m.Live, c = m.Live.Update(msg)
		cmds = append(cmds, c)
		if m.RunActive {
			cmds = append(cmds, waitForUpdate(m.Runner.Updates))
		}
		return m, tea.Batch(cmds...)

	case runDoneMsg:
		m.RunActive = false
		m.RunCancel()
		if msg.err != nil {
			m.Err = msg.err
			m.StatusMsg = fmt.Sprintf("Run failed: %v", msg.err)
		} else {
			s := report.Summarize(m.Runner, msg.elapsed)
			m.Summary = &s
			m.Result = result.NewModel(s)
			m.Result.Width, m.Result.Height = m.Width, m.Height
			m.StatusMsg = m.saveHistory(s)
		}
		if m.quitting {
			return m, tea.Quit
		}
		return m, clearStatusCmd()
	}

	// Forward everything else (progress frames) to the live view.
	var c tea.Cmd
	m.Live, c = m.Live.Update(msg)
	return m, c
}

func (m Model) saveHistory(s report.Summary) string {
	if m.Store == nil {
		return "Run complete."
	}
	item := storage.NewHistoryItem(m.Runner.Cfg, s, time.Now())
	if err := m.Store.Save(item); err != nil {
		return fmt.Sprintf("Error saving history: %v", err)
	}
	return "History saved."
}

func (m Model) export() string {
	if m.Summary == nil {
		return "No results to export yet."
	}
	results := m.Runner.ResultsCopy()
	if len(results) == 0 {
		return "No results to export yet."
	}
	base := m.Runner.Cfg.OutPrefix
	if base == "" {
		base = fmt.Sprintf("loginload_report_%s", time.Now().Format("20060102-150405"))
	}
	if err := report.WriteAll(base, results, *m.Summary); err != nil {
		return fmt.Sprintf("Export Failed: %v", err)
	}
	return fmt.Sprintf("Exported to %s.{csv,json}", base)
}

func (m Model) View() string {
	if m.Width == 0 {
		return "Loading..."
	}

	s := strings.Builder{}

	// Header
	cfg := m.Runner.Cfg
	name := cfg.Scenario
	if m.Runner.Scenario != nil {
		name = m.Runner.Scenario.Name()
	}
	s.WriteString(styles.Title.Render("🚀 loginload · " + name))
	s.WriteString("\n")
	if cfg.Mode == runner.ModeUsers {
		s.WriteString(fmt.Sprintf("Mode: %s | Users: %d | ThinkTime: %s\n", cfg.Mode, cfg.NumUsers, cfg.ThinkTime))
	} else {
		s.WriteString(fmt.Sprintf("Mode: %s | Target RPS: %d\n", cfg.Mode, cfg.TargetRPS))
	}
	if cfg.Target != "" {
		s.WriteString(fmt.Sprintf("URL: %s\n", cfg.Target))
	}
	s.WriteString("\n")

	// Content
	switch {
	case m.Summary != nil:
		s.WriteString(m.Result.View())
	case m.Err != nil:
		s.WriteString(styles.Error.Render(m.Err.Error()))
	default:
		s.WriteString(m.Live.View())
	}
	s.WriteString("\n\n")

	if m.StatusMsg != "" {
		s.WriteString(styles.Box.BorderForeground(styles.ColorHighlight).Render(m.StatusMsg))
		s.WriteString("\n")
	}

	keys := []string{
		styles.RenderKey("Ctrl+S", "Stop"),
		styles.RenderKey("Ctrl+P", "Export"),
		styles.RenderKey("q", "Quit"),
	}
	s.WriteString(styles.FooterBase.Width(m.Width).Render(strings.Join(keys, "   ")))

	return lipgloss.NewStyle().MaxWidth(m.Width).Render(s.String())
}
