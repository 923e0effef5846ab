package result

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"loginload/internal/report"
	"loginload/internal/tui/styles"
)

type Model struct {
	Summary report.Summary

	Width  int
	Height int
}

func NewModel(s report.Summary) Model {
	return Model{Summary: s}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
	}
	return m, nil
}

func (m Model) View() string {
	s := strings.Builder{}
	sum := m.Summary

	s.WriteString(styles.Title.Render("📊 Run Complete"))
	s.WriteString("\n\n")

	// 1. Overview
	s.WriteString(styles.Active.Render("Overview"))
	s.WriteString("\n")

	overview := fmt.Sprintf(
		"Iterations:     %d (%d errored)\nTotal Requests: %d\nSuccess:        %d\nFailed:         %d\nTotal Bytes:    %d\nActual RPS:     %.2f",
		sum.Iterations, sum.IterationErrors, sum.Requests, sum.Success, sum.Fail, sum.Bytes, sum.RPS,
	)
	s.WriteString(styles.Box.Render(overview))
	s.WriteString("\n\n")

	// 2. Latency
	s.WriteString(styles.Active.Render("Latency (Service Time)"))
	s.WriteString("\n")

	latency := fmt.Sprintf(
		"Avg: %.2f ms\nP50: %.2f ms\nP90: %.2f ms\nP99: %.2f ms\nMax: %.2f ms",
		sum.Service.Mean, sum.Service.P50, sum.Service.P90, sum.Service.P99, sum.Service.Max,
	)
	s.WriteString(styles.Box.Render(latency))

	// 3. Checks
	if len(sum.Checks) > 0 {
		s.WriteString("\n\n")
		s.WriteString(styles.Active.Render("Checks"))
		s.WriteString("\n")

		lines := make([]string, 0, len(sum.Checks))
		for _, c := range sum.Checks {
			lines = append(lines, styles.RenderCheck(c.Name, c.Passes, c.Fails))
		}
		s.WriteString(styles.Box.Render(strings.Join(lines, "\n")))
	}

	s.WriteString("\n\n")
	s.WriteString(styles.Subtle.Render("Press q to quit"))

	return s.String()
}
