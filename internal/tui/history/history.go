package history

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"loginload/internal/storage"
	"loginload/internal/tui/styles"
)

type Model struct {
	Items []storage.HistoryItem
	Table table.Model

	// Selected is set when a row is chosen with enter.
	Selected *storage.HistoryItem

	Width  int
	Height int
}

func NewModel(items []storage.HistoryItem) Model {
	columns := []table.Column{
		{Title: "ID", Width: 8},
		{Title: "Time", Width: 20},
		{Title: "Scenario", Width: 14},
		{Title: "Mode", Width: 10},
		{Title: "Iter", Width: 8},
		{Title: "Reqs", Width: 8},
		{Title: "Checks", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m := Model{
		Items: items,
		Table: t,
	}
	m.Table.SetRows(Rows(items))
	return m
}

// Rows renders history items as table rows.
func Rows(items []storage.HistoryItem) []table.Row {
	rows := make([]table.Row, len(items))
	for i, item := range items {
		mode := item.Config.Mode
		if mode == "users" {
			mode = fmt.Sprintf("users/%d", item.Config.NumUsers)
		} else {
			mode = fmt.Sprintf("rps/%d", item.Config.TargetRPS)
		}

		rows[i] = table.Row{
			ShortID(item.ID),
			item.Timestamp.Format(time.RFC822),
			item.Summary.Scenario,
			mode,
			fmt.Sprintf("%d", item.Summary.Iterations),
			fmt.Sprintf("%d", item.Summary.Requests),
			checkColumn(item),
		}
	}
	return rows
}

func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func checkColumn(item storage.HistoryItem) string {
	if len(item.Summary.Checks) == 0 {
		return "-"
	}
	var passes, total uint64
	for _, c := range item.Summary.Checks {
		passes += c.Passes
		total += c.Total()
	}
	return fmt.Sprintf("%d/%d", passes, total)
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Table.SetWidth(msg.Width - 4)

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			i := m.Table.Cursor()
			if i >= 0 && i < len(m.Items) {
				item := m.Items[i]
				m.Selected = &item
				return m, tea.Quit
			}
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}

	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return styles.Box.Render(m.Table.View()) + "\n" +
		lipgloss.JoinHorizontal(lipgloss.Center,
			styles.RenderKey("enter", "show"), "  ", styles.RenderKey("q", "quit"))
}

// Browser runs Model as a standalone program.
type Browser struct {
	Model
}

func (b Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := b.Model.Update(msg)
	return Browser{m}, cmd
}
