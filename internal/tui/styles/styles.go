package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// --- Color Palette (Premium / Dark Mode) ---
var (
	ColorPrimary   = lipgloss.Color("#7D56F4") // Indigo/Purple
	ColorSecondary = lipgloss.Color("#04B575") // Green
	ColorError     = lipgloss.Color("#FF5F87") // Pink/Red
	ColorWarning   = lipgloss.Color("#FFAF00") // Gold
	ColorText      = lipgloss.Color("#FAFAFA") // White-ish
	ColorSubtle    = lipgloss.Color("#767676") // Gray
	ColorBorder    = lipgloss.Color("#3C3C3C") // Dark Gray border
	ColorHighlight = lipgloss.Color("#3E3E3E") // Slightly lighter BG
	ColorBanner    = ColorPrimary
)

// --- Base Styles ---

var (
	// Titles
	Title = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(ColorSubtle)

	Subtle = lipgloss.NewStyle().Foreground(ColorSubtle)

	// Value metrics
	Active = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	// Alerts
	Error = lipgloss.NewStyle().Foreground(ColorError)
	Warn  = lipgloss.NewStyle().Foreground(ColorWarning)

	// Keys
	KeyKey  = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	KeyDesc = lipgloss.NewStyle().Foreground(ColorSubtle)

	// Box/Card container
	Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1).
		Margin(0, 1)

	// Footer
	FooterBase = lipgloss.NewStyle().
			Height(1).
			Padding(0, 1)
)

// Check results
var (
	CheckPass = lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)
	CheckFail = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
)

// CheckStyle picks the pass or fail style for a check with the given failures.
func CheckStyle(fails uint64) lipgloss.Style {
	if fails > 0 {
		return CheckFail
	}
	return CheckPass
}

// RenderCheck renders one check line: "✓ name (n)" when it always passed,
// otherwise "✗ name" with its pass rate.
func RenderCheck(name string, passes, fails uint64) string {
	if fails == 0 {
		return CheckPass.Render("✓ "+name) + Subtle.Render(fmt.Sprintf("  (%d)", passes))
	}
	rate := float64(passes) / float64(passes+fails) * 100
	return CheckFail.Render("✗ "+name) +
		Subtle.Render(fmt.Sprintf("  %.0f%% (✓ %d / ✗ %d)", rate, passes, fails))
}

func RenderKey(key, desc string) string {
	return lipgloss.JoinHorizontal(lipgloss.Center,
		KeyKey.Render("<"+key+">"), // Add brackets for style
		" ",
		KeyDesc.Render(desc),
	)
}
