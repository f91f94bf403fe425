// Package styles holds the lipgloss styles quillctl prints with.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	Primary = lipgloss.Color("#7C3AED") // Purple
	Success = lipgloss.Color("#10B981") // Green
	Danger  = lipgloss.Color("#EF4444") // Red
	Muted   = lipgloss.Color("#6B7280") // Gray

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtle = lipgloss.NewStyle().
		Foreground(Muted)

	OK = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Error = lipgloss.NewStyle().
		Foreground(Danger).
		Bold(true)

	Badge = lipgloss.NewStyle().
		Foreground(Muted).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(Muted).
		PaddingLeft(1)

	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted).
		Padding(0, 1)
)
