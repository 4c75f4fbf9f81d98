// Package theme holds the lipgloss styles used by quizzly's terminal output.
package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Question = lipgloss.NewStyle().
			Bold(true)

	ChoiceKey = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	Points = lipgloss.NewStyle().
		Foreground(Accent)
)

// States
var (
	Winner = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Warning = lipgloss.NewStyle().
		Foreground(Accent)

	Failure = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)
)

// Card frames a result block.
var Card = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Border).
	Padding(0, 2)

// ChoiceLabel returns the letter shown for the i-th choice: a, b, c...
func ChoiceLabel(i int) string {
	return string(rune('a' + i))
}
