package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor = lipgloss.Color("#A78BFA") // Purple
	successColor = lipgloss.Color("#10B981") // Green
	errorColor   = lipgloss.Color("#F87171") // Red
	mutedColor   = lipgloss.Color("#9CA3AF") // Gray
	borderColor  = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(16)

	passStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(successColor)

	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor)

	reportBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)
)

// field is one labelled row of a report.
type field struct {
	label string
	value any
}

// renderReport lays out a titled box of label/value rows followed by a
// PASS or FAIL verdict.
func renderReport(title string, fields []field, ok bool) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n")
	for _, f := range fields {
		sb.WriteString(labelStyle.Render(f.label))
		sb.WriteString(fmt.Sprint(f.value))
		sb.WriteString("\n")
	}
	if ok {
		sb.WriteString(passStyle.Render("PASS"))
	} else {
		sb.WriteString(failStyle.Render("FAIL"))
	}
	return reportBox.Render(sb.String())
}
