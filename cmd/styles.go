package cmd

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
)

// styles are bound to the renderer of one writer, so output to a pipe or
// buffer carries no escape sequences
type styles struct {
	renderer   *lipgloss.Renderer
	title      lipgloss.Style
	label      lipgloss.Style
	value      lipgloss.Style
	muted      lipgloss.Style
	success    lipgloss.Style
	warning    lipgloss.Style
	errorLabel lipgloss.Style
	hint       lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		renderer:   r,
		title:      r.NewStyle().Bold(true).Foreground(colorPrimary),
		label:      r.NewStyle().Foreground(colorMuted).Width(11),
		value:      r.NewStyle(),
		muted:      r.NewStyle().Foreground(colorMuted),
		success:    r.NewStyle().Foreground(colorSuccess),
		warning:    r.NewStyle().Foreground(colorWarning),
		errorLabel: r.NewStyle().Bold(true).Foreground(colorError),
		hint:       r.NewStyle().Foreground(colorMuted),
	}
}

// field renders one "Label: value" line
func (s styles) field(label, value string) string {
	return s.label.Render(label+":") + " " + s.value.Render(value)
}
