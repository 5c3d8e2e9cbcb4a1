package debug

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"pawty/internal/telemetry/models"
)

// Theme holds the styles used by Render.
type Theme struct {
	Renderer *lipgloss.Renderer
	Primary  lipgloss.Color
	Scroll   lipgloss.Color
	Video    lipgloss.Color
	Other    lipgloss.Color
	Faint    lipgloss.Color
}

// DefaultTheme renders plain text. Use NewTheme with a terminal renderer to
// get ANSI output.
func DefaultTheme() Theme {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return NewTheme(r)
}

// NewTheme binds the default palette to r.
func NewTheme(r *lipgloss.Renderer) Theme {
	return Theme{
		Renderer: r,
		Primary:  lipgloss.Color("#D97706"),
		Scroll:   lipgloss.Color("#2563EB"),
		Video:    lipgloss.Color("#7C3AED"),
		Other:    lipgloss.Color("#6B7280"),
		Faint:    lipgloss.Color("#9CA3AF"),
	}
}

func (t Theme) badgeColor(b models.Bucket) lipgloss.Color {
	switch b {
	case models.BucketPrimary:
		return t.Primary
	case models.BucketScroll:
		return t.Scroll
	case models.BucketVideo:
		return t.Video
	default:
		return t.Other
	}
}

// Render draws the panel as text. A closed panel shows only its header.
func (o *Overlay) Render() string {
	entries := o.Entries()
	open := o.IsOpen()
	t := o.theme

	header := t.Renderer.NewStyle().Bold(true).
		Render(fmt.Sprintf("GA Debug (%d) %s", len(entries), chevron(open)))
	if !open {
		return header
	}

	faint := t.Renderer.NewStyle().Foreground(t.Faint)
	lines := []string{header, faint.Render("Live event stream")}
	if len(entries) == 0 {
		lines = append(lines, faint.Render("No events yet. Interact with the page!"))
	}
	for _, e := range entries {
		badge := t.Renderer.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(t.badgeColor(e.Bucket)).
			Padding(0, 1).
			Render(e.Event.Name)
		at := time.UnixMilli(e.Event.Timestamp).In(o.location).Format("15:04:05")
		lines = append(lines, badge+" "+faint.Render(at))
		for _, k := range e.Event.Keys() {
			lines = append(lines, "  "+faint.Render(k+":")+" "+models.FormatValue(e.Event.Params[k]))
		}
	}

	return t.Renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Faint).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

func chevron(open bool) string {
	if open {
		return "▲"
	}
	return "▼"
}
