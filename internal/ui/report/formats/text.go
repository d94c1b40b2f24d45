package formats

import (
	"fmt"
	"strings"

	"inlinelog/internal/ui/report"

	"github.com/charmbracelet/lipgloss"
)

var (
	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	resolvedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Italic(true)

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	notExecutedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#64748B")).
				Italic(true)
)

// TextGenerator renders annotations for a terminal. Without color it emits
// plain text.
type TextGenerator struct {
	color bool
}

func NewTextGenerator(color bool) *TextGenerator {
	return &TextGenerator{color: color}
}

func (g *TextGenerator) Generate(files []FileAnnotations) (string, error) {
	var buf strings.Builder
	for i, f := range files {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(g.style(pathStyle, f.Path))
		buf.WriteString("\n")
		if f.ParseError != "" {
			buf.WriteString("  " + g.style(failedStyle, f.ParseError) + "\n")
		}
		for _, a := range f.Annotations {
			buf.WriteString(g.line(a))
		}
	}
	return buf.String(), nil
}

func (g *TextGenerator) Correction(path string, a report.Annotation) (string, error) {
	return fmt.Sprintf("%s:%d %s %s\n", path, a.Line, g.style(statusStyle(a.Status), "→"), g.style(statusStyle(a.Status), a.Display)), nil
}

func (g *TextGenerator) line(a report.Annotation) string {
	return fmt.Sprintf("  %4d  %s\n", a.Line, g.style(statusStyle(a.Status), a.Display))
}

func (g *TextGenerator) style(s lipgloss.Style, text string) string {
	if !g.color {
		return text
	}
	return s.Render(text)
}

func statusStyle(s report.Status) lipgloss.Style {
	switch s {
	case report.StatusPending:
		return pendingStyle
	case report.StatusFailed:
		return failedStyle
	case report.StatusNotExecuted:
		return notExecutedStyle
	}
	return resolvedStyle
}
