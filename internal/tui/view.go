package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"condaswitch/internal/model"
)

// styles are bound to the renderer of the picker's output. Package-level
// styles would use the stdout renderer, which is captured by $(...).
type styles struct {
	title         lipgloss.Style
	selectedItem  lipgloss.Style
	unselected    lipgloss.Style
	dim           lipgloss.Style
	pathHighlight lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1),
		selectedItem: r.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")),
		unselected: r.NewStyle().
			Foreground(lipgloss.Color("255")),
		dim: r.NewStyle().
			Foreground(lipgloss.Color("240")),
		pathHighlight: r.NewStyle().
			Foreground(lipgloss.Color("81")). // Sky Blue/Cyan
			Bold(true),
	}
}

// View implements tea.Model.
func (m PickerModel) View() string {
	if m.Done {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.title.Render("Switch conda installation"))
	b.WriteString("\n\n")

	width := m.WindowSize.Width
	for i, e := range m.Entries {
		marker := model.IconOK
		if i+1 == m.Active {
			marker = model.IconActive
		}
		version := e.Version
		if version == "" {
			version = "?"
		}
		line := fmt.Sprintf("%2d. %s %s %s  %s", i+1, marker, e.Name, model.FlavorIcon(e.Flavor), version)
		path := e.Path
		lineWidth, pathWidth := ansi.StringWidth(line), ansi.StringWidth(path)
		if width > 0 && lineWidth+pathWidth+4 > width && width > lineWidth+8 {
			keep := width - lineWidth - 7
			path = ansi.TruncateLeft(path, pathWidth-keep, "...")
		}

		if i == m.Cursor {
			b.WriteString(m.styles.selectedItem.Render("> "+line) + "  " + m.styles.pathHighlight.Render(path))
		} else {
			b.WriteString(m.styles.unselected.Render("  "+line) + "  " + m.styles.dim.Render(path))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.Input.View())
	b.WriteString("\n\n")
	b.WriteString(m.styles.dim.Render("↑/↓ move • type a number • enter select • q/esc quit"))
	b.WriteString("\n")
	return b.String()
}
