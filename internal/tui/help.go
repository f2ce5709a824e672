package tui

import (
	_ "embed"

	"github.com/charmbracelet/glamour"
)

//go:embed help.md
var helpMD string

// RenderHelp renders the usage text for a terminal of the given width.
// Plain markdown is returned when styled is false or rendering fails.
func RenderHelp(styled bool, width int) string {
	if !styled {
		return helpMD
	}
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return helpMD
	}
	out, err := renderer.Render(helpMD)
	if err != nil {
		return helpMD
	}
	return out
}
