package tui

import (
	"condaswitch/internal/model"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PickerModel holds the interactive selection state.
type PickerModel struct {
	// Data
	Entries []model.Installation
	Active  int // 1-based index of the active installation, 0 if none

	// UI State
	Cursor     int
	WindowSize tea.WindowSizeMsg
	Input      textinput.Model

	// Result is the raw selection: digits typed, the cursor position, or "q".
	Result string
	Done   bool

	styles styles
}

// NewPicker returns the initial state. The cursor starts on the active
// installation when there is one. Styles render through r, or through the
// lipgloss default renderer when r is nil.
func NewPicker(entries []model.Installation, active int, r *lipgloss.Renderer) PickerModel {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	st := newStyles(r)

	ti := textinput.New()
	ti.Placeholder = "number"
	ti.CharLimit = 6
	ti.Width = 8
	ti.Prompt = "select> "
	ti.PromptStyle = st.pathHighlight
	ti.Focus()

	cursor := 0
	if active > 0 && active <= len(entries) {
		cursor = active - 1
	}
	return PickerModel{
		Entries: entries,
		Active:  active,
		Cursor:  cursor,
		Input:   ti,
		styles:  st,
	}
}
