package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// QuitInput is the selection reported when the user leaves the picker.
const QuitInput = "q"

// Init implements tea.Model.
func (m PickerModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles events.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.Result = QuitInput
			m.Done = true
			return m, tea.Quit
		case "enter":
			typed := strings.TrimSpace(m.Input.Value())
			if typed != "" {
				m.Result = typed
			} else {
				m.Result = strconv.Itoa(m.Cursor + 1)
			}
			m.Done = true
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
			return m, nil
		case "down", "j":
			if m.Cursor < len(m.Entries)-1 {
				m.Cursor++
			}
			return m, nil
		}
		m.Input, cmd = m.Input.Update(msg)
		// Keep the cursor on the typed entry while it is in range.
		if n, err := strconv.Atoi(strings.TrimSpace(m.Input.Value())); err == nil && n >= 1 && n <= len(m.Entries) {
			m.Cursor = n - 1
		}
		return m, cmd
	}

	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}
