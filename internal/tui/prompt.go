package tui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"condaswitch/internal/model"
)

// TeaPrompter runs the bubbletea picker. Out should be the terminal's stderr
// so that stdout stays free for shell code.
type TeaPrompter struct {
	In  io.Reader // nil uses the program default (stdin)
	Out io.Writer // nil uses os.Stderr
}

// Prompt shows the picker and returns the raw selection.
func (p TeaPrompter) Prompt(entries []model.Installation, active int) (string, error) {
	out := p.Out
	if out == nil {
		out = os.Stderr
	}
	opts := []tea.ProgramOption{tea.WithOutput(out)}
	if p.In != nil {
		opts = append(opts, tea.WithInput(p.In))
	}
	picker := NewPicker(entries, active, lipgloss.NewRenderer(out))
	final, err := tea.NewProgram(picker, opts...).Run()
	if err != nil {
		return "", fmt.Errorf("running picker: %w", err)
	}
	m, ok := final.(PickerModel)
	if !ok || !m.Done {
		return QuitInput, nil
	}
	return m.Result, nil
}

// LinePrompter prints a numbered list and reads one line. It is used when
// no terminal is attached.
type LinePrompter struct {
	In  io.Reader
	Out io.Writer
}

// Prompt writes the listing to Out and reads the selection from In.
// End of input without a selection counts as quitting.
func (p LinePrompter) Prompt(entries []model.Installation, active int) (string, error) {
	for i, e := range entries {
		marker := model.IconOK
		if i+1 == active {
			marker = model.IconActive
		}
		fmt.Fprintf(p.Out, "%2d. %s %-12s %s\n", i+1, marker, e.Name, e.Path)
	}
	fmt.Fprintf(p.Out, "Select installation [1-%d, q to quit]: ", len(entries))

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if strings.TrimSpace(line) == "" {
				return QuitInput, nil
			}
			return strings.TrimSpace(line), nil
		}
		return "", fmt.Errorf("reading selection: %w", err)
	}
	return strings.TrimSpace(line), nil
}
