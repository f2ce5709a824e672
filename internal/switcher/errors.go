package switcher

import (
	"errors"
	"fmt"
)

var (
	// ErrNoInstallations is returned when discovery finds nothing to switch to.
	ErrNoInstallations = errors.New("no conda installations found")
	// ErrAborted is returned when the user quits the interactive prompt.
	ErrAborted = errors.New("aborted")
	// ErrActivation wraps a failed shell integration step. The PATH export
	// has already been emitted when it is returned.
	ErrActivation = errors.New("activation failed")
)

// InvalidSelectionError reports an out-of-range or non-numeric selection.
type InvalidSelectionError struct {
	Input string
	Max   int
}

func (e *InvalidSelectionError) Error() string {
	if e.Max == 0 {
		return fmt.Sprintf("invalid selection %q", e.Input)
	}
	return fmt.Sprintf("invalid selection %q (choose 1-%d)", e.Input, e.Max)
}
