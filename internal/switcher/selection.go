package switcher

import (
	"strconv"
	"strings"
)

// ParseSelection turns prompt input into a 1-based registry index.
// "q" or "quit" aborts; anything else must be a number in [1, count].
func ParseSelection(input string, count int) (int, error) {
	in := strings.TrimSpace(input)
	switch strings.ToLower(in) {
	case "q", "quit", "exit":
		return 0, ErrAborted
	}
	n, err := strconv.Atoi(in)
	if err != nil || n < 1 || n > count {
		return 0, &InvalidSelectionError{Input: in, Max: count}
	}
	return n, nil
}

// IsIndexArg reports whether arg is a direct 1-based index argument
// (digits only).
func IsIndexArg(arg string) bool {
	if arg == "" {
		return false
	}
	for _, r := range arg {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
