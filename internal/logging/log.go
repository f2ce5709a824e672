// Package logging builds the structured stderr logger shared by all commands.
package logging

import (
	"io"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w. Debug enables the diagnostic tracing
// used by the debug command and --verbose.
func New(w io.Writer, debug bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "conda-switch",
	})
	if debug {
		logger.SetLevel(log.DebugLevel)
		logger.SetReportTimestamp(false)
	}
	return logger
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
