// Package logger provides the shared logging setup for notekeep.
package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New returns a configured logger. Debug lowers the level from Info to
// Debug; a nil writer defaults to stderr so command output stays clean on
// stdout.
func New(debug bool, w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}

	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "notekeep",
	})
}
