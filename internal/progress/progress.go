// Package progress reports status from long-running sorting stages.
package progress

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Reporter receives one line per milestone with key/value context.
// Sorting stages accept a Reporter so library callers can route status
// to their own logger or silence it entirely.
type Reporter interface {
	Info(msg interface{}, keyvals ...interface{})
}

// Charm loggers satisfy Reporter directly.
var _ Reporter = (*log.Logger)(nil)

// NewLogger returns a timestamped logger writing to w.
func NewLogger(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           log.InfoLevel,
	})
}

// Nop returns a Reporter that discards everything.
func Nop() Reporter {
	return nopReporter{}
}

type nopReporter struct{}

func (nopReporter) Info(msg interface{}, keyvals ...interface{}) {}
