// Package cli implements the pngsquare command-line interface.
//
// The commands pack sprite sheets from spec files, inspect layouts, serve
// the packing HTTP API and manage the on-disk cache. The CLI is built on
// cobra and logs through charmbracelet/log.
//
// # Commands
//
//   - pack: Run the full pipeline and write the sheet, C loader and extras
//   - inspect: Print where every sprite lands without writing anything
//   - serve: Run the HTTP API
//   - cache: Clear or locate the layout and output cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// logs pipeline and cache events. Loggers are passed through
// context.Context so commands can report progress.
//
// # Configuration
//
// Defaults come from $XDG_CONFIG_HOME/pngsquare/config.toml, or the file
// named by --config. Flags always win.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a logger with "15:04:05.00" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long an operation took. Not safe for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Wrote 3 files (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default() if there is none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
