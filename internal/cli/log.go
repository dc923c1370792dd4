// Package cli implements the scenegraph command-line interface.
//
// The commands read scenario JSON files, compute scene layouts, check the
// choice graph for cycles, render diagrams and serve the HTTP API. The CLI is
// built using cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - layout: Compute scene positions and write a layout file
//   - validate: Report cycles, dangling choices and unreachable scenes
//   - render: Generate DOT, SVG or PNG diagrams from a scenario
//   - visualize: Render a previously computed layout file
//   - inspect: Browse the scenes of a scenario interactively
//   - serve: Run the HTTP API
//   - cache, config: Manage the layout cache and the config file
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The log
// format (text, logfmt or json) comes from the config file. Loggers are
// passed through context.Context so that helpers log with the command's
// settings.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/scenegraph/pkg/config"
)

// newLogger creates a text logger with "HH:MM:SS.ms" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// formatter maps a configured log format to a charm log formatter.
// Unknown formats were rejected by config validation and fall back to text.
func formatter(format string) log.Formatter {
	switch format {
	case config.LogJSON:
		return log.JSONFormatter
	case config.LogLogfmt:
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// progress measures one step of a command and logs it with the elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with keyvals and an "elapsed" field rounded to milliseconds.
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}

type ctxKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// loggerFromContext returns the command logger, or log.Default() outside a
// command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
