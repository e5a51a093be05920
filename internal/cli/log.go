// Package cli implements the layerstack command-line interface.
//
// This package provides commands for inspecting and editing layer stacks
// loaded from JSON files or URLs, rendering them with Graphviz, saving named
// snapshots, serving a document over HTTP, and managing the HTTP response
// cache. The CLI is built using cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - show, normalize: Inspect a stack or write its normalized form
//   - add, reorder, renumber, rename: Structural edits written back as JSON
//   - edit: Interactive terminal editor
//   - render: Generate DOT, SVG, PDF, or PNG diagrams
//   - snapshot: Save, list, show, and delete named snapshots
//   - serve: Serve a document at /api/testdata
//   - cache: Manage the HTTP response cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// logs editor, cache, render, and HTTP events. The level can be set in the
// config file or with LAYERSTACK_LOG_LEVEL. Loggers are passed through
// context.Context to allow structured progress tracking.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress creates a progress tracker that captures the current time as start.
// The returned progress should call done when the operation completes.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with keyvals and the elapsed time since progress was
// created, rounded to the millisecond:
//
//	INFO loaded source=sample.json layers=4 elapsed=12ms
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}

// ctxKey is the type for context keys used in this package.
// Using a distinct type prevents collisions with other packages.
type ctxKey int

// loggerKey is the context key for storing a logger.
const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
// The logger can be retrieved later with loggerFromContext.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
// This ensures commands always have a valid logger even if context setup fails.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
