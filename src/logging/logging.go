// Package logging configures the structured logger shared by every job.
// Human-facing output stays in the output package; this logger carries the
// machine-readable trail (run IDs, step names, durations) that ends up in CI logs.
package logging

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kodecks/kodeship/src/output"
)

// New returns a logger writing to w. On terminals it uses the zerolog console
// writer; in CI (or when w is not a terminal) it emits JSON lines.
// Verbose lowers the level from info to debug.
func New(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	out := w
	if output.IsTerminal(w) && !output.IsCI() {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Nop returns a disabled logger for tests and library callers that do not care.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// WithRun tags a logger with a fresh run ID and the job name.
func WithRun(log zerolog.Logger, job string) (zerolog.Logger, string) {
	id := uuid.NewString()
	return log.With().Str("run_id", id).Str("job", job).Logger(), id
}
