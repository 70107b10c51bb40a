package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New creates a zerolog logger writing to stdout. Format "console" or "text"
// selects human-readable output; anything else writes JSON lines.
func New(level, format string) zerolog.Logger {
	return newWithOutput(os.Stdout, level, format)
}

// ForService tags every entry with the binary that emitted it.
func ForService(level, format, service string) zerolog.Logger {
	return New(level, format).With().Str("service", service).Logger()
}

// NewNop creates a no-op logger for testing.
func NewNop() zerolog.Logger {
	return zerolog.Nop()
}

func newWithOutput(out io.Writer, level, format string) zerolog.Logger {
	if format == "console" || format == "text" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Caller().
		Logger()
}

// parseLevel falls back to info for empty or unknown levels.
func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
