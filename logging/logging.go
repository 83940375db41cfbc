// Package logging builds the zerolog logger used by the hlsedit commands.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/anlaneg/hlsedit/tool"
)

// Level reads the log level from the environment. DEBUG set to a true
// value wins; otherwise LOG_LEVEL is used, defaulting to info.
func Level() zerolog.Level {
	if tool.GetEnvBool("DEBUG", false) {
		return zerolog.DebugLevel
	}
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}

// ParseLevel maps a level name to a zerolog level. Unknown names are info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New returns a logger writing JSON lines to w at the environment's level.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(Level()).With().Timestamp().Logger()
}

// NewConsole returns a human readable logger for interactive use.
func NewConsole(w io.Writer) zerolog.Logger {
	return New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly})
}
