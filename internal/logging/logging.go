// Package logging configures the zerolog logger shared by every process
// (cmd/server, cmd/scheduler) the way the teacher repo's node-level
// loggers configure theirs, but hung off a single root logger instead of
// one per node.
package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// New builds a root logger. format is "json" or "console"; level is any
// zerolog level name ("debug", "info", "warn", "error").
func New(level, format string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var out zerolog.Logger
	if format == "console" {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		out = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return out.Level(lvl)
}
