// Package logger builds the process-wide zerolog logger. Console output by
// default for local runs and cron logs; JSON when log collectors are in
// front.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// New returns a configured root logger. Unknown levels fall back to info.
func New(level string, json bool) zerolog.Logger {
	zerolog.TimeFieldFormat = timeFormat
	zerolog.ErrorFieldName = "err"

	var w io.Writer = os.Stdout
	if !json {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: timeFormat}
	}

	return zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
