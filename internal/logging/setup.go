// Package logging builds the slog handlers used by the pcstate CLI and its
// components.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// verbosity is the resolved form of a level name.
type verbosity struct {
	level           slog.Level
	reportCaller    bool
	reportTimestamp bool
}

// parseLevel maps trace, debug, info, warn and error to slog levels. Unknown
// names fall back to info. Trace is debug with caller reporting.
func parseLevel(logLevel string) verbosity {
	switch strings.ToLower(logLevel) {
	case "trace":
		return verbosity{level: slog.LevelDebug, reportCaller: true, reportTimestamp: true}
	case "debug":
		return verbosity{level: slog.LevelDebug, reportTimestamp: true}
	case "warn", "warning":
		return verbosity{level: slog.LevelWarn}
	case "error":
		return verbosity{level: slog.LevelError}
	default:
		return verbosity{level: slog.LevelInfo}
	}
}

// SetupHandlerText configures a text slog handler with the provided writer and log level
func SetupHandlerText(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stderr
	}

	v := parseLevel(logLevel)
	return log.NewWithOptions(writer, log.Options{
		ReportTimestamp: v.reportTimestamp,
		ReportCaller:    v.reportCaller,
		Level:           log.Level(v.level),
	})
}

// SetupHandlerJSON configures a JSON slog handler with the provided writer and log level
func SetupHandlerJSON(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stdout
	}

	v := parseLevel(logLevel)
	return slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level:     v.level,
		AddSource: v.reportCaller,
	})
}

// SetupHandler picks the text or JSON handler by format name; anything other
// than "json" yields text.
func SetupHandler(format, logLevel string, writer io.Writer) slog.Handler {
	if strings.EqualFold(format, "json") {
		return SetupHandlerJSON(logLevel, writer)
	}
	return SetupHandlerText(logLevel, writer)
}

// SetupLogger configures the default logger based on provided log level
func SetupLogger(logLevel string) {
	handler := SetupHandlerText(logLevel, nil)
	slog.SetDefault(slog.New(handler))
}
