// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Component names used by the library and the CLI.
const (
	ComponentClient     = "codebeamer-client"
	ComponentPagination = "query-aggregator"
	ComponentCLI        = "cbclient"
)

// DefaultPayloadLimit caps how much of a raw response body is written to logs.
const DefaultPayloadLimit = 2048

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(string(cfg.Level)))

	var output = cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel converts a level name to zerolog.Level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// WithComponent derives a logger from base tagged with the given component.
func WithComponent(base zerolog.Logger, component string) zerolog.Logger {
	return base.With().Str("component", component).Logger()
}

// Payload renders a response body for diagnostics, cut to limit bytes.
// A limit <= 0 means DefaultPayloadLimit.
func Payload(raw []byte, limit int) string {
	if limit <= 0 {
		limit = DefaultPayloadLimit
	}
	if len(raw) <= limit {
		return string(raw)
	}
	cut := raw[:limit]
	for len(cut) > 0 && !utf8.Valid(cut) {
		cut = cut[:len(cut)-1]
	}
	return string(cut) + "...(truncated)"
}

// Log Level Guidelines:
//
// Debug: request flow
//   - method, endpoint, status and duration of each request
//   - page numbers requested by the query aggregator
//
// Info: completed operations
//   - query finished (items, pages, stop reason)
//
// Warn: data the caller will not get
//   - shape mismatch (with the truncated raw payload)
//   - precondition failures on mutation input
//   - query stopped early
//
// Error: transport failures
//
// Context Fields:
//   - component: emitting component
//   - op: client operation (list_projects, query_items, ...)
//   - endpoint: path template, e.g. /items/{id}/fields
//   - status: HTTP status code
//   - error_class: transport, shape_mismatch, empty_result, precondition
//   - query_id: correlation id of one aggregated query
//   - payload: truncated raw body on shape mismatch
//
// The Authorization header, username and password are never logged.
