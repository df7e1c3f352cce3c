package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger and provides structured logging with map fields.
type Logger struct {
	zlog zerolog.Logger
}

// Options configures a Logger. Zero values fall back to environment defaults.
type Options struct {
	// Env selects the output format: "development" writes coloured console lines, anything else JSON.
	Env string
	// Level overrides the default level (debug in development, info otherwise).
	Level string
	// Output defaults to os.Stdout.
	Output io.Writer
}

// New creates a Logger for the given environment with the default level.
func New(env string) *Logger {
	return NewWithOptions(Options{Env: env})
}

// NewWithOptions creates a Logger from explicit options.
func NewWithOptions(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	if opts.Env == "development" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339

	zlog := zerolog.New(out).
		Level(ParseLevel(opts.Level, opts.Env)).
		With().
		Timestamp().
		Logger()

	return &Logger{zlog: zlog}
}

// Nop returns a Logger that discards everything. Used by tests and the CLI's quiet mode.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// ParseLevel maps a level name to a zerolog level. Unknown or empty names use the
// environment default.
func ParseLevel(level, env string) zerolog.Level {
	if level != "" {
		if lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil && lvl != zerolog.NoLevel {
			return lvl
		}
	}
	if env == "development" {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

func withFields(event *zerolog.Event, fields map[string]interface{}) *zerolog.Event {
	for key, value := range fields {
		event = event.Interface(key, value)
	}
	return event
}

// Debug logs a debug message with optional fields.
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	withFields(l.zlog.Debug(), fields).Msg(msg)
}

// Info logs an info message with optional fields.
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	withFields(l.zlog.Info(), fields).Msg(msg)
}

// Warn logs a warning message with optional fields.
func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	withFields(l.zlog.Warn(), fields).Msg(msg)
}

// Error logs an error message with an error and optional fields.
func (l *Logger) Error(msg string, err error, fields map[string]interface{}) {
	withFields(l.zlog.Error().Err(err), fields).Msg(msg)
}

// Fatal logs a fatal message and exits the process.
func (l *Logger) Fatal(msg string, err error, fields map[string]interface{}) {
	withFields(l.zlog.Fatal().Err(err), fields).Msg(msg)
}

// With creates a child logger carrying the given fields on every entry.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for key, value := range fields {
		ctx = ctx.Interface(key, value)
	}
	return &Logger{zlog: ctx.Logger()}
}

// WithRequestID creates a child logger with a request_id field.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{zlog: l.zlog.With().Str("request_id", requestID).Logger()}
}

// WithComponent creates a child logger with a component field, e.g. "receipts" or "scheduler".
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{zlog: l.zlog.With().Str("component", name).Logger()}
}

// GetZerolog returns the underlying zerolog.Logger.
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zlog
}
