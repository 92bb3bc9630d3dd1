// Package logger provides a standardized way for different logging frameworks to be integrated into go-secsgem,
// allowing users to choose their preferred logging implementation.
//
// The Logger interface defines methods for logging messages at various severity levels (Debug, Info, Warn, Error, Fatal)
// and supports structured logging with key-value pairs.
//
// Two backends are provided: NewSlog, built on log/slog (with a colored console handler when the
// ENV environment variable is "development"), and NewZap, built on zap with optional log file rotation.
//
// Log Levels:
//
//   - DebugLevel:  Detailed debug information, typically disabled in production.
//   - InfoLevel:  General informational messages.
//   - WarnLevel:  Warnings about potential issues.
//   - ErrorLevel:  Errors that require attention.
//   - FatalLevel:  Critical errors that cause program termination.
package logger

// Level indicates the logging severity level.
type Level = int8

// LogLevel is an alias of Level.
type LogLevel = Level

const (
	// DebugLevel logs are typically voluminous, and are usually disabled in production.
	DebugLevel Level = iota - 1
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual
	// human review.
	WarnLevel
	// ErrorLevel logs are high-priority. If an application is running smoothly,
	// it shouldn't generate any error-level logs.
	ErrorLevel
	// FatalLevel logs a message, then calls os.Exit(1).
	FatalLevel
)

// Logger is the logging interface used throughout go-secsgem.
//
// keysAndValues are alternating keys and values, e.g. logger.Info("sent", "id", 1, "s", 1, "f", 1).
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	Fatal(msg string, keysAndValues ...any)

	// With returns a logger that adds keyValues to every entry.
	With(keyValues ...any) Logger

	// Level returns the minimum enabled level.
	Level() Level

	// SetLevel changes the minimum enabled level. Loggers derived with With share the level.
	SetLevel(level Level)
}
