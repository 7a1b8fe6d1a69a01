// Package log provides structured logging for hookgate. Standard output
// and standard error belong to the hook protocol, so records go to a file.
package log

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvPath overrides the log file location.
	EnvPath = "HOOKGATE_LOG"
	// EnvLevel sets the level: debug, info, warn or error.
	EnvLevel = "HOOKGATE_LOG_LEVEL"
)

var (
	// Logger is the global logger instance. It discards records until
	// Setup is called.
	Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// DefaultPath is <tmp>/hookgate.log.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), "hookgate.log")
}

// Setup points the logger at the file named by HOOKGATE_LOG, or the
// default path, at the level named by HOOKGATE_LOG_LEVEL. The returned
// function closes the file. A file that cannot be opened leaves logging
// disabled.
func Setup() func() {
	path := os.Getenv(EnvPath)
	if path == "" {
		path = DefaultPath()
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return func() {}
	}

	SetOutput(f, ParseLevel(os.Getenv(EnvLevel)))
	return func() { _ = f.Close() }
}

// SetOutput replaces the logger with one writing to w.
func SetOutput(w io.Writer, level slog.Level) {
	Logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// ParseLevel maps a level name to a slog level. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Info logs an info message
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// With returns a logger with additional attributes
func With(args ...any) *slog.Logger {
	return Logger.With(args...)
}
