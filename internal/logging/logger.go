package logging

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger so every component shares one setup.
type Logger struct {
	*slog.Logger
}

// New creates a JSON logger with the specified level.
func New(level string) *Logger {
	return newLogger(os.Stdout, level, false)
}

// NewForEnv uses human-readable text output in dev and JSON elsewhere.
func NewForEnv(env, level string) *Logger {
	return newLogger(os.Stdout, level, env == "dev")
}

// Default returns a logger with default settings
func Default() *Logger {
	return New("info")
}

func newLogger(w io.Writer, level string, text bool) *Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if text {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child logger carrying the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}
