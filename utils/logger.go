package utils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

// Logger provides leveled, printf-style logging throughout the application.
type Logger struct {
	log *slog.Logger
}

// NewLogger creates a Logger writing coloured output to stdout at info level.
func NewLogger() *Logger {
	return NewLoggerTo(os.Stdout, slog.LevelInfo)
}

// NewLoggerTo creates a Logger writing to w at the given level.
func NewLoggerTo(w io.Writer, level slog.Leveler) *Logger {
	h := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05",
	})
	return &Logger{log: slog.New(h)}
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info.
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

// With returns a Logger that adds the key/value pair to every record.
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{log: l.log.With(key, value)}
}

func (l *Logger) Info(format string, args ...any) {
	l.emit(slog.LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.emit(slog.LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.emit(slog.LevelError, format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.emit(slog.LevelDebug, format, args...)
}

func (l *Logger) emit(level slog.Level, format string, args ...any) {
	ctx := context.Background()
	if !l.log.Enabled(ctx, level) {
		return
	}
	l.log.Log(ctx, level, fmt.Sprintf(format, args...))
}
