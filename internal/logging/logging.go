package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New создаёт JSON-логгер в stdout с заданным уровнем.
func New(level string) *slog.Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter создаёт JSON-логгер, пишущий в w.
func NewWithWriter(w io.Writer, level string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(h)
}

// ParseLevel разбирает уровень логирования; неизвестные значения дают info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Discard - логгер для тестов, ничего не пишет.
func Discard() *slog.Logger {
	return NewWithWriter(io.Discard, "error")
}
