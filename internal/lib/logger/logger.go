// Package logger настраивает slog по окружению запуска.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New текстовый вывод с уровнем debug для локального запуска, JSON с уровнем
// info для остальных окружений.
func New(env string) *slog.Logger {
	return newLogger(env, os.Stdout)
}

func newLogger(env string, w io.Writer) *slog.Logger {
	switch strings.ToLower(env) {
	case "local", "dev", "development", "test":
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
