// Package logger создаёт slog.Logger в зависимости от окружения.
package logger

import (
	"io"
	"log/slog"
)

// Окружения запуска.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Setup возвращает логгер для окружения env: local - текст с уровнем debug,
// dev - JSON с уровнем debug, prod - JSON с уровнем info.
// Неизвестное окружение обрабатывается как prod.
func Setup(env string, w io.Writer) *slog.Logger {
	switch env {
	case EnvLocal:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case EnvDev:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
