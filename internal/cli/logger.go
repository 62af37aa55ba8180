package cli

import (
	"log/slog"
	"os"
	"strings"

	"quiz-attempt-service/internal/config"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}

	var log *slog.Logger
	switch cfg.Log.Env {
	case envDev, envProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	default:
		log = slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return log
}
