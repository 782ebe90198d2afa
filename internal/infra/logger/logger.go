package logger

import (
	"log/slog"
	"os"
)

func New(env, appName, appVersion string) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("app", appName, "version", appVersion)
}
