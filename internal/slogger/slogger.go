// Package slogger configures the global slog logger from the LOG_LEVEL
// environment variable. Call Init at the start of main; packages then log
// through the slog package-level functions.
//
// Valid LOG_LEVEL values: "debug", "info", "warn", "error". Default: "info".
package slogger

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures a TextHandler on stdout at the level named by LOG_LEVEL
// and installs it as the default logger.
func Init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	})
	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
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
