package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New builds a slog logger at the requested verbosity. Every record carries
// the service name so the two binaries can share one log stream.
func New(level, service string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	logr := slog.New(handler)
	if service != "" {
		logr = logr.With(slog.String("service", service))
	}
	return logr
}

func parseLevel(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
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
