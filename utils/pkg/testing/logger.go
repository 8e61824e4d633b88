package hrtesting

import (
	"log/slog"
	"os"
	"testing"
)

// NewLogger returns a logger for container-backed tests. Output is
// suppressed unless TEST_LOG is set: "info" for progress, "debug" for
// per-row loader detail.
func NewLogger(t *testing.T) *slog.Logger {
	t.Helper()
	level := slog.LevelError
	switch os.Getenv("TEST_LOG") {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
