package util

import (
	"context"
	"log/slog"
)

// LevelTrace sits below debug and carries per-reference decisions.
const LevelTrace = slog.LevelDebug - 4

// Trace logs at LevelTrace on the default logger.
func Trace(msg string, args ...any) {
	slog.Default().Log(context.Background(), LevelTrace, msg, args...)
}
