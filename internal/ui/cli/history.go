package cli

import (
	"argspec/internal/core/ports"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// runHistory lists recent runs. With -role it prints each role's trend
// instead.
func runHistory(store ports.HistoryStore, opts cliOptions, stdout io.Writer) int {
	if store == nil {
		slog.Error("history store unavailable")
		return 1
	}

	if len(opts.roles) == 0 {
		runs, err := store.RecentRuns(opts.historyLimit)
		if err != nil {
			slog.Error("failed to load history", "error", err)
			return 1
		}
		fmt.Fprint(stdout, renderRuns(runs))
		return 0
	}

	for _, role := range opts.roles {
		points, err := store.RoleTrend(role, time.Time{})
		if err != nil {
			slog.Error("failed to load role trend", "role", role, "error", err)
			return 1
		}
		if len(points) > opts.historyLimit {
			points = points[len(points)-opts.historyLimit:]
		}
		fmt.Fprint(stdout, renderTrend(role, points))
	}
	return 0
}
