package app

import (
	"argspec/internal/core/ports"
	"argspec/internal/data/history"
	"argspec/internal/shared/util"
	"log/slog"
)

func logRoleDiagnostics(outcome ports.RoleOutcome) {
	d := outcome.Analysis.Diagnostics
	slog.Info("role generated",
		"role", outcome.Role,
		"entry_points", len(outcome.Analysis.EntryPoints),
		"options", outcome.Analysis.OptionCount(),
		"written", outcome.Written,
		"duration", outcome.Duration)
	slog.Debug("role diagnostics",
		"role", outcome.Role,
		"files_scanned", d.FilesScanned,
		"files_skipped", d.FilesSkipped,
		"malformed_expressions", d.MalformedExpressions,
		"excluded_builtin", d.ExcludedBuiltin,
		"excluded_loop_local", d.ExcludedLoopLocal,
		"excluded_registered", d.ExcludedRegistered)
	for _, name := range d.SkippedFiles {
		slog.Debug("skipped task file", "role", outcome.Role, "file", name)
	}
	for _, ep := range outcome.Analysis.EntryPoints {
		util.Trace("entry point", "role", outcome.Role, "entry_point", ep.Name, "options", ep.OptionNames())
	}
}

// recordHistory stores one row per role. History is best effort and never
// fails a run.
func recordHistory(store ports.HistoryStore, res ports.GenerateResult) {
	if store == nil || len(res.Roles) == 0 {
		return
	}
	runs := make([]history.Run, 0, len(res.Roles))
	for _, outcome := range res.Roles {
		if outcome.Err != nil {
			runs = append(runs, history.FailedRun(res.RunID, res.StartedAt, outcome.Role, outcome.Err))
			continue
		}
		path := outcome.OutputPath
		if res.DryRun {
			path = ""
		}
		runs = append(runs, history.RunFromAnalysis(res.RunID, res.StartedAt, outcome.Analysis, path))
	}
	if err := store.SaveRuns(runs); err != nil {
		slog.Warn("failed to record run history", "run_id", res.RunID, "error", err)
	}
}
