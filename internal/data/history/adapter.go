package history

import (
	"argspec/internal/engine/spec"
	"time"
)

// Adapter bridges Store to the core HistoryStore port.
type Adapter struct {
	store *Store
}

func NewAdapter(store *Store) *Adapter {
	return &Adapter{store: store}
}

func (a *Adapter) SaveRuns(runs []Run) error {
	return a.store.SaveRuns(runs)
}

func (a *Adapter) RecentRuns(limit int) ([]Run, error) {
	return a.store.RecentRuns(limit)
}

// RoleTrend returns the role's runs since the given time with deltas.
func (a *Adapter) RoleTrend(role string, since time.Time) ([]TrendPoint, error) {
	runs, err := a.store.LoadRuns(role, since)
	if err != nil {
		return nil, err
	}
	return BuildTrend(runs), nil
}

// RunFromAnalysis summarizes a successful role analysis as a history row.
func RunFromAnalysis(runID string, at time.Time, analysis *spec.RoleAnalysis, outputPath string) Run {
	d := analysis.Diagnostics
	return Run{
		RunID:                runID,
		Timestamp:            at,
		Role:                 analysis.Role,
		Status:               StatusOK,
		EntryPoints:          len(analysis.EntryPoints),
		Options:              analysis.OptionCount(),
		FilesScanned:         d.FilesScanned,
		FilesSkipped:         d.FilesSkipped,
		MalformedExpressions: d.MalformedExpressions,
		Excluded:             d.ExcludedBuiltin + d.ExcludedLoopLocal + d.ExcludedRegistered,
		OutputPath:           outputPath,
	}
}

// FailedRun records a role that could not be generated.
func FailedRun(runID string, at time.Time, role string, err error) Run {
	run := Run{RunID: runID, Timestamp: at, Role: role, Status: StatusFailed}
	if err != nil {
		run.Error = err.Error()
	}
	return run
}
