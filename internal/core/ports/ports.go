package ports

import (
	"argspec/internal/data/history"
	"argspec/internal/engine/spec"
	"context"
	"time"
)

// HistoryStore abstracts run persistence for the history listing.
type HistoryStore interface {
	SaveRuns(runs []history.Run) error
	RecentRuns(limit int) ([]history.Run, error)
	RoleTrend(role string, since time.Time) ([]history.TrendPoint, error)
}

// RoleRef locates one role on disk.
type RoleRef struct {
	Name string
	Dir  string
}

// GenerateRequest selects roles and overrides output settings for one run.
// Empty Roles means every discovered role.
type GenerateRequest struct {
	Roles        []string
	DryRun       bool
	OutputFile   string
	TSVFile      string
	MarkdownFile string
}

// FromDefaultsRequest builds one entry point from a defaults file instead of
// scanning task files.
type FromDefaultsRequest struct {
	File       string
	EntryPoint string
	OutputFile string
	DryRun     bool
}

// RoleOutcome is the result for one role. Err is set when the role failed;
// Analysis is nil in that case.
type RoleOutcome struct {
	Role       string
	Analysis   *spec.RoleAnalysis
	YAML       string
	OutputPath string
	Written    bool
	Unchanged  bool
	Duration   time.Duration
	Err        error
}

type GenerateResult struct {
	RunID          string
	StartedAt      time.Time
	DryRun         bool
	Roles          []RoleOutcome
	RolesProcessed int
	RolesFailed    int
	// Combined holds the single document written to GenerateRequest.OutputFile.
	Combined string
	Written  []string
	Reports  []string
}

// ValidateResult reports the checks of one role's existing spec file.
type ValidateResult struct {
	Role    string
	Path    string
	Missing bool
	Issues  []spec.ValidationIssue
	Err     error
}

// GenerationService is the driving port used by the CLI.
type GenerationService interface {
	ListRoles(ctx context.Context) ([]RoleRef, error)
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
	Validate(ctx context.Context, roles []string) ([]ValidateResult, error)
	Watch(ctx context.Context, req GenerateRequest, onResult func(GenerateResult)) error
}
