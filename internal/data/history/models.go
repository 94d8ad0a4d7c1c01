package history

import "time"

const SchemaVersion = 1

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Run is one role's outcome within a generation run. Rows sharing a RunID
// were produced by the same invocation.
type Run struct {
	SchemaVersion        int       `json:"schema_version"`
	RunID                string    `json:"run_id"`
	Timestamp            time.Time `json:"timestamp"`
	Role                 string    `json:"role"`
	Status               string    `json:"status"`
	Error                string    `json:"error,omitempty"`
	EntryPoints          int       `json:"entry_points"`
	Options              int       `json:"options"`
	FilesScanned         int       `json:"files_scanned"`
	FilesSkipped         int       `json:"files_skipped"`
	MalformedExpressions int       `json:"malformed_expressions"`
	Excluded             int       `json:"excluded"`
	OutputPath           string    `json:"output_path,omitempty"`
}

// TrendPoint pairs a run with the change since the previous run of the same
// role.
type TrendPoint struct {
	Run
	DeltaOptions     int  `json:"delta_options"`
	DeltaEntryPoints int  `json:"delta_entry_points"`
	First            bool `json:"first"`
}
