package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

const runColumns = `
  run_id, role, schema_version, ts_utc, status, error, entry_point_count, option_count,
  files_scanned, files_skipped, malformed_expressions, excluded_count, output_path`

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRuns writes every row in one transaction. A row with an existing
// (run_id, role) pair replaces the earlier one.
func (s *Store) SaveRuns(runs []Run) error {
	if len(runs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	runs = append([]Run(nil), runs...)
	now := time.Now().UTC()
	for i := range runs {
		if strings.TrimSpace(runs[i].RunID) == "" {
			return fmt.Errorf("run %d: run id must not be empty", i)
		}
		if strings.TrimSpace(runs[i].Role) == "" {
			return fmt.Errorf("run %d: role must not be empty", i)
		}
		if runs[i].Timestamp.IsZero() {
			runs[i].Timestamp = now
		}
		if runs[i].SchemaVersion == 0 {
			runs[i].SchemaVersion = SchemaVersion
		}
		if runs[i].SchemaVersion != SchemaVersion {
			return fmt.Errorf("unsupported run schema version %d", runs[i].SchemaVersion)
		}
		if runs[i].Status == "" {
			runs[i].Status = StatusOK
		}
	}

	query := `INSERT INTO runs (` + runColumns + `
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, role) DO UPDATE SET
  schema_version=excluded.schema_version,
  ts_utc=excluded.ts_utc,
  status=excluded.status,
  error=excluded.error,
  entry_point_count=excluded.entry_point_count,
  option_count=excluded.option_count,
  files_scanned=excluded.files_scanned,
  files_skipped=excluded.files_skipped,
  malformed_expressions=excluded.malformed_expressions,
  excluded_count=excluded.excluded_count,
  output_path=excluded.output_path
`
	return s.withRetry("save runs", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		for _, run := range runs {
			if _, err := tx.Exec(
				query,
				run.RunID,
				run.Role,
				run.SchemaVersion,
				run.Timestamp.UTC().Format(time.RFC3339Nano),
				run.Status,
				run.Error,
				run.EntryPoints,
				run.Options,
				run.FilesScanned,
				run.FilesSkipped,
				run.MalformedExpressions,
				run.Excluded,
				run.OutputPath,
			); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
}

// LoadRuns returns rows oldest first. An empty role matches every role and a
// zero since disables the time filter.
func (s *Store) LoadRuns(role string, since time.Time) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	args := make([]any, 0, 2)
	if role = strings.TrimSpace(role); role != "" {
		query += " AND role = ?"
		args = append(args, role)
	}
	if !since.IsZero() {
		query += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY ts_utc ASC, role ASC"
	return s.query("load runs", query, args...)
}

// RecentRuns returns the rows of the latest limit runs, newest run first and
// roles sorted within a run.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT ` + runColumns + ` FROM runs
WHERE run_id IN (
  SELECT run_id FROM runs GROUP BY run_id ORDER BY MAX(ts_utc) DESC LIMIT ?
)
ORDER BY ts_utc DESC, run_id ASC, role ASC`
	return s.query("load recent runs", query, limit)
}

func (s *Store) query(op, query string, args ...any) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry(op, func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			tsRaw string
			run   Run
		)
		if err := rows.Scan(
			&run.RunID,
			&run.Role,
			&run.SchemaVersion,
			&tsRaw,
			&run.Status,
			&run.Error,
			&run.EntryPoints,
			&run.Options,
			&run.FilesScanned,
			&run.FilesSkipped,
			&run.MalformedExpressions,
			&run.Excluded,
			&run.OutputPath,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		run.Timestamp = ts.UTC()
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
