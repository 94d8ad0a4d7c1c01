package history

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SaveLoadRuns(t *testing.T) {
	store := openStore(t)
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveRuns([]Run{
		{RunID: "r1", Timestamp: base, Role: "web", EntryPoints: 1, Options: 4, FilesScanned: 3},
		{RunID: "r1", Timestamp: base, Role: "db", EntryPoints: 2, Options: 6, FilesSkipped: 1},
	}))
	// Same (run_id, role) replaces the earlier row.
	require.NoError(t, store.SaveRuns([]Run{
		{RunID: "r1", Timestamp: base, Role: "web", EntryPoints: 1, Options: 5, FilesScanned: 3},
	}))
	require.NoError(t, store.SaveRuns([]Run{
		{RunID: "r2", Timestamp: base.Add(time.Hour), Role: "web", Status: StatusFailed, Error: "boom"},
	}))

	all, err := store.LoadRuns("", time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "db", all[0].Role)
	assert.Equal(t, 5, all[1].Options)
	assert.Equal(t, StatusOK, all[1].Status)
	assert.Equal(t, SchemaVersion, all[1].SchemaVersion)
	assert.Equal(t, base, all[1].Timestamp)

	web, err := store.LoadRuns("web", base.Add(30*time.Minute))
	require.NoError(t, err)
	require.Len(t, web, 1)
	assert.Equal(t, "boom", web[0].Error)
}

func TestStore_RecentRuns(t *testing.T) {
	store := openStore(t)
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		at := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.SaveRuns([]Run{
			{RunID: id, Timestamp: at, Role: "web"},
			{RunID: id, Timestamp: at, Role: "db"},
		}))
	}

	recent, err := store.RecentRuns(2)
	require.NoError(t, err)
	require.Len(t, recent, 4)
	assert.Equal(t, "c", recent[0].RunID)
	assert.Equal(t, "db", recent[0].Role)
	assert.Equal(t, "web", recent[1].Role)
	assert.Equal(t, "b", recent[3].RunID)
}

func TestStore_SaveRunsRejectsIncompleteRows(t *testing.T) {
	store := openStore(t)
	assert.Error(t, store.SaveRuns([]Run{{Role: "web"}}))
	assert.Error(t, store.SaveRuns([]Run{{RunID: "x"}}))
	assert.Error(t, store.SaveRuns([]Run{{RunID: "x", Role: "web", SchemaVersion: 9}}))
	assert.NoError(t, store.SaveRuns(nil))
}

func TestStore_SaveRunsDoesNotMutateInput(t *testing.T) {
	store := openStore(t)
	runs := []Run{{RunID: "x", Role: "web"}}
	require.NoError(t, store.SaveRuns(runs))
	assert.True(t, runs[0].Timestamp.IsZero())
	assert.Empty(t, runs[0].Status)
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestStore_OpenCorruptDBPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not sqlite"), 0o644))

	_, err := Open(path)
	require.Error(t, err)
	lower := strings.ToLower(err.Error())
	if !strings.Contains(lower, "not a database") && !strings.Contains(lower, "schema") {
		t.Fatalf("expected schema/open error, got: %v", err)
	}
}

func TestEnsureSchema_DetectsNewerVersionDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.db.Exec(`INSERT OR REPLACE INTO schema_migrations(version) VALUES (?)`, 99)
	require.NoError(t, err)

	db, err := sql.Open(driverName, "file:"+path)
	require.NoError(t, err)
	defer db.Close()

	err = EnsureSchema(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	store := openStore(t)
	require.NoError(t, EnsureSchema(store.db))

	var count int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, len(migrations), count)
}

func TestBuildTrend(t *testing.T) {
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	points := BuildTrend([]Run{
		{Role: "web", Timestamp: base, Options: 4, EntryPoints: 1, Status: StatusOK},
		{Role: "db", Timestamp: base, Options: 2, EntryPoints: 1, Status: StatusOK},
		{Role: "web", Timestamp: base.Add(time.Hour), Status: StatusFailed},
		{Role: "web", Timestamp: base.Add(2 * time.Hour), Options: 7, EntryPoints: 2, Status: StatusOK},
	})

	require.Len(t, points, 4)
	assert.True(t, points[0].First)
	assert.True(t, points[1].First)
	assert.False(t, points[2].First)
	assert.Zero(t, points[2].DeltaOptions)
	assert.Equal(t, 3, points[3].DeltaOptions)
	assert.Equal(t, 1, points[3].DeltaEntryPoints)
}

func TestIsCorruptError(t *testing.T) {
	assert.True(t, IsCorruptError(errors.New("database disk image is malformed")))
	assert.False(t, IsCorruptError(nil))
	assert.False(t, IsCorruptError(errors.New("database is locked")))
}
