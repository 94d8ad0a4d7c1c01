// # internal/core/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "argspec.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
version = 1
collection_path = "./collection"

[discovery]
roles_dir = "ansible/roles"
exclude_roles = ["test_*"]
exclude_files = ["**/molecule/*.yml"]

[exclude]
variables = ["deployment_env"]
prefixes = ["ci_"]

[output]
tsv = "options.tsv"
markdown = "OPTIONS.md"
dry_run = true

[history]
enabled = true

[watch]
debounce = "1s"
max_runs_per_second = 0.5

[observability]
metrics_addr = ":9464"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "./collection", cfg.CollectionPath)
	assert.Equal(t, "ansible/roles", cfg.Discovery.RolesDir)
	assert.Equal(t, []string{"test_*"}, cfg.Discovery.ExcludeRoles)
	assert.Equal(t, []string{"deployment_env"}, cfg.Exclude.Variables)
	assert.Equal(t, []string{"ci_"}, cfg.Exclude.Prefixes)
	assert.True(t, cfg.Output.DryRun)
	assert.Equal(t, "options.tsv", cfg.Output.TSV)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, DefaultHistoryPath, cfg.History.Path)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, 0.5, cfg.Watch.MaxRunsPerSecond)
	assert.Equal(t, ":9464", cfg.Observability.MetricsAddr)
	assert.Equal(t, "argspec", cfg.Observability.ServiceName)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ".", cfg.CollectionPath)
	assert.Equal(t, DefaultRolesDir, cfg.Discovery.RolesDir)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.False(t, cfg.History.Enabled)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "version = ", "decode"},
		{"unknown key", "colection_path = \".\"\n", `unknown key "colection_path"`},
		{"version", "version = 7\n", "unsupported config version 7"},
		{"bad glob", "[discovery]\nexclude_roles = [\"[abc\"]\n", "discovery.exclude_roles[0]"},
		{"metrics addr", "[observability]\nmetrics_addr = \"nope\"\n", "observability.metrics_addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "argspec.toml")

	cfg, err := LoadOrDefault(missing, false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = LoadOrDefault(missing, true)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadOrDefault(writeConfig(t, "version = 0\nversion = 1\n"), false)
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ARGSPEC_COLLECTION_PATH", "/srv/collection")
	t.Setenv("ARGSPEC_OUTPUT_DRY_RUN", "TRUE")
	t.Setenv("ARGSPEC_EXCLUDE_PREFIXES", "ci_, tmp_ ,,")
	t.Setenv("ARGSPEC_WATCH_DEBOUNCE", "2s")
	t.Setenv("ARGSPEC_WATCH_MAX_RUNS_PER_SECOND", "not-a-number")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	assert.Equal(t, "/srv/collection", cfg.CollectionPath)
	assert.True(t, cfg.Output.DryRun)
	assert.Equal(t, []string{"ci_", "tmp_"}, cfg.Exclude.Prefixes)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.Equal(t, float64(2), cfg.Watch.MaxRunsPerSecond)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("ARGSPEC_HISTORY_ENABLED", "true")
	cfg, err := Load(writeConfig(t, "[history]\nenabled = false\n"))
	require.NoError(t, err)
	assert.True(t, cfg.History.Enabled)
}
