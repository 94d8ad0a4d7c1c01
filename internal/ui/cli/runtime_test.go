package cli

import (
	"argspec/internal/core/config"
	"argspec/internal/shared/util"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions_RolesAndVerbosity(t *testing.T) {
	opts, err := parseOptions([]string{"-role", "web,db", "-role", " cache ", "-v", "-v", "./collection"}, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(opts.roles, "|"); got != "web|db|cache" {
		t.Fatalf("unexpected roles: %q", got)
	}
	if opts.verbosity != 2 {
		t.Fatalf("expected verbosity 2, got %d", opts.verbosity)
	}
	if opts.configSet {
		t.Fatal("config flag was not given")
	}
	if len(opts.args) != 1 || opts.args[0] != "./collection" {
		t.Fatalf("unexpected positional args: %v", opts.args)
	}
}

func TestParseOptions_ConfigSet(t *testing.T) {
	opts, err := parseOptions([]string{"-config", "custom.toml"}, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opts.configSet || opts.configPath != "custom.toml" {
		t.Fatalf("unexpected config options: %+v", opts)
	}
}

func TestValidateModes(t *testing.T) {
	tests := []struct {
		name string
		opts cliOptions
		want string
	}{
		{name: "validate and list", opts: cliOptions{validateOnly: true, listRoles: true, historyLimit: 1}, want: "cannot be combined"},
		{name: "watch and history", opts: cliOptions{watch: true, history: true, historyLimit: 1}, want: "-history, -watch cannot be combined"},
		{name: "two positionals", opts: cliOptions{args: []string{"a", "b"}, historyLimit: 1}, want: "at most one positional"},
		{name: "flag and positional", opts: cliOptions{collectionPath: "a", args: []string{"b"}, historyLimit: 1}, want: "both as -collection-path"},
		{name: "quiet and verbose", opts: cliOptions{quiet: true, verbosity: 1, historyLimit: 1}, want: "-q and -v"},
		{name: "metrics without watch", opts: cliOptions{metricsAddr: ":9090", historyLimit: 1}, want: "requires -watch"},
		{name: "history limit", opts: cliOptions{historyLimit: 0}, want: "-history-limit"},
		{name: "defaults and list", opts: cliOptions{fromDefaults: "d.yml", listRoles: true, singleRole: true, historyLimit: 1}, want: "-list-roles, -from-defaults cannot be combined"},
		{name: "defaults without single role", opts: cliOptions{fromDefaults: "d.yml", historyLimit: 1}, want: "requires -single-role"},
		{name: "defaults with role", opts: cliOptions{fromDefaults: "d.yml", singleRole: true, roles: roleList{"web"}, historyLimit: 1}, want: "-role cannot be used"},
		{name: "entry point without defaults", opts: cliOptions{entryPoint: "upgrade", historyLimit: 1}, want: "-entry-point requires -from-defaults"},
		{name: "ok", opts: cliOptions{watch: true, metricsAddr: ":9090", historyLimit: 1}},
		{name: "ok defaults", opts: cliOptions{fromDefaults: "d.yml", singleRole: true, entryPoint: "upgrade", historyLimit: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateModes(tt.opts)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := config.Default()
	applyFlagOverrides(cliOptions{args: []string{"./override"}, output: "all.yml", dryRun: true, metricsAddr: ":9000"}, cfg)

	if cfg.CollectionPath != "./override" {
		t.Fatalf("unexpected collection path: %q", cfg.CollectionPath)
	}
	if cfg.Output.File != "all.yml" || !cfg.Output.DryRun {
		t.Fatalf("unexpected output config: %+v", cfg.Output)
	}
	if cfg.Observability.MetricsAddr != ":9000" {
		t.Fatalf("unexpected metrics addr: %q", cfg.Observability.MetricsAddr)
	}
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelError, logLevel(true, 0))
	assert.Equal(t, slog.LevelWarn, logLevel(false, 0))
	assert.Equal(t, slog.LevelInfo, logLevel(false, 1))
	assert.Equal(t, slog.LevelDebug, logLevel(false, 2))
	assert.Equal(t, util.LevelTrace, logLevel(false, 3))
	assert.Equal(t, util.LevelTrace, logLevel(false, 7))
}

func TestConfigureLogging_TraceLevelName(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	cleanup := configureLogging(&buf, false, false, 3)
	defer cleanup()
	util.Trace("kept variable", "name", "app_port")
	assert.Contains(t, buf.String(), "level=TRACE")
	assert.Contains(t, buf.String(), "name=app_port")
}

func writeFixture(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newFixtureCollection(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFixture(t, filepath.Join(root, "roles", "web", "tasks", "main.yml"), "- debug:\n    msg: \"{{ web_port | default(8080) }}\"\n")
	writeFixture(t, filepath.Join(root, "roles", "db", "tasks", "main.yml"), "- debug:\n    msg: \"{{ db_name }}\"\n")
	return root
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_VersionAndUsage(t *testing.T) {
	code, out, _ := runCLI(t, "-version")
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "argspec v"))

	code, _, _ = runCLI(t, "-no-such-flag")
	assert.Equal(t, 2, code)

	code, _, errOut := runCLI(t, "-list-roles", "-validate-only")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "cannot be combined")
}

func TestRun_DryRunPrintsSpecs(t *testing.T) {
	root := newFixtureCollection(t)

	code, out, _ := runCLI(t, "-collection-path", root, "-dry-run")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "# "+filepath.Join(root, "roles", "db", "meta", "argument_specs.yml"))
	assert.Contains(t, out, "db_name:")
	assert.Contains(t, out, "default: 8080")
	assert.Contains(t, out, "2 roles processed, 0 failed")

	_, err := os.Stat(filepath.Join(root, "roles", "web", "meta", "argument_specs.yml"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_GenerateAndValidate(t *testing.T) {
	root := newFixtureCollection(t)

	code, out, _ := runCLI(t, "-q", "-role", "web", root)
	require.Equal(t, 0, code)
	assert.Empty(t, out)
	assert.FileExists(t, filepath.Join(root, "roles", "web", "meta", "argument_specs.yml"))
	assert.NoFileExists(t, filepath.Join(root, "roles", "db", "meta", "argument_specs.yml"))

	code, out, _ = runCLI(t, "-validate-only", root)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "ok   web")
	assert.Contains(t, out, "skip db")

	writeFixture(t, filepath.Join(root, "roles", "db", "meta", "argument_specs.yml"),
		"argument_specs:\n  main:\n    options:\n      db_name:\n        required: true\n")
	code, out, _ = runCLI(t, "-validate-only", "-role", "db", root)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "main.db_name: missing type")
}

func TestRun_ListRolesAndUnknownRole(t *testing.T) {
	root := newFixtureCollection(t)

	code, out, _ := runCLI(t, "-list-roles", root)
	require.Equal(t, 0, code)
	assert.Equal(t, "db\nweb\n", out)

	code, _, errOut := runCLI(t, "-role", "nope", root)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "role not found: nope")

	code, _, _ = runCLI(t, "-list-roles", t.TempDir())
	assert.Equal(t, 1, code)
}

func TestRun_ExplicitConfigMustExist(t *testing.T) {
	code, _, errOut := runCLI(t, "-config", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "failed to load config")
}

func TestRun_HistoryListing(t *testing.T) {
	root := newFixtureCollection(t)
	cfgPath := filepath.Join(root, "argspec.toml")
	writeFixture(t, cfgPath, fmt.Sprintf("collection_path = %q\n\n[history]\nenabled = true\n", root))

	code, _, _ := runCLI(t, "-config", cfgPath, "-q")
	require.Equal(t, 0, code)
	assert.FileExists(t, filepath.Join(root, ".argspec", "history.db"))

	code, out, _ := runCLI(t, "-config", cfgPath, "-history")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "ROLE")
	assert.Contains(t, out, "web")
	assert.Contains(t, out, "db")

	code, _, _ = runCLI(t, "-config", cfgPath, "-q")
	require.Equal(t, 0, code)

	code, out, _ = runCLI(t, "-config", cfgPath, "-history", "-role", "web")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Trend: web")
	assert.Contains(t, out, "first run")
	assert.Contains(t, out, "options +0, entry points +0")
}

func TestRun_FromDefaults(t *testing.T) {
	roleDir := filepath.Join(t.TempDir(), "web")
	defaultsPath := filepath.Join(roleDir, "defaults", "main.yml")
	writeFixture(t, defaultsPath, "web_port: 8080\nweb_users: []\ndebug_mode: false\n")

	code, out, _ := runCLI(t, "-single-role", "-from-defaults", defaultsPath, "-entry-point", "install", "-dry-run", roleDir)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "  install:\n")
	assert.Contains(t, out, "short_description: Auto-generated from")
	assert.Contains(t, out, "default: 8080")
	assert.NotContains(t, out, "required: true")
	assert.NoFileExists(t, filepath.Join(roleDir, "meta", "argument_specs.yml"))

	code, _, _ = runCLI(t, "-q", "-single-role", "-from-defaults", defaultsPath, roleDir)
	require.Equal(t, 0, code)
	data, err := os.ReadFile(filepath.Join(roleDir, "meta", "argument_specs.yml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "  main:\n")
	assert.Contains(t, string(data), "debug_mode:")

	code, _, errOut := runCLI(t, "-single-role", "-from-defaults", filepath.Join(roleDir, "missing.yml"), roleDir)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "generation from defaults failed")
}
