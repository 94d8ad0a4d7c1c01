package config

import (
	"time"
)

const (
	DefaultPath        = "argspec.toml"
	CurrentVersion     = 1
	DefaultRolesDir    = "roles"
	DefaultHistoryPath = ".argspec/history.db"
)

type Config struct {
	Version        int           `toml:"version"`
	CollectionPath string        `toml:"collection_path"`
	Discovery      Discovery     `toml:"discovery"`
	Exclude        Exclude       `toml:"exclude"`
	Output         Output        `toml:"output"`
	History        History       `toml:"history"`
	Watch          Watch         `toml:"watch"`
	Observability  Observability `toml:"observability"`
}

type Discovery struct {
	RolesDir     string   `toml:"roles_dir"`
	ExcludeRoles []string `toml:"exclude_roles"`
	ExcludeFiles []string `toml:"exclude_files"`
}

// Exclude lists extra variable names and prefixes treated as built in.
type Exclude struct {
	Variables []string `toml:"variables"`
	Prefixes  []string `toml:"prefixes"`
}

// Output.File, when set, receives every role's entry points in one document
// instead of per-role meta/argument_specs.yml files.
type Output struct {
	File     string `toml:"file"`
	TSV      string `toml:"tsv"`
	Markdown string `toml:"markdown"`
	DryRun   bool   `toml:"dry_run"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Watch struct {
	Debounce         time.Duration `toml:"debounce"`
	MaxRunsPerSecond float64       `toml:"max_runs_per_second"`
}

type Observability struct {
	MetricsAddr   string `toml:"metrics_addr"`
	EnableTracing bool   `toml:"enable_tracing"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	OTLPInsecure  bool   `toml:"otlp_insecure"`
	ServiceName   string `toml:"service_name"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = CurrentVersion
	}
	if cfg.CollectionPath == "" {
		cfg.CollectionPath = "."
	}
	if cfg.Discovery.RolesDir == "" {
		cfg.Discovery.RolesDir = DefaultRolesDir
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxRunsPerSecond == 0 {
		cfg.Watch.MaxRunsPerSecond = 2
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "argspec"
	}
	if cfg.Observability.OTLPEndpoint == "" {
		cfg.Observability.OTLPEndpoint = "localhost:4317"
	}
}
