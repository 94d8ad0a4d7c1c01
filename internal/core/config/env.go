package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: ARGSPEC_[SECTION]_[KEY] (e.g., ARGSPEC_OUTPUT_DRY_RUN).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.CollectionPath, "ARGSPEC_COLLECTION_PATH")

	// Discovery
	setEnvString(&cfg.Discovery.RolesDir, "ARGSPEC_DISCOVERY_ROLES_DIR")
	setEnvList(&cfg.Discovery.ExcludeRoles, "ARGSPEC_DISCOVERY_EXCLUDE_ROLES")
	setEnvList(&cfg.Discovery.ExcludeFiles, "ARGSPEC_DISCOVERY_EXCLUDE_FILES")

	// Exclude
	setEnvList(&cfg.Exclude.Variables, "ARGSPEC_EXCLUDE_VARIABLES")
	setEnvList(&cfg.Exclude.Prefixes, "ARGSPEC_EXCLUDE_PREFIXES")

	// Output
	setEnvString(&cfg.Output.File, "ARGSPEC_OUTPUT_FILE")
	setEnvString(&cfg.Output.TSV, "ARGSPEC_OUTPUT_TSV")
	setEnvString(&cfg.Output.Markdown, "ARGSPEC_OUTPUT_MARKDOWN")
	setEnvBool(&cfg.Output.DryRun, "ARGSPEC_OUTPUT_DRY_RUN")

	// History
	setEnvBool(&cfg.History.Enabled, "ARGSPEC_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "ARGSPEC_HISTORY_PATH")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "ARGSPEC_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.MaxRunsPerSecond, "ARGSPEC_WATCH_MAX_RUNS_PER_SECOND")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddr, "ARGSPEC_OBSERVABILITY_METRICS_ADDR")
	setEnvBool(&cfg.Observability.EnableTracing, "ARGSPEC_OBSERVABILITY_ENABLE_TRACING")
	setEnvString(&cfg.Observability.OTLPEndpoint, "ARGSPEC_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.OTLPInsecure, "ARGSPEC_OBSERVABILITY_OTLP_INSECURE")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

// setEnvList splits a comma separated value, dropping empty entries.
func setEnvList(target *[]string, key string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	var items []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	slog.Debug("applying env override", "key", key, "value", val)
	*target = items
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
