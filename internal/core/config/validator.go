package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Validate runs every section validator and returns all failures.
func Validate(cfg *Config) []error {
	var errs []error
	for _, check := range []func(*Config) error{
		validateVersion,
		validateDiscovery,
		validateExclude,
		validateOutput,
		validateHistory,
		validateWatch,
		validateObservability,
	} {
		if err := check(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > CurrentVersion {
		return fmt.Errorf("unsupported config version %d; supported version is %d", cfg.Version, CurrentVersion)
	}
	return nil
}

func validateDiscovery(cfg *Config) error {
	dir := strings.TrimSpace(cfg.Discovery.RolesDir)
	if dir == "" {
		return fmt.Errorf("discovery.roles_dir must not be empty")
	}
	if filepath.IsAbs(dir) || strings.HasPrefix(filepath.Clean(dir), "..") {
		return fmt.Errorf("discovery.roles_dir must be relative to the collection, got %q", dir)
	}
	for i, pattern := range cfg.Discovery.ExcludeRoles {
		if err := validatePattern(pattern); err != nil {
			return fmt.Errorf("discovery.exclude_roles[%d]: %w", i, err)
		}
	}
	for i, pattern := range cfg.Discovery.ExcludeFiles {
		if err := validatePattern(pattern); err != nil {
			return fmt.Errorf("discovery.exclude_files[%d]: %w", i, err)
		}
	}
	return nil
}

func validatePattern(pattern string) error {
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("pattern must not be empty")
	}
	if _, err := glob.Compile(pattern, '/'); err != nil {
		return fmt.Errorf("invalid glob %q: %w", pattern, err)
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for i, name := range cfg.Exclude.Variables {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("exclude.variables[%d] must not be empty", i)
		}
	}
	for i, prefix := range cfg.Exclude.Prefixes {
		if strings.TrimSpace(prefix) == "" {
			return fmt.Errorf("exclude.prefixes[%d] must not be empty", i)
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	paths := map[string]string{
		"output.file":     cfg.Output.File,
		"output.tsv":      cfg.Output.TSV,
		"output.markdown": cfg.Output.Markdown,
	}
	seen := make(map[string]string, len(paths))
	for _, key := range []string{"output.file", "output.tsv", "output.markdown"} {
		p := strings.TrimSpace(paths[key])
		if p == "" {
			continue
		}
		clean := filepath.Clean(p)
		if other, dup := seen[clean]; dup {
			return fmt.Errorf("%s and %s both write to %q", other, key, p)
		}
		seen[clean] = key
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if cfg.History.Enabled && strings.TrimSpace(cfg.History.Path) == "" {
		return fmt.Errorf("history.path must not be empty when history is enabled")
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce)
	}
	if cfg.Watch.MaxRunsPerSecond < 0 {
		return fmt.Errorf("watch.max_runs_per_second must not be negative, got %g", cfg.Watch.MaxRunsPerSecond)
	}
	return nil
}

func validateObservability(cfg *Config) error {
	addr := strings.TrimSpace(cfg.Observability.MetricsAddr)
	if addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("observability.metrics_addr %q: %w", addr, err)
		}
	}
	if cfg.Observability.EnableTracing && strings.TrimSpace(cfg.Observability.OTLPEndpoint) == "" {
		return fmt.Errorf("observability.otlp_endpoint must be set when tracing is enabled")
	}
	return nil
}
