package app

import (
	"argspec/internal/core/config"
	"argspec/internal/core/errors"
	"argspec/internal/core/ports"
	"argspec/internal/engine/spec"
	"argspec/internal/shared/util"
	"fmt"
	"sync"
	"time"

	"github.com/gobwas/glob"
)

var _ ports.GenerationService = (*App)(nil)

// Options control how the collection path is interpreted.
type Options struct {
	// SingleRole treats the collection path as one role directory.
	SingleRole bool
	// WorkDir resolves relative paths; empty means the process directory.
	WorkDir string
}

type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths
	opts   Options

	excludeRoles []glob.Glob
	excludeFiles []compiledPattern

	history ports.HistoryStore

	// runMu serializes generations so watch-mode batches never overlap.
	runMu    sync.Mutex
	configMu sync.RWMutex

	limiters *util.LimiterRegistry

	lastMu  sync.RWMutex
	lastRun *ports.GenerateResult
}

type compiledPattern struct {
	g        glob.Glob
	fullPath bool
}

func New(cfg *config.Config, opts Options) (*App, error) {
	a := &App{opts: opts}
	if err := a.applyConfig(cfg); err != nil {
		return nil, err
	}
	return a, nil
}

// SetHistory enables run recording. A nil store disables it.
func (a *App) SetHistory(store ports.HistoryStore) {
	a.configMu.Lock()
	defer a.configMu.Unlock()
	a.history = store
}

// UpdateConfig swaps in a reloaded configuration. The previous one stays
// active when the new one cannot be applied.
func (a *App) UpdateConfig(cfg *config.Config) error {
	return a.applyConfig(cfg)
}

func (a *App) applyConfig(cfg *config.Config) error {
	if cfg == nil {
		return errors.New(errors.CodeConfig, "configuration is required")
	}
	paths, err := config.ResolvePaths(cfg, a.opts.WorkDir)
	if err != nil {
		return errors.Wrap(err, errors.CodeConfig, "resolve paths")
	}

	roles := make([]glob.Glob, 0, len(cfg.Discovery.ExcludeRoles))
	for _, p := range cfg.Discovery.ExcludeRoles {
		g, err := glob.Compile(p)
		if err != nil {
			return errors.Wrap(err, errors.CodeConfig, fmt.Sprintf("invalid exclude role pattern %q", p))
		}
		roles = append(roles, g)
	}
	files := make([]compiledPattern, 0, len(cfg.Discovery.ExcludeFiles))
	for _, p := range cfg.Discovery.ExcludeFiles {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return errors.Wrap(err, errors.CodeConfig, fmt.Sprintf("invalid exclude file pattern %q", p))
		}
		files = append(files, compiledPattern{g: g, fullPath: util.ContainsPathSeparator(p)})
	}

	a.configMu.Lock()
	defer a.configMu.Unlock()
	a.Config = cfg
	a.Paths = paths
	a.excludeRoles = roles
	a.excludeFiles = files
	if a.limiters != nil {
		a.limiters.Close()
	}
	a.limiters = util.NewLimiterRegistry(cfg.Watch.MaxRunsPerSecond, 1, time.Minute)
	return nil
}

// snapshot returns the active configuration under the read lock.
func (a *App) snapshot() (*config.Config, config.ResolvedPaths, ports.HistoryStore) {
	a.configMu.RLock()
	defer a.configMu.RUnlock()
	return a.Config, a.Paths, a.history
}

func (a *App) specOptions(cfg *config.Config) spec.Options {
	return spec.Options{
		ExcludeVariables: append([]string(nil), cfg.Exclude.Variables...),
		ExcludePrefixes:  append([]string(nil), cfg.Exclude.Prefixes...),
	}
}

// Close releases background resources.
func (a *App) Close() {
	a.configMu.Lock()
	defer a.configMu.Unlock()
	if a.limiters != nil {
		a.limiters.Close()
		a.limiters = nil
	}
}

// LastRun returns the most recent generation result, if any.
func (a *App) LastRun() (ports.GenerateResult, bool) {
	a.lastMu.RLock()
	defer a.lastMu.RUnlock()
	if a.lastRun == nil {
		return ports.GenerateResult{}, false
	}
	return *a.lastRun, true
}

func (a *App) setLastRun(res ports.GenerateResult) {
	a.lastMu.Lock()
	defer a.lastMu.Unlock()
	a.lastRun = &res
}
