package app

import (
	"argspec/internal/core/ports"
	"argspec/internal/core/watcher"
	"context"
	"log/slog"
	"sort"
)

// Watch runs an initial generation, then regenerates the roles owning each
// batch of changed files until ctx is cancelled. Regenerations of one role
// are rate limited; batches are handled one at a time.
func (a *App) Watch(ctx context.Context, req ports.GenerateRequest, onResult func(ports.GenerateResult)) error {
	res, err := a.Generate(ctx, req)
	if err != nil {
		return err
	}
	if onResult != nil {
		onResult(res)
	}

	cfg, paths, _ := a.snapshot()
	root := paths.RolesDir
	if a.opts.SingleRole {
		root = paths.CollectionRoot
	}

	w, err := watcher.NewWatcher(cfg.Watch.Debounce, nil, cfg.Discovery.ExcludeFiles, func(changed []string) {
		a.handleChanges(ctx, req, changed, onResult)
	})
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch([]string{root}); err != nil {
		return err
	}
	slog.Info("watching for changes", "path", root)

	<-ctx.Done()
	return nil
}

func (a *App) handleChanges(ctx context.Context, req ports.GenerateRequest, changed []string, onResult func(ports.GenerateResult)) {
	_, paths, _ := a.snapshot()
	roles, err := a.discoverRoles(paths)
	if err != nil {
		slog.Error("role discovery failed", "error", err)
		return
	}

	affected := make(map[string]bool)
	for _, path := range changed {
		if role, ok := roleForPath(roles, path); ok {
			affected[role.Name] = true
		}
	}
	if len(affected) == 0 {
		return
	}

	names := make([]string, 0, len(affected))
	for name := range affected {
		a.configMu.RLock()
		limiter := a.limiters.Get(name)
		a.configMu.RUnlock()
		if err := limiter.Wait(ctx, 1); err != nil {
			return
		}
		names = append(names, name)
	}
	sort.Strings(names)
	slog.Info("regenerating", "roles", names, "changed", len(changed))

	next := req
	next.Roles = names
	res, err := a.Generate(ctx, next)
	if err != nil {
		slog.Error("regeneration failed", "error", err)
		return
	}
	if onResult != nil {
		onResult(res)
	}
}
