package app

import (
	"argspec/internal/core/config"
	"argspec/internal/core/errors"
	"argspec/internal/core/ports"
	"argspec/internal/shared/util"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// roleIndicators are the subdirectories that make a directory a role.
var roleIndicators = []string{"tasks", "defaults", "meta", "handlers", "templates", "files"}

// ListRoles discovers roles without analyzing them.
func (a *App) ListRoles(ctx context.Context) ([]ports.RoleRef, error) {
	_, paths, _ := a.snapshot()
	return a.discoverRoles(paths)
}

// discoverRoles returns the roles of the collection sorted by name, or the
// single configured role.
func (a *App) discoverRoles(paths config.ResolvedPaths) ([]ports.RoleRef, error) {
	if a.opts.SingleRole {
		info, err := os.Stat(paths.CollectionRoot)
		if err != nil || !info.IsDir() {
			return nil, errors.AddContext(
				errors.New(errors.CodeNotFound, "role directory not found"),
				errors.CtxPath, paths.CollectionRoot)
		}
		return []ports.RoleRef{{Name: filepath.Base(paths.CollectionRoot), Dir: paths.CollectionRoot}}, nil
	}

	entries, err := os.ReadDir(paths.RolesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.AddContext(
				errors.New(errors.CodeNotFound, "not an Ansible collection root: expected a roles/ directory"),
				errors.CtxPath, paths.CollectionRoot)
		}
		if os.IsPermission(err) {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodePermissionDenied, "read roles directory"),
				errors.CtxPath, paths.RolesDir)
		}
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeInternal, "read roles directory"),
			errors.CtxPath, paths.RolesDir)
	}

	roles := make([]ports.RoleRef, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if a.roleExcluded(name) {
			continue
		}
		dir := filepath.Join(paths.RolesDir, name)
		if !looksLikeRole(dir) {
			continue
		}
		roles = append(roles, ports.RoleRef{Name: name, Dir: dir})
	}
	if len(roles) == 0 {
		return nil, errors.AddContext(
			errors.New(errors.CodeNotFound, "no roles found"),
			errors.CtxPath, paths.RolesDir)
	}

	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

// selectRoles narrows the discovered roles to names. Unknown names are an
// error naming every missing role.
func (a *App) selectRoles(paths config.ResolvedPaths, names []string) ([]ports.RoleRef, error) {
	roles, err := a.discoverRoles(paths)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return roles, nil
	}

	byName := make(map[string]ports.RoleRef, len(roles))
	for _, r := range roles {
		byName[r.Name] = r
	}

	wanted := make(map[string]bool, len(names))
	var missing []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || wanted[name] {
			continue
		}
		wanted[name] = true
		if _, ok := byName[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errors.AddContext(
			errors.New(errors.CodeNotFound, fmt.Sprintf("role not found: %s", strings.Join(missing, ", "))),
			errors.CtxRole, strings.Join(missing, ","))
	}

	selected := make([]ports.RoleRef, 0, len(wanted))
	for _, r := range roles {
		if wanted[r.Name] {
			selected = append(selected, r)
		}
	}
	return selected, nil
}

func (a *App) roleExcluded(name string) bool {
	a.configMu.RLock()
	defer a.configMu.RUnlock()
	for _, g := range a.excludeRoles {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func looksLikeRole(dir string) bool {
	for _, indicator := range roleIndicators {
		if info, err := os.Stat(filepath.Join(dir, indicator)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// taskFiles lists tasks/*.yml and tasks/*.yaml, minus excluded files, sorted
// by name. A role without a tasks directory has none.
func (a *App) taskFiles(root string, role ports.RoleRef) ([]string, error) {
	dir := filepath.Join(role.Dir, "tasks")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !util.IsYAMLFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if a.fileExcluded(root, path) {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

// fileExcluded matches patterns containing a separator against the path
// relative to the collection root and other patterns against the base name.
func (a *App) fileExcluded(root, path string) bool {
	a.configMu.RLock()
	defer a.configMu.RUnlock()

	base := filepath.Base(path)
	rel := util.RelativePattern(root, path)
	for _, p := range a.excludeFiles {
		if p.fullPath {
			if p.g.Match(rel) {
				return true
			}
			continue
		}
		if p.g.Match(base) {
			return true
		}
	}
	return false
}

// roleForPath returns the role containing path, if any.
func roleForPath(roles []ports.RoleRef, path string) (ports.RoleRef, bool) {
	for _, r := range roles {
		if util.HasPathPrefix(path, r.Dir) {
			return r, true
		}
	}
	return ports.RoleRef{}, false
}
