// # internal/engine/spec/assemble.go
package spec

import (
	"argspec/internal/engine/parser"
	"argspec/internal/engine/resolver"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

const mainEntryPoint = "main"

// AnalyzeRole runs the whole pipeline for one role. Problems with individual
// files are recorded in the diagnostics; AnalyzeRole itself never fails.
func AnalyzeRole(in RoleInput, opts Options) *RoleAnalysis {
	analysis := &RoleAnalysis{Role: in.Name}
	diag := &analysis.Diagnostics
	filter := resolver.NewFilter(opts.ExcludeVariables, opts.ExcludePrefixes)

	sources := append([]SourceFile(nil), in.TaskFiles...)
	sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })

	var files []*parser.TaskFile
	kept := make(map[string][]parser.Reference)
	for _, src := range sources {
		diag.FilesScanned++
		if src.ReadErr != nil {
			diag.FilesSkipped++
			diag.SkippedFiles = append(diag.SkippedFiles, src.ID)
			slog.Warn("skipping unreadable task file", "role", in.Name, "path", src.ID, "error", src.ReadErr)
			continue
		}

		tf := parser.ParseTaskFile(src.ID, src.Content)
		if !tf.Parsed {
			diag.FilesSkipped++
			diag.SkippedFiles = append(diag.SkippedFiles, src.ID)
			slog.Warn("skipping unparseable task file", "role", in.Name, "path", src.ID, "error", tf.Err)
			continue
		}
		diag.MalformedExpressions += tf.MalformedExpressions

		res := filter.Apply(tf)
		diag.ExcludedBuiltin += res.Excluded[resolver.ReasonBuiltin]
		diag.ExcludedLoopLocal += res.Excluded[resolver.ReasonLoopLocal]
		diag.ExcludedRegistered += res.Excluded[resolver.ReasonRegistered]
		kept[tf.ID] = res.Kept
		files = append(files, tf)
	}

	defaults := map[string]parser.Literal{}
	if len(in.Defaults) > 0 {
		parsed, err := ParseDefaults(in.Defaults)
		if err != nil {
			slog.Warn("ignoring undecodable role defaults", "role", in.Name, "error", err)
		}
		defaults = parsed
	}

	meta := ParseMeta(in.Meta)
	version := ParseCollectionVersion(in.Galaxy)
	if version == "" {
		version = meta.Version
	}
	existing := map[string]ExistingEntryPoint{}
	if len(in.Existing) > 0 {
		parsed, err := ParseExisting(in.Existing)
		if err != nil {
			slog.Warn("ignoring undecodable existing argument specs", "role", in.Name, "error", err)
		} else {
			existing = parsed
		}
	}

	byStem := make(map[string]*parser.TaskFile, len(files))
	for _, tf := range files {
		byStem[tf.Stem()] = tf
	}

	entryPoints := in.EntryPoints
	if len(entryPoints) == 0 {
		entryPoints = DiscoverEntryPoints(files)
	}

	scoped := make(map[string]bool)
	for _, name := range sortEntryPoints(entryPoints) {
		members := includeClosure(name, byStem)
		ep := EntryPointSpec{
			Name:    name,
			Options: Aggregate(members, kept, defaults),
		}
		dropScopedNames(&ep, members, filter, scoped, diag)
		applyHeader(&ep, in.Name, meta, existing[name], members)
		preserveDescriptions(&ep, existing[name])
		stampVersions(&ep, existing[name], version)
		analysis.EntryPoints = append(analysis.EntryPoints, ep)
	}

	slog.Debug("role analyzed",
		"role", in.Name,
		"entry_points", len(analysis.EntryPoints),
		"files_scanned", diag.FilesScanned,
		"files_skipped", diag.FilesSkipped,
		"malformed", diag.MalformedExpressions,
		"excluded_builtin", diag.ExcludedBuiltin,
		"excluded_loop_local", diag.ExcludedLoopLocal,
		"excluded_registered", diag.ExcludedRegistered,
	)
	return analysis
}

// stampVersions sets version_added. A value already on disk wins; an option
// the spec file already declared without one keeps none; a new option gets
// the current version.
func stampVersions(ep *EntryPointSpec, existing ExistingEntryPoint, version string) {
	for name, opt := range ep.Options {
		prev, declared := existing.Options[name]
		switch {
		case prev.VersionAdded != "":
			opt.VersionAdded = prev.VersionAdded
		case declared:
			opt.VersionAdded = ""
		default:
			opt.VersionAdded = version
		}
	}
}

// dropScopedNames removes options that some file of the include closure
// registers or binds as a loop variable. Per-file filtering misses these when
// the binding and the use live in different files. counted keeps each name
// from being counted twice across entry points.
func dropScopedNames(ep *EntryPointSpec, members []*parser.TaskFile, filter *resolver.Filter, counted map[string]bool, diag *Diagnostics) {
	scope := &parser.TaskFile{Registered: make(map[string]bool), LoopVars: make(map[string]bool)}
	for _, tf := range members {
		for name := range tf.Registered {
			scope.Registered[name] = true
		}
		for name := range tf.LoopVars {
			scope.LoopVars[name] = true
		}
	}

	for name := range ep.Options {
		reason := filter.Reason(name, scope)
		if reason != resolver.ReasonRegistered && reason != resolver.ReasonLoopLocal {
			continue
		}
		delete(ep.Options, name)
		if counted[name] {
			continue
		}
		counted[name] = true
		if reason == resolver.ReasonRegistered {
			diag.ExcludedRegistered++
		} else {
			diag.ExcludedLoopLocal++
		}
		slog.Debug("dropped name bound in included file", "entry_point", ep.Name, "name", name, "reason", reason)
	}
}

// DiscoverEntryPoints returns main plus every task file that no other file
// includes.
func DiscoverEntryPoints(files []*parser.TaskFile) []string {
	included := make(map[string]bool)
	for _, tf := range files {
		for _, inc := range tf.Includes {
			if inc != tf.Stem() {
				included[inc] = true
			}
		}
	}

	names := []string{mainEntryPoint}
	for _, tf := range files {
		stem := tf.Stem()
		if stem == mainEntryPoint || included[stem] {
			continue
		}
		names = append(names, stem)
	}
	return names
}

func sortEntryPoints(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i] == mainEntryPoint || out[j] == mainEntryPoint {
			return out[i] == mainEntryPoint && out[j] != mainEntryPoint
		}
		return out[i] < out[j]
	})
	return out
}

// includeClosure returns the entry point's own file plus everything it
// includes, directly or transitively. Unknown stems are ignored.
func includeClosure(entry string, byStem map[string]*parser.TaskFile) []*parser.TaskFile {
	var out []*parser.TaskFile
	visited := make(map[string]bool)
	queue := []string{entry}
	for len(queue) > 0 {
		stem := queue[0]
		queue = queue[1:]
		if visited[stem] {
			continue
		}
		visited[stem] = true
		tf, ok := byStem[stem]
		if !ok {
			continue
		}
		out = append(out, tf)
		queue = append(queue, tf.Includes...)
	}
	return out
}

func applyHeader(ep *EntryPointSpec, role string, meta RoleMeta, existing ExistingEntryPoint, members []*parser.TaskFile) {
	switch {
	case existing.HasShortDescription:
		ep.ShortDescription = existing.ShortDescription
	case meta.ShortDescription != "":
		ep.ShortDescription = meta.ShortDescription
	case ep.Name == mainEntryPoint:
		ep.ShortDescription = fmt.Sprintf("Auto-generated specs for %s role - %s entry point", role, ep.Name)
	default:
		ep.ShortDescription = fmt.Sprintf("Standalone task file: %s", ep.Name)
	}

	switch {
	case len(existing.Description) > 0:
		ep.Description = existing.Description
	case len(meta.Description) > 0:
		ep.Description = append([]string(nil), meta.Description...)
	default:
		ep.Description = []string{
			fmt.Sprintf("Automatically generated argument specification for the %s role.", role),
			fmt.Sprintf("Entry point: %s", ep.Name),
		}
		var included []string
		for _, tf := range members {
			if tf.Stem() != ep.Name {
				included = append(included, tf.Stem())
			}
		}
		if len(included) > 0 {
			sort.Strings(included)
			ep.Description = append(ep.Description, "Includes task files: "+strings.Join(included, ", "))
		}
	}

	if existing.HasAuthor {
		ep.Author = existing.Author
	} else {
		ep.Author = append([]string(nil), meta.Author...)
	}

	if len(existing.Conditionals) > 0 {
		ep.Conditionals = make(map[string][]any, len(existing.Conditionals))
		for key, items := range existing.Conditionals {
			ep.Conditionals[key] = cloneValue(items).([]any)
		}
	}
}

// preserveDescriptions keeps hand-written option descriptions from the spec
// file already on disk.
func preserveDescriptions(ep *EntryPointSpec, existing ExistingEntryPoint) {
	for name, opt := range existing.Options {
		if spec, ok := ep.Options[name]; ok && opt.Description != "" {
			spec.Description = opt.Description
		}
	}
}
