// # internal/engine/resolver/resolver.go
package resolver

import (
	"argspec/internal/engine/parser"
	"argspec/internal/shared/util"
	"strings"
)

type Reason string

const (
	ReasonRegistered Reason = "registered"
	ReasonLoopLocal  Reason = "loop_local"
	ReasonBuiltin    Reason = "builtin"
)

// Result holds the references that survive filtering, in source order, and
// the number of distinct names excluded per reason.
type Result struct {
	Kept     []parser.Reference
	Excluded map[Reason]int
}

// Filter removes names that are not external inputs to a role.
type Filter struct {
	extraNames    map[string]bool
	extraPrefixes []string
}

func NewFilter(extraNames, extraPrefixes []string) *Filter {
	f := &Filter{extraNames: make(map[string]bool, len(extraNames))}
	for _, name := range extraNames {
		if name = strings.TrimSpace(name); name != "" {
			f.extraNames[name] = true
		}
	}
	for _, prefix := range extraPrefixes {
		if prefix = strings.TrimSpace(prefix); prefix != "" {
			f.extraPrefixes = append(f.extraPrefixes, prefix)
		}
	}
	return f
}

// Reason classifies one name against a file's registrations and loop
// bindings. The empty reason means the name is kept.
func (f *Filter) Reason(name string, file *parser.TaskFile) Reason {
	switch {
	case file.Registered[name]:
		return ReasonRegistered
	case IsLoopLocal(name, file.LoopVars):
		return ReasonLoopLocal
	case IsBuiltin(name, f.extraNames, f.extraPrefixes):
		return ReasonBuiltin
	}
	return ""
}

func (f *Filter) Apply(file *parser.TaskFile) Result {
	res := Result{Excluded: make(map[Reason]int)}
	if file == nil {
		return res
	}

	counted := make(map[string]bool)
	for _, ref := range file.References {
		reason := ReasonRegistered
		if ref.Context != parser.ContextRegisteredOutput {
			reason = f.Reason(ref.Name, file)
		}
		if reason == "" {
			res.Kept = append(res.Kept, ref)
			continue
		}
		if !counted[ref.Name] {
			counted[ref.Name] = true
			res.Excluded[reason]++
			util.Trace("excluded variable", "file", file.ID, "name", ref.Name, "reason", reason)
		}
	}
	return res
}
