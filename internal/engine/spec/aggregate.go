// # internal/engine/spec/aggregate.go
package spec

import (
	"argspec/internal/engine/infer"
	"argspec/internal/engine/parser"
	"argspec/internal/shared/util"
	"sort"
)

type evidence struct {
	def     *parser.Literal
	choices []parser.Literal
	usage   string
}

// Aggregate merges the kept references of files into one options mapping.
// Files are visited by ID and references by position, so the result does not
// depend on the order of files. Role defaults outrank inline defaults and
// become options even when no file references them. Unparsed files are
// ignored.
func Aggregate(files []*parser.TaskFile, kept map[string][]parser.Reference, roleDefaults map[string]parser.Literal) map[string]*ArgumentSpec {
	ordered := make([]*parser.TaskFile, 0, len(files))
	for _, f := range files {
		if f != nil && f.Parsed {
			ordered = append(ordered, f)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	seen := make(map[string]*evidence)
	for _, name := range util.SortedStringKeys(roleDefaults) {
		def := roleDefaults[name]
		seen[name] = &evidence{def: &def}
	}

	for _, f := range ordered {
		refs := append([]parser.Reference(nil), kept[f.ID]...)
		sort.SliceStable(refs, func(i, j int) bool {
			a, b := refs[i].Location, refs[j].Location
			if a.Line != b.Line {
				return a.Line < b.Line
			}
			if a.Column != b.Column {
				return a.Column < b.Column
			}
			return refs[i].Seq < refs[j].Seq
		})

		for _, ref := range refs {
			ev, ok := seen[ref.Name]
			if !ok {
				ev = &evidence{}
				seen[ref.Name] = ev
			}
			if ev.def == nil && ref.Default != nil {
				ev.def = ref.Default
			}
			if ev.choices == nil && len(ref.Choices) > 0 {
				ev.choices = ref.Choices
			}
			if ev.usage == "" {
				ev.usage = ref.Usage
			}
		}
	}

	options := make(map[string]*ArgumentSpec, len(seen))
	for name, ev := range seen {
		options[name] = buildSpec(name, ev)
	}
	return options
}

func buildSpec(name string, ev *evidence) *ArgumentSpec {
	res := infer.Infer(name, ev.def, ev.usage)
	spec := &ArgumentSpec{
		Name:        name,
		Type:        res.Type,
		Required:    ev.def == nil,
		Description: res.Description,
		Elements:    res.Elements,
	}
	if ev.def != nil {
		def := parser.Literal{Kind: ev.def.Kind, Value: cloneValue(ev.def.Value)}
		spec.Default = &def
	}
	for _, choice := range ev.choices {
		spec.Choices = append(spec.Choices, cloneValue(choice.Value))
	}
	return spec
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	}
	return v
}

