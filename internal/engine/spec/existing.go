package spec

import (
	"argspec/internal/engine/parser"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ExistingOption is an option as declared in a spec file on disk.
type ExistingOption struct {
	Type        string
	Required    bool
	HasDefault  bool
	Default     any
	Description string
	Choices      []any
	Elements     string
	VersionAdded string
}

type ExistingEntryPoint struct {
	HasShortDescription bool
	ShortDescription    string
	Description         []string
	HasAuthor           bool
	Author              []string
	Options             map[string]ExistingOption
	Conditionals        map[string][]any
}

// ParseExisting decodes an argument_specs document keyed by entry point.
// Empty input yields an empty map.
func ParseExisting(data []byte) (map[string]ExistingEntryPoint, error) {
	var doc struct {
		ArgumentSpecs map[string]map[string]any `yaml:"argument_specs"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode argument specs: %w", err)
	}

	out := make(map[string]ExistingEntryPoint, len(doc.ArgumentSpecs))
	for name, raw := range doc.ArgumentSpecs {
		ep := ExistingEntryPoint{
			Options:      make(map[string]ExistingOption),
			Conditionals: make(map[string][]any),
		}
		if s, ok := raw["short_description"].(string); ok {
			ep.HasShortDescription = true
			ep.ShortDescription = s
		}
		ep.Description = stringList(raw["description"])
		if _, ok := raw["author"]; ok {
			ep.HasAuthor = true
			ep.Author = stringList(raw["author"])
		}
		if opts, ok := parser.LiteralOf(raw["options"]).Value.(map[string]any); ok {
			for optName, optRaw := range opts {
				ep.Options[optName] = existingOption(optRaw)
			}
		}
		for _, key := range ConditionalKeys {
			if items, ok := parser.LiteralOf(raw[key]).Value.([]any); ok {
				ep.Conditionals[key] = items
			}
		}
		out[name] = ep
	}
	return out, nil
}

func existingOption(raw any) ExistingOption {
	m, ok := raw.(map[string]any)
	if !ok {
		return ExistingOption{}
	}
	opt := ExistingOption{}
	opt.Type, _ = m["type"].(string)
	opt.Required, _ = m["required"].(bool)
	opt.Description = joinDescription(m["description"])
	opt.Elements, _ = m["elements"].(string)
	opt.VersionAdded = versionString(m["version_added"])
	if def, ok := m["default"]; ok {
		opt.HasDefault = true
		opt.Default = def
	}
	if choices, ok := m["choices"].([]any); ok {
		opt.Choices = choices
	}
	return opt
}

// joinDescription accepts the string or list-of-lines form.
func joinDescription(v any) string {
	lines := stringList(v)
	if len(lines) == 0 {
		return ""
	}
	out := lines[0]
	for _, line := range lines[1:] {
		out += " " + line
	}
	return out
}
