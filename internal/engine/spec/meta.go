package spec

import (
	"argspec/internal/engine/infer"
	"argspec/internal/engine/parser"
	"strings"

	"gopkg.in/yaml.v3"
)

// RoleMeta is the subset of meta/main.yml used for entry point headers.
type RoleMeta struct {
	ShortDescription string
	Description      []string
	Author           []string
	Version          string
}

var (
	authorFields           = []string{"author", "authors", "galaxy_info.author", "galaxy_info.authors"}
	shortDescriptionFields = []string{"short_description", "galaxy_info.short_description", "galaxy_info.summary"}
	descriptionFields      = []string{"description", "galaxy_info.description", "galaxy_info.role_description"}
	versionFields          = []string{"version", "galaxy_info.version", "galaxy_info.role_version"}
)

// ParseMeta reads role metadata. Missing or undecodable content yields empty
// metadata.
func ParseMeta(data []byte) RoleMeta {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil || doc == nil {
		return RoleMeta{}
	}

	var meta RoleMeta
	seen := make(map[string]bool)
	for _, field := range authorFields {
		for _, author := range stringList(nestedValue(doc, field)) {
			if !seen[author] {
				seen[author] = true
				meta.Author = append(meta.Author, author)
			}
		}
	}

	for _, field := range descriptionFields {
		if lines := stringList(nestedValue(doc, field)); len(lines) > 0 {
			meta.Description = lines
			break
		}
	}

	for _, field := range shortDescriptionFields {
		if s, ok := nestedValue(doc, field).(string); ok && strings.TrimSpace(s) != "" {
			meta.ShortDescription = strings.TrimSpace(s)
			break
		}
	}
	if meta.ShortDescription == "" {
		if s, ok := nestedValue(doc, "galaxy_info.description").(string); ok {
			meta.ShortDescription = firstLine(s)
		}
	}

	for _, field := range versionFields {
		if v := versionString(nestedValue(doc, field)); v != "" {
			meta.Version = v
			break
		}
	}
	return meta
}

// ParseCollectionVersion returns the version declared in galaxy.yml, or ""
// when there is none.
func ParseCollectionVersion(data []byte) string {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return ""
	}
	return versionString(doc["version"])
}

// versionString accepts versions written as strings or bare numbers.
func versionString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case int, int64, uint64, float64:
		return infer.FormatNumber(val)
	}
	return ""
}

// ParseDefaults reads defaults/main.yml into literals keyed by variable
// name. Undecodable content yields no defaults.
func ParseDefaults(data []byte) (map[string]parser.Literal, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return map[string]parser.Literal{}, err
	}
	out := make(map[string]parser.Literal, len(doc))
	for name, value := range doc {
		out[name] = parser.LiteralOf(value)
	}
	return out, nil
}

func nestedValue(doc map[string]any, path string) any {
	var current any = doc
	for _, key := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		if current, ok = m[key]; !ok {
			return nil
		}
	}
	return current
}

func stringList(v any) []string {
	var out []string
	switch val := v.(type) {
	case string:
		if s := strings.TrimSpace(val); s != "" {
			out = append(out, s)
		}
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
