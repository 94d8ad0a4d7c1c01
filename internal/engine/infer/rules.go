// # internal/engine/infer/rules.go
package infer

import (
	"strings"
)

type Type string

const (
	TypeStr   Type = "str"
	TypeInt   Type = "int"
	TypeFloat Type = "float"
	TypeBool  Type = "bool"
	TypeList  Type = "list"
	TypeDict  Type = "dict"
	TypePath  Type = "path"
)

// KnownTypes lists every type an argument may declare.
var KnownTypes = []Type{TypeStr, TypeInt, TypeFloat, TypeBool, TypeList, TypeDict, TypePath}

// Rule is one row of the naming-convention table. A name matches when it
// equals one of Exact or starts or ends with one of the affixes. Match, when
// set, replaces the affix test.
type Rule struct {
	Name     string
	Type     Type
	Template string
	Prefixes []string
	Suffixes []string
	Exact    []string
	// Trim lists affixes removed from the name before it is rendered into
	// Template.
	Trim  []string
	Match func(name string) bool
}

func (r Rule) Matches(name string) bool {
	name = strings.ToLower(name)
	if r.Match != nil {
		return r.Match(name)
	}
	for _, exact := range r.Exact {
		if name == exact {
			return true
		}
	}
	for _, prefix := range r.Prefixes {
		if len(name) > len(prefix) && strings.HasPrefix(name, prefix) {
			return true
		}
	}
	for _, suffix := range r.Suffixes {
		if len(name) > len(suffix) && strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// subject is the part of name rendered into the description template.
func (r Rule) subject(name string) string {
	lower := strings.ToLower(name)
	for _, affix := range r.Trim {
		switch {
		case strings.HasSuffix(affix, "_") && len(lower) > len(affix) && strings.HasPrefix(lower, affix):
			return name[len(affix):]
		case strings.HasPrefix(affix, "_") && len(lower) > len(affix) && strings.HasSuffix(lower, affix):
			return name[:len(name)-len(affix)]
		}
	}
	return name
}

// Rules is evaluated top to bottom; the first match wins. Dict suffixes sit
// above the plural heuristic so names like nginx_settings stay mappings.
var Rules = []Rule{
	{
		Name:     "path",
		Type:     TypePath,
		Template: "Path to the %s",
		Suffixes: []string{"_path", "_dir", "_directory", "_file", "_folder", "_location"},
		Prefixes: []string{"path_", "dir_"},
		Exact:    []string{"path", "dir", "dest", "src"},
		Trim:     []string{"_path"},
	},
	{
		Name:     "bool-predicate",
		Type:     TypeBool,
		Template: "Whether %s",
		Prefixes: []string{"is_", "has_", "should_", "can_"},
		Exact:    []string{"enabled"},
	},
	{
		Name:     "bool-disable",
		Type:     TypeBool,
		Template: "Whether %s is disabled",
		Suffixes: []string{"_disabled"},
		Prefixes: []string{"disable_"},
		Trim:     []string{"_disabled", "disable_"},
	},
	{
		Name:     "bool-flag",
		Type:     TypeBool,
		Template: "Whether %s is enabled",
		Suffixes: []string{"_enabled", "_enable"},
		Prefixes: []string{"debug_", "force_", "enable_", "allow_", "use_", "skip_"},
		Exact:    []string{"debug", "force"},
		Trim:     []string{"_enabled", "_enable", "enable_"},
	},
	{
		Name:     "int-count",
		Type:     TypeInt,
		Template: "Number of %s",
		Suffixes: []string{"_count", "_num", "_number"},
		Prefixes: []string{"num_"},
		Trim:     []string{"num_", "_count", "_number", "_num"},
	},
	{
		Name:     "int-value",
		Type:     TypeInt,
		Template: "The %s value",
		Suffixes: []string{"_port", "_timeout", "_size", "_retries", "_delay", "_limit", "_interval"},
		Prefixes: []string{"max_", "min_"},
		Exact:    []string{"port", "timeout", "retries"},
	},
	{
		Name:     "list",
		Type:     TypeList,
		Template: "List of %s",
		Suffixes: []string{"_list", "_items", "_array"},
		Trim:     []string{"_list", "_items", "_array"},
	},
	{
		Name:     "dict",
		Type:     TypeDict,
		Template: "Configuration mapping for %s",
		Suffixes: []string{"_config", "_settings", "_options", "_map", "_dict"},
		Trim:     []string{"_config", "_settings", "_options", "_map", "_dict"},
	},
	{
		Name:     "list-plural",
		Type:     TypeList,
		Template: "List of %s",
		Match:    looksPlural,
	},
}

// Fallback applies when no rule matches.
var Fallback = Rule{
	Name:     "fallback",
	Type:     TypeStr,
	Template: "The %s parameter",
}

var singularEndings = []string{"ss", "us", "is", "os"}

var knownSingulars = map[string]bool{
	"status":   true,
	"address":  true,
	"alias":    true,
	"bias":     true,
	"canvas":   true,
	"class":    true,
	"process":  true,
	"access":   true,
	"progress": true,
	"news":     true,
	"series":   true,
	"species":  true,
	"https":    true,
	"dns":      true,
	"tls":      true,
	"aws":      true,
	"ssl":      true,
}

func looksPlural(name string) bool {
	last := name
	if idx := strings.LastIndexAny(name, "_-."); idx != -1 {
		last = name[idx+1:]
	}
	if len(last) < 3 || !strings.HasSuffix(last, "s") {
		return false
	}
	for _, ending := range singularEndings {
		if strings.HasSuffix(last, ending) {
			return false
		}
	}
	return !knownSingulars[last]
}

// Match returns the first rule matching name, or Fallback.
func Match(name string) Rule {
	for _, rule := range Rules {
		if rule.Matches(name) {
			return rule
		}
	}
	return Fallback
}
