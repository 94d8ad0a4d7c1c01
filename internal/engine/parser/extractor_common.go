package parser

import (
	"strings"
)

func trimQuoted(value string) string {
	value = strings.TrimSpace(value)
	return strings.Trim(value, "\"'`")
}

func appendUnique(values []string, seen map[string]bool, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return values
	}
	if seen[value] {
		return values
	}
	seen[value] = true
	return append(values, value)
}

// shortModuleName maps fully qualified collection names such as
// ansible.builtin.copy to the bare module name.
func shortModuleName(key string) string {
	key = strings.TrimSpace(key)
	if idx := strings.LastIndex(key, "."); idx != -1 {
		return key[idx+1:]
	}
	return key
}

func isIdentifier(value string) bool {
	if value == "" {
		return false
	}
	for i, r := range value {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func hasTemplateDelimiters(value string) bool {
	return strings.Contains(value, "{{") || strings.Contains(value, "{%")
}
