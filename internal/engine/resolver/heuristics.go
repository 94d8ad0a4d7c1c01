// # internal/engine/resolver/heuristics.go
package resolver

import (
	"strings"
)

// IsBuiltin reports whether name is a runtime-provided variable or one of
// the extra names and prefixes configured by the caller.
func IsBuiltin(name string, extraNames map[string]bool, extraPrefixes []string) bool {
	if len(name) < 2 || strings.HasPrefix(name, "_") {
		return true
	}
	if builtinNames[name] || extraNames[name] {
		return true
	}
	for _, prefix := range builtinPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	for _, prefix := range extraPrefixes {
		if prefix != "" && strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// IsLoopLocal reports whether name is bound by a loop in the file.
func IsLoopLocal(name string, loopVars map[string]bool) bool {
	return name == defaultLoopItem || loopVars[name]
}
