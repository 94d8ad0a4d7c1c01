// # internal/engine/resolver/builtins.go
package resolver

// builtinPrefixes cover the facts and connection namespaces.
var builtinPrefixes = []string{
	"ansible_",
}

// builtinNames are context variables the runtime injects into every play.
var builtinNames = map[string]bool{
	"hostvars":                 true,
	"groups":                   true,
	"group_names":              true,
	"inventory_hostname":       true,
	"inventory_hostname_short": true,
	"inventory_dir":            true,
	"inventory_file":           true,
	"play_hosts":               true,
	"playbook_dir":             true,
	"role_path":                true,
	"role_name":                true,
	"role_names":               true,
	"omit":                     true,
	"vars":                     true,
	"environment":              true,
	"loop":                     true,
	"lookup":                   true,
	"query":                    true,
	"q":                        true,
	"undef":                    true,
	"range":                    true,
	// YAML 1.1 literal words that show up as bare identifiers.
	"yes":  true,
	"no":   true,
	"on":   true,
	"off":  true,
	"null": true,
}

// defaultLoopItem is the implicit loop variable name.
const defaultLoopItem = "item"

// BuiltinNames returns the static deny list in no particular order.
func BuiltinNames() []string {
	out := make([]string, 0, len(builtinNames))
	for name := range builtinNames {
		out = append(out, name)
	}
	return out
}
