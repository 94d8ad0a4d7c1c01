// # internal/engine/spec/types.go
package spec

import (
	"argspec/internal/engine/infer"
	"argspec/internal/engine/parser"
	"argspec/internal/shared/util"
)

// ArgumentSpec declares one input variable of an entry point. Required is
// true exactly when Default is nil.
type ArgumentSpec struct {
	Name        string
	Type        infer.Type
	Required    bool
	Default     *parser.Literal
	Description string
	Choices     []any
	Elements    infer.Type
	// VersionAdded is the collection or role version that introduced the
	// option. Empty means unknown or part of the original interface.
	VersionAdded string
}

// ConditionalKeys are the entry-point level constraint lists carried over
// from an existing spec file.
var ConditionalKeys = []string{"mutually_exclusive", "required_if", "required_one_of", "required_together"}

type EntryPointSpec struct {
	Name             string
	ShortDescription string
	Description      []string
	Author           []string
	Options          map[string]*ArgumentSpec
	// Conditionals holds required_if and friends verbatim, keyed by name.
	Conditionals map[string][]any
}

// OptionNames returns the option keys in ordinal order.
func (e *EntryPointSpec) OptionNames() []string {
	return util.SortedStringKeys(e.Options)
}

type Diagnostics struct {
	FilesScanned         int
	FilesSkipped         int
	MalformedExpressions int
	ExcludedBuiltin      int
	ExcludedLoopLocal    int
	ExcludedRegistered   int
	SkippedFiles         []string
}

// RoleAnalysis is everything generated for one role. EntryPoints are sorted
// with main first.
type RoleAnalysis struct {
	Role        string
	EntryPoints []EntryPointSpec
	Diagnostics Diagnostics
}

// OptionCount counts options across every entry point.
func (r *RoleAnalysis) OptionCount() int {
	total := 0
	for _, ep := range r.EntryPoints {
		total += len(ep.Options)
	}
	return total
}

// SourceFile is one task file as read by the caller. ReadErr marks a file
// that could not be read; its Content is ignored.
type SourceFile struct {
	ID      string
	Content []byte
	ReadErr error
}

type RoleInput struct {
	Name      string
	TaskFiles []SourceFile
	// Meta, Defaults and Existing hold meta/main.yml, defaults/main.yml and
	// the current meta/argument_specs.yml. Each may be nil.
	Meta     []byte
	Defaults []byte
	Existing []byte
	// Galaxy holds the enclosing collection's galaxy.yml, if any. Its
	// version takes precedence over the role's own.
	Galaxy []byte
	// EntryPoints overrides entry point discovery when non-empty.
	EntryPoints []string
}

type Options struct {
	ExcludeVariables []string
	ExcludePrefixes  []string
}
