package parser

import (
	"path/filepath"
	"sort"
	"strings"
)

// RefContext names the syntactic position a reference was harvested from.
type RefContext string

const (
	ContextTemplatedValue   RefContext = "templated_value"
	ContextConditional      RefContext = "conditional"
	ContextAssertion        RefContext = "assertion"
	ContextLoopSource       RefContext = "loop_source"
	ContextRegisteredOutput RefContext = "registered_output"
)

type LiteralKind string

const (
	LiteralBool  LiteralKind = "bool"
	LiteralInt   LiteralKind = "int"
	LiteralFloat LiteralKind = "float"
	LiteralStr   LiteralKind = "str"
	LiteralList  LiteralKind = "list"
	LiteralDict  LiteralKind = "dict"
	LiteralNull  LiteralKind = "null"
)

// Literal is a constant observed in source. Value holds bool, int64, float64,
// string, []any, map[string]any or nil depending on Kind.
type Literal struct {
	Kind  LiteralKind
	Value any
}

type Location struct {
	File   string
	Line   int
	Column int
}

type Reference struct {
	Name     string
	Context  RefContext
	Location Location
	Seq      int // harvest order within the file
	Default  *Literal
	Choices  []Literal
	Usage    string // module parameter hint, e.g. "destination file path (used in copy)"
}

// TaskFile is the result of one file's extraction pass.
type TaskFile struct {
	ID                   string
	Parsed               bool
	Err                  error
	References           []Reference
	Registered           map[string]bool
	LoopVars             map[string]bool
	Includes             []string
	MalformedExpressions int
}

func newTaskFile(id string) *TaskFile {
	return &TaskFile{
		ID:         id,
		Registered: make(map[string]bool),
		LoopVars:   make(map[string]bool),
	}
}

// Stem returns the file name without directory and YAML extension.
func (f *TaskFile) Stem() string {
	return Stem(f.ID)
}

// Names returns the distinct referenced names in sorted order.
func (f *TaskFile) Names() []string {
	seen := make(map[string]bool, len(f.References))
	out := make([]string, 0, len(f.References))
	for _, ref := range f.References {
		out = appendUnique(out, seen, ref.Name)
	}
	sort.Strings(out)
	return out
}

func Stem(path string) string {
	base := filepath.Base(strings.ReplaceAll(path, "\\", "/"))
	for _, ext := range []string{".yml", ".yaml"} {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			return base[:len(base)-len(ext)]
		}
	}
	return base
}
