package output

import (
	"argspec/internal/engine/parser"
	"argspec/internal/engine/spec"
	"encoding/json"
	"fmt"
	"strings"
)

type MarkdownGenerator struct {
	analyses []*spec.RoleAnalysis
}

func NewMarkdownGenerator(analyses []*spec.RoleAnalysis) *MarkdownGenerator {
	return &MarkdownGenerator{analyses: analyses}
}

// Generate renders a section per role and a table per entry point.
func (m *MarkdownGenerator) Generate() (string, error) {
	var b strings.Builder
	b.WriteString("# Role argument specs\n")

	for _, a := range m.analyses {
		if a == nil {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n", a.Role)
		d := a.Diagnostics
		fmt.Fprintf(&b, "\nFiles scanned: %d, skipped: %d, malformed expressions: %d\n",
			d.FilesScanned, d.FilesSkipped, d.MalformedExpressions)

		for i := range a.EntryPoints {
			ep := &a.EntryPoints[i]
			fmt.Fprintf(&b, "\n### %s\n\n", ep.Name)
			if ep.ShortDescription != "" {
				fmt.Fprintf(&b, "%s\n\n", ep.ShortDescription)
			}
			if len(ep.Options) == 0 {
				b.WriteString("_No options._\n")
				continue
			}
			b.WriteString("| Option | Type | Required | Default | Description |\n")
			b.WriteString("|---|---|---|---|---|\n")
			for _, name := range ep.OptionNames() {
				opt := ep.Options[name]
				def := formatDefault(opt)
				if def != "" {
					def = "`" + def + "`"
				}
				fmt.Fprintf(&b, "| `%s` | %s | %t | %s | %s |\n",
					name, opt.Type, opt.Required, mdCell(def), mdCell(opt.Description))
			}
		}
	}

	return b.String(), nil
}

func mdCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", "<br>")
}

// formatDefault renders a default compactly; scalars print bare and
// collections as JSON.
func formatDefault(opt *spec.ArgumentSpec) string {
	if opt.Required || opt.Default == nil {
		return ""
	}
	switch opt.Default.Kind {
	case parser.LiteralNull:
		return "null"
	case parser.LiteralList, parser.LiteralDict:
		data, err := json.Marshal(opt.Default.Value)
		if err != nil {
			return fmt.Sprint(opt.Default.Value)
		}
		return string(data)
	}
	return fmt.Sprint(opt.Default.Value)
}
