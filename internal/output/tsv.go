// # internal/output/tsv.go
package output

import (
	"argspec/internal/engine/spec"
	"fmt"
	"strings"
)

type TSVGenerator struct {
	analyses []*spec.RoleAnalysis
}

func NewTSVGenerator(analyses []*spec.RoleAnalysis) *TSVGenerator {
	return &TSVGenerator{analyses: analyses}
}

// Generate writes one row per option. Rows follow role order, then entry
// point order, then option name.
func (t *TSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("Role\tEntryPoint\tOption\tType\tRequired\tDefault\tDescription\n")
	for _, a := range t.analyses {
		if a == nil {
			continue
		}
		for i := range a.EntryPoints {
			ep := &a.EntryPoints[i]
			for _, name := range ep.OptionNames() {
				opt := ep.Options[name]
				buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%s\t%t\t%s\t%s\n",
					a.Role,
					ep.Name,
					name,
					opt.Type,
					opt.Required,
					cell(formatDefault(opt)),
					cell(opt.Description),
				))
			}
		}
	}

	return buf.String(), nil
}

func cell(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
}
