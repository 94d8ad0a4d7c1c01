package parser

import (
	"testing"
)

func FuzzParseTaskFile(f *testing.F) {
	f.Add([]byte(`- name: install
  package:
    name: "{{ package_name | default('nginx') }}"
  when: install_enabled | bool
  loop: "{{ extra_packages }}"
`))
	f.Add([]byte("- debug:\n    msg: \"{{ broken( }}\"\n"))
	f.Fuzz(func(t *testing.T, data []byte) {
		tf := ParseTaskFile("fuzz.yml", data)
		if tf == nil {
			t.Fatal("ParseTaskFile returned nil")
		}
		if !tf.Parsed && len(tf.References) > 0 {
			t.Fatalf("unparsed file produced %d references", len(tf.References))
		}
	})
}

func FuzzAnalyzeExpression(f *testing.F) {
	f.Add("user.name | default('x') ~ items[0]")
	f.Add("a in [1, 2, 'three']")
	f.Fuzz(func(t *testing.T, expr string) {
		_, _ = analyzeExpression(expr)
		_, _ = analyzeStatement(expr)
	})
}
