// # internal/output/yaml.go
package output

import (
	"argspec/internal/engine/infer"
	"argspec/internal/engine/parser"
	"argspec/internal/engine/spec"
	"argspec/internal/shared/util"
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	documentStart = "---\n"
	documentEnd   = "...\n"
	rootKey       = "argument_specs"
)

// yaml11Bools are plain words a YAML 1.1 reader would load as booleans.
var yaml11Bools = map[string]bool{
	"y": true, "n": true,
	"yes": true, "no": true,
	"on": true, "off": true,
}

// EmitYAML renders the entry points of every analysis as one argument_specs
// document. Keys are sorted at every level and every node is built fresh,
// so the output never contains anchors or aliases.
func EmitYAML(analyses ...*spec.RoleAnalysis) (string, error) {
	entries := make(map[string]*yaml.Node)
	for _, a := range analyses {
		if a == nil {
			continue
		}
		for i := range a.EntryPoints {
			ep := &a.EntryPoints[i]
			if _, dup := entries[ep.Name]; dup {
				return "", fmt.Errorf("duplicate entry point %q", ep.Name)
			}
			entries[ep.Name] = entryPointNode(ep)
		}
	}

	root := mappingNode()
	appendPair(root, rootKey, sortedMapping(entries))

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return "", fmt.Errorf("encode argument specs: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode argument specs: %w", err)
	}

	body := strings.TrimSuffix(buf.String(), documentEnd)
	return documentStart + trimTrailingSpace(body) + documentEnd, nil
}

func entryPointNode(ep *spec.EntryPointSpec) *yaml.Node {
	fields := map[string]*yaml.Node{
		"short_description": stringNode(ep.ShortDescription),
	}
	if len(ep.Description) > 0 {
		fields["description"] = stringSequence(ep.Description)
	}
	if len(ep.Author) > 0 {
		fields["author"] = stringSequence(ep.Author)
	}
	for key, items := range ep.Conditionals {
		if len(items) > 0 {
			fields[key] = valueNode(items)
		}
	}

	options := make(map[string]*yaml.Node, len(ep.Options))
	for name, opt := range ep.Options {
		options[name] = optionNode(opt)
	}
	fields["options"] = sortedMapping(options)
	return sortedMapping(fields)
}

func optionNode(opt *spec.ArgumentSpec) *yaml.Node {
	fields := map[string]*yaml.Node{
		"type":        stringNode(string(opt.Type)),
		"required":    boolNode(opt.Required),
		"description": stringNode(opt.Description),
	}
	if !opt.Required && opt.Default != nil {
		fields["default"] = literalNode(*opt.Default)
	}
	if len(opt.Choices) > 0 {
		fields["choices"] = valueNode(opt.Choices)
	}
	if opt.Type == infer.TypeList && opt.Elements != "" {
		fields["elements"] = stringNode(string(opt.Elements))
	}
	if opt.VersionAdded != "" {
		fields["version_added"] = stringNode(opt.VersionAdded)
	}
	return sortedMapping(fields)
}

func literalNode(lit parser.Literal) *yaml.Node {
	if lit.Kind == parser.LiteralNull {
		return nullNode()
	}
	return valueNode(lit.Value)
}

// valueNode converts plain Go values from literals and decoded documents.
func valueNode(v any) *yaml.Node {
	switch val := v.(type) {
	case nil:
		return nullNode()
	case bool:
		return boolNode(val)
	case int:
		return scalarNode("!!int", strconv.Itoa(val))
	case int64:
		return scalarNode("!!int", strconv.FormatInt(val, 10))
	case uint64:
		return scalarNode("!!int", strconv.FormatUint(val, 10))
	case float64:
		return floatNode(val)
	case string:
		return stringNode(val)
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range val {
			seq.Content = append(seq.Content, valueNode(item))
		}
		return seq
	case map[string]any:
		fields := make(map[string]*yaml.Node, len(val))
		for k, item := range val {
			fields[k] = valueNode(item)
		}
		return sortedMapping(fields)
	case map[any]any:
		return valueNode(parser.LiteralOf(val).Value)
	}
	return stringNode(fmt.Sprint(v))
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func sortedMapping(fields map[string]*yaml.Node) *yaml.Node {
	node := mappingNode()
	for _, k := range util.SortedStringKeys(fields) {
		appendPair(node, k, fields[k])
	}
	return node
}

func appendPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, stringNode(key), value)
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// stringNode lets the encoder quote values that would load as another type
// and quotes YAML 1.1 boolean words itself.
func stringNode(s string) *yaml.Node {
	node := scalarNode("!!str", s)
	if yaml11Bools[strings.ToLower(s)] {
		node.Style = yaml.DoubleQuotedStyle
	}
	return node
}

func stringSequence(items []string) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, item := range items {
		seq.Content = append(seq.Content, stringNode(item))
	}
	return seq
}

func boolNode(b bool) *yaml.Node {
	return scalarNode("!!bool", strconv.FormatBool(b))
}

func nullNode() *yaml.Node {
	return scalarNode("!!null", "null")
}

func floatNode(f float64) *yaml.Node {
	switch {
	case math.IsNaN(f):
		return scalarNode("!!float", ".nan")
	case math.IsInf(f, 1):
		return scalarNode("!!float", ".inf")
	case math.IsInf(f, -1):
		return scalarNode("!!float", "-.inf")
	}
	return scalarNode("!!float", infer.FormatNumber(f))
}

func trimTrailingSpace(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}
