package parser

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var conditionalKeys = map[string]bool{
	"when":         true,
	"failed_when":  true,
	"changed_when": true,
	"until":        true,
}

var includeKeys = map[string]bool{
	"include_tasks": true,
	"import_tasks":  true,
	"include":       true,
}

// ParseTaskFile extracts variable references from one task document. It
// never fails: undecodable content is reported through TaskFile.Err and
// contributes no references.
func ParseTaskFile(id string, content []byte) (tf *TaskFile) {
	tf = newTaskFile(id)
	defer func() {
		if r := recover(); r != nil {
			tf = newTaskFile(id)
			tf.Err = fmt.Errorf("extract %s: %v", id, r)
		}
	}()

	if len(bytes.TrimSpace(content)) == 0 {
		tf.Parsed = true
		return tf
	}

	var root yaml.Node
	if err := yaml.Unmarshal(content, &root); err != nil {
		tf.Err = fmt.Errorf("decode %s: %w", id, err)
		return tf
	}
	tf.Parsed = true

	w := &walker{file: tf}
	w.walk(&root, "", "")
	return tf
}

type walker struct {
	file *TaskFile
	seq  int
}

// walk visits node. key is the mapping key the node is the value of and
// parent is the key of the enclosing mapping.
func (w *walker) walk(node *yaml.Node, key, parent string) {
	switch node.Kind {
	case yaml.DocumentNode, yaml.SequenceNode:
		for _, child := range node.Content {
			w.walk(child, key, parent)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			w.walkEntry(node.Content[i], node.Content[i+1], key)
		}
	case yaml.ScalarNode:
		w.templated(node, ContextTemplatedValue, "")
	}
}

func (w *walker) walkEntry(keyNode, value *yaml.Node, parent string) {
	if keyNode.Kind == yaml.ScalarNode && hasTemplateDelimiters(keyNode.Value) {
		w.templated(keyNode, ContextTemplatedValue, "")
	}
	key := keyNode.Value
	short := shortModuleName(key)

	switch {
	case conditionalKeys[key]:
		w.directive(value, ContextConditional, true)
	case key == "that" && shortModuleName(parent) == "assert":
		w.directive(value, ContextAssertion, true)
	case key == "loop" || strings.HasPrefix(key, "with_"):
		w.directive(value, ContextLoopSource, false)
	case key == "register":
		w.register(value)
	case short == "set_fact" && value.Kind == yaml.MappingNode:
		w.setFact(value)
	case key == "loop_control" && value.Kind == yaml.MappingNode:
		w.loopControl(value)
	case includeKeys[short]:
		w.include(value)
		w.walk(value, key, parent)
	case isKnownModule(key) && value.Kind == yaml.MappingNode:
		w.moduleParams(key, value)
	default:
		w.walk(value, key, parent)
	}
}

// directive handles keys whose values are bare expressions. Sequence items
// are expressions too when itemsAreExpressions is set; otherwise only their
// delimited blocks are scanned.
func (w *walker) directive(value *yaml.Node, ctx RefContext, itemsAreExpressions bool) {
	switch value.Kind {
	case yaml.ScalarNode:
		w.bare(value, ctx)
	case yaml.SequenceNode:
		for _, item := range value.Content {
			if item.Kind == yaml.ScalarNode && itemsAreExpressions {
				w.bare(item, ctx)
				continue
			}
			w.walkContext(item, ctx)
		}
	default:
		w.walkContext(value, ctx)
	}
}

// walkContext scans every scalar under node for delimited blocks, tagging
// references with ctx.
func (w *walker) walkContext(node *yaml.Node, ctx RefContext) {
	switch node.Kind {
	case yaml.ScalarNode:
		w.templated(node, ctx, "")
	case yaml.SequenceNode, yaml.MappingNode, yaml.DocumentNode:
		for _, child := range node.Content {
			w.walkContext(child, ctx)
		}
	}
}

func (w *walker) bare(node *yaml.Node, ctx RefContext) {
	if node.Tag != "" && node.Tag != "!!str" && !hasTemplateDelimiters(node.Value) {
		return
	}
	segments, err := stripDelimiters(node.Value)
	if err != nil {
		w.file.MalformedExpressions++
	}
	w.analyzeSegments(node, segments, ctx, "")
}

func (w *walker) templated(node *yaml.Node, ctx RefContext, usage string) {
	if !hasTemplateDelimiters(node.Value) {
		return
	}
	segments, err := scanTemplates(node.Value)
	if err != nil {
		w.file.MalformedExpressions++
	}
	w.analyzeSegments(node, segments, ctx, usage)
}

func (w *walker) analyzeSegments(node *yaml.Node, segments []segment, ctx RefContext, usage string) {
	for _, seg := range segments {
		if seg.body == "" {
			continue
		}
		var (
			res expressionResult
			err error
		)
		if seg.kind == segmentStatement {
			res, err = analyzeStatement(seg.body)
		} else {
			res, err = analyzeExpression(seg.body)
		}
		if err != nil {
			w.file.MalformedExpressions++
			continue
		}
		for _, local := range res.locals {
			w.file.LoopVars[local] = true
		}
		// A hint describes the parameter, so it only fits a lone name.
		if usage != "" && distinctNames(res.refs) > 1 {
			usage = ""
		}
		for _, h := range res.refs {
			ref := Reference{
				Name:     h.name,
				Context:  ctx,
				Location: w.locate(node, seg.offset),
				Default:  h.def,
				Usage:    usage,
			}
			if ctx == ContextConditional || ctx == ContextAssertion {
				ref.Choices = h.choices
			}
			w.add(ref)
		}
	}
}

func distinctNames(refs []harvested) int {
	seen := make(map[string]bool, len(refs))
	for _, h := range refs {
		seen[h.name] = true
	}
	return len(seen)
}

func (w *walker) add(ref Reference) {
	ref.Seq = w.seq
	w.seq++
	if ref.Location.File == "" {
		ref.Location.File = w.file.ID
	}
	w.file.References = append(w.file.References, ref)
}

// locate maps a byte offset inside a scalar to a source position. Offsets
// past a line break inside the scalar move to the following lines.
func (w *walker) locate(node *yaml.Node, offset int) Location {
	loc := Location{File: w.file.ID, Line: node.Line, Column: node.Column}
	if offset <= 0 || offset > len(node.Value) {
		return loc
	}
	prefix := node.Value[:offset]
	if breaks := strings.Count(prefix, "\n"); breaks > 0 {
		loc.Line += breaks
		loc.Column = offset - strings.LastIndex(prefix, "\n")
		return loc
	}
	loc.Column += offset
	return loc
}

func (w *walker) register(value *yaml.Node) {
	if value.Kind != yaml.ScalarNode {
		return
	}
	name := strings.TrimSpace(value.Value)
	if !isIdentifier(name) {
		w.templated(value, ContextTemplatedValue, "")
		return
	}
	w.file.Registered[name] = true
	w.add(Reference{
		Name:     name,
		Context:  ContextRegisteredOutput,
		Location: Location{File: w.file.ID, Line: value.Line, Column: value.Column},
	})
}

func (w *walker) setFact(value *yaml.Node) {
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, val := value.Content[i], value.Content[i+1]
		name := keyNode.Value
		if name == "cacheable" {
			continue
		}
		if isIdentifier(name) {
			w.file.Registered[name] = true
			w.add(Reference{
				Name:     name,
				Context:  ContextRegisteredOutput,
				Location: Location{File: w.file.ID, Line: keyNode.Line, Column: keyNode.Column},
			})
		}
		w.walk(val, name, "set_fact")
	}
}

func (w *walker) loopControl(value *yaml.Node) {
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i].Value, value.Content[i+1]
		if (key == "loop_var" || key == "index_var") && val.Kind == yaml.ScalarNode {
			if name := strings.TrimSpace(val.Value); isIdentifier(name) {
				w.file.LoopVars[name] = true
				continue
			}
		}
		w.walk(val, key, "loop_control")
	}
}

func (w *walker) include(value *yaml.Node) {
	target := ""
	switch value.Kind {
	case yaml.ScalarNode:
		target = value.Value
	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			if value.Content[i].Value == "file" && value.Content[i+1].Kind == yaml.ScalarNode {
				target = value.Content[i+1].Value
			}
		}
	}
	target = trimQuoted(target)
	if target == "" || hasTemplateDelimiters(target) {
		return
	}
	stem := Stem(target)
	for _, existing := range w.file.Includes {
		if existing == stem {
			return
		}
	}
	w.file.Includes = append(w.file.Includes, stem)
}

func (w *walker) moduleParams(module string, params *yaml.Node) {
	for i := 0; i+1 < len(params.Content); i += 2 {
		keyNode, val := params.Content[i], params.Content[i+1]
		if hasTemplateDelimiters(keyNode.Value) {
			w.templated(keyNode, ContextTemplatedValue, "")
		}
		hint := usageHint(module, keyNode.Value)
		if hint == "" || val.Kind != yaml.ScalarNode {
			w.walk(val, keyNode.Value, module)
			continue
		}
		if !soleExpression(val.Value) {
			hint = ""
		}
		w.templated(val, ContextTemplatedValue, hint)
	}
}

// soleExpression reports whether s is a single {{ }} block with nothing but
// whitespace around it.
func soleExpression(s string) bool {
	segments, err := scanTemplates(s)
	if err != nil || len(segments) != 1 || segments[0].kind != segmentExpression {
		return false
	}
	seg := segments[0]
	return strings.TrimSpace(s[:seg.offset]) == "" && strings.TrimSpace(s[seg.end:]) == ""
}
