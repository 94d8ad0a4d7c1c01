// Package infer maps variable names and observed defaults to argument types
// and descriptions.
package infer

import (
	"argspec/internal/engine/parser"
)

type Result struct {
	Type        Type
	Description string
	Rule        string
	// Elements is the element type of a list, empty for other types.
	Elements Type
}

// Infer classifies name. An observed default outranks the naming rules,
// except that a string default keeps a path classification. Infer never
// fails.
func Infer(name string, def *parser.Literal, usage string) Result {
	rule := Match(name)
	typ := rule.Type
	if def != nil {
		typ = typeOfLiteral(*def, rule.Type)
	}

	res := Result{
		Type:        typ,
		Description: describe(name, rule, usage, def, typ),
		Rule:        rule.Name,
	}
	if typ == TypeList {
		res.Elements = TypeStr
		if def != nil && def.Kind == parser.LiteralList {
			items, _ := def.Value.([]any)
			res.Elements = ElementType(items)
		}
	}
	return res
}

func typeOfLiteral(lit parser.Literal, ruleType Type) Type {
	switch lit.Kind {
	case parser.LiteralBool:
		return TypeBool
	case parser.LiteralInt:
		return TypeInt
	case parser.LiteralFloat:
		return TypeFloat
	case parser.LiteralList:
		return TypeList
	case parser.LiteralDict:
		return TypeDict
	case parser.LiteralStr:
		if ruleType == TypePath {
			return TypePath
		}
		return TypeStr
	}
	return ruleType
}

// ElementType returns the most common element type of items. Ties go to the
// type seen first; an empty list holds strings.
func ElementType(items []any) Type {
	if len(items) == 0 {
		return TypeStr
	}
	counts := make(map[Type]int)
	var order []Type
	for _, item := range items {
		t := typeOfLiteral(parser.LiteralOf(item), TypeStr)
		if t == "" {
			t = TypeStr
		}
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}
	best := order[0]
	for _, t := range order[1:] {
		if counts[t] > counts[best] {
			best = t
		}
	}
	return best
}
