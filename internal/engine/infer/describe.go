package infer

import (
	"argspec/internal/engine/parser"
	"fmt"
	"strconv"
	"strings"
)

const longStringDefault = 50

// defaultSuffix describes an observed default in parentheses, or returns ""
// when the literal adds nothing worth saying.
func defaultSuffix(def *parser.Literal, typ Type) string {
	if def == nil {
		return ""
	}
	switch def.Kind {
	case parser.LiteralBool:
		if v, _ := def.Value.(bool); v {
			return "(enabled by default)"
		}
		return "(disabled by default)"
	case parser.LiteralInt, parser.LiteralFloat:
		if typ != TypeInt && typ != TypeFloat {
			return ""
		}
		return fmt.Sprintf("(default: %s)", FormatNumber(def.Value))
	case parser.LiteralList:
		items, _ := def.Value.([]any)
		switch len(items) {
		case 0:
			return "(list, empty by default)"
		case 1:
			return "(list with default item)"
		default:
			return fmt.Sprintf("(list with %d default items)", len(items))
		}
	case parser.LiteralDict:
		entries, _ := def.Value.(map[string]any)
		if len(entries) == 0 {
			return "(dictionary, empty by default)"
		}
		return "(dictionary with default configuration)"
	case parser.LiteralStr:
		s, _ := def.Value.(string)
		switch {
		case s == "":
			return "(empty by default)"
		case len(s) > longStringDefault, strings.ContainsAny(s, "\r\n"):
			return "(configured with default value)"
		default:
			return fmt.Sprintf("(default: '%s')", s)
		}
	}
	return ""
}

// FormatNumber renders ints plainly and floats with at least one decimal.
func FormatNumber(v any) string {
	switch n := v.(type) {
	case int64:
		return strconv.FormatInt(n, 10)
	case int:
		return strconv.Itoa(n)
	case float64:
		s := strconv.FormatFloat(n, 'f', -1, 64)
		for _, c := range s {
			if c == '.' {
				return s
			}
		}
		return s + ".0"
	}
	return fmt.Sprint(v)
}

func describe(name string, rule Rule, usage string, def *parser.Literal, typ Type) string {
	base := usage
	if base == "" {
		base = fmt.Sprintf(rule.Template, Humanize(rule.subject(name)))
	}
	text := SentenceCase(base)
	if suffix := defaultSuffix(def, typ); suffix != "" {
		text += " " + suffix
	}
	return text
}
