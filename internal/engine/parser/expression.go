package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// harvested is one root identifier found in an expression.
type harvested struct {
	name    string
	offset  int
	def     *Literal
	choices []Literal
}

type expressionResult struct {
	refs   []harvested
	locals []string
}

// keywords are never variable references. loop is deliberately absent: in an
// expression it is the loop helper object and the filter layer drops it.
var keywords = map[string]bool{
	"true": true, "false": true, "none": true,
	"True": true, "False": true, "None": true,
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"if": true, "else": true, "elif": true,
	"for": true, "endfor": true, "endif": true,
	"set": true, "endset": true,
	"block": true, "endblock": true,
	"macro": true, "endmacro": true,
	"with": true, "endwith": true,
	"raw": true, "endraw": true,
	"recursive": true,
}

var defaultFilters = map[string]bool{"default": true, "d": true}

// analyzeExpression harvests references from the body of a {{ }} block or
// a bare directive expression.
func analyzeExpression(expr string) (expressionResult, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return expressionResult{}, err
	}
	if err := checkBalanced(tokens); err != nil {
		return expressionResult{}, err
	}
	return expressionResult{refs: harvestTokens(tokens)}, nil
}

// analyzeStatement handles the body of a {% %} block. Names bound by the
// statement are returned as locals; the rest is harvested like an expression.
func analyzeStatement(stmt string) (expressionResult, error) {
	tokens, err := tokenize(stmt)
	if err != nil {
		return expressionResult{}, err
	}
	if err := checkBalanced(tokens); err != nil {
		return expressionResult{}, err
	}
	if len(tokens) == 0 || tokens[0].kind != tokIdent {
		return expressionResult{refs: harvestTokens(tokens)}, nil
	}

	rest := tokens[1:]
	switch tokens[0].text {
	case "for":
		in := indexOfIdent(rest, "in")
		if in == -1 {
			return expressionResult{}, fmt.Errorf("for statement without in")
		}
		return expressionResult{
			locals: identNames(rest[:in]),
			refs:   harvestTokens(rest[in+1:]),
		}, nil
	case "set", "with":
		assign := indexOfKind(rest, tokAssign)
		if assign == -1 {
			return expressionResult{locals: identNames(rest)}, nil
		}
		return expressionResult{
			locals: identNames(rest[:assign]),
			refs:   harvestTokens(rest[assign+1:]),
		}, nil
	case "macro":
		return expressionResult{locals: macroLocals(rest)}, nil
	case "import", "from":
		return expressionResult{locals: importLocals(rest)}, nil
	case "filter":
		if len(rest) > 0 {
			rest = skipFilter(rest, 0)
		}
		return expressionResult{refs: harvestTokens(rest)}, nil
	case "if", "elif", "call":
		return expressionResult{refs: harvestTokens(rest)}, nil
	case "block", "include", "extends":
		return expressionResult{}, nil
	}
	if strings.HasPrefix(tokens[0].text, "end") || tokens[0].text == "else" {
		return expressionResult{}, nil
	}
	return expressionResult{refs: harvestTokens(tokens)}, nil
}

func checkBalanced(tokens []token) error {
	var stack []tokenKind
	closers := map[tokenKind]tokenKind{tokRParen: tokLParen, tokRBracket: tokLBracket, tokRBrace: tokLBrace}
	for _, tok := range tokens {
		switch tok.kind {
		case tokLParen, tokLBracket, tokLBrace:
			stack = append(stack, tok.kind)
		case tokRParen, tokRBracket, tokRBrace:
			if len(stack) == 0 || stack[len(stack)-1] != closers[tok.kind] {
				return fmt.Errorf("unbalanced %q at offset %d", tok.text, tok.pos)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("unclosed bracket")
	}
	return nil
}

func harvestTokens(tokens []token) []harvested {
	var out []harvested
	depth := 0
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch tok.kind {
		case tokLParen, tokLBracket, tokLBrace:
			depth++
			continue
		case tokRParen, tokRBracket, tokRBrace:
			depth--
			continue
		case tokPipe:
			i = skipFilterIndex(tokens, i+1) - 1
			continue
		case tokIdent:
		default:
			continue
		}

		if i > 0 && tokens[i-1].kind == tokDot {
			continue
		}
		if tok.text == "is" {
			i = skipTest(tokens, i+1) - 1
			continue
		}
		if keywords[tok.text] {
			continue
		}
		if next := peek(tokens, i+1); next != nil {
			if next.kind == tokLParen {
				continue
			}
			if next.kind == tokAssign && depth > 0 {
				continue
			}
		}

		ref := harvested{name: tok.text, offset: tok.pos}
		if next := peek(tokens, i+1); next != nil && next.kind == tokPipe {
			ref.def = defaultEvidence(tokens, i+2)
		}
		ref.choices = choicesEvidence(tokens, i+1)
		out = append(out, ref)
	}
	return out
}

func peek(tokens []token, i int) *token {
	if i < 0 || i >= len(tokens) {
		return nil
	}
	return &tokens[i]
}

// skipFilterIndex returns the index just past a filter name and its
// argument list. Filter arguments are opaque.
func skipFilterIndex(tokens []token, i int) int {
	if i < len(tokens) && tokens[i].kind == tokIdent {
		i++
		for i+1 < len(tokens) && tokens[i].kind == tokDot && tokens[i+1].kind == tokIdent {
			i += 2
		}
	}
	if i < len(tokens) && tokens[i].kind == tokLParen {
		i = matchingClose(tokens, i) + 1
	}
	return i
}

func skipFilter(tokens []token, i int) []token {
	return tokens[skipFilterIndex(tokens, i):]
}

// skipTest returns the index just past a test name following "is" or
// "is not". Test arguments are harvested normally.
func skipTest(tokens []token, i int) int {
	if i < len(tokens) && tokens[i].kind == tokIdent && tokens[i].text == "not" {
		i++
	}
	if i < len(tokens) && tokens[i].kind == tokIdent {
		i++
	}
	return i
}

func matchingClose(tokens []token, open int) int {
	depth := 0
	for i := open; i < len(tokens); i++ {
		switch tokens[i].kind {
		case tokLParen, tokLBracket, tokLBrace:
			depth++
		case tokRParen, tokRBracket, tokRBrace:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(tokens) - 1
}

// defaultEvidence inspects the filter starting at i and returns the literal
// passed to default() or d(), if any.
func defaultEvidence(tokens []token, i int) *Literal {
	if i+1 >= len(tokens) || tokens[i].kind != tokIdent || !defaultFilters[tokens[i].text] {
		return nil
	}
	if tokens[i+1].kind != tokLParen {
		return nil
	}
	lit, next, ok := parseLiteral(tokens, i+2)
	if !ok || next >= len(tokens) {
		return nil
	}
	if tokens[next].kind != tokRParen && tokens[next].kind != tokComma {
		return nil
	}
	return &lit
}

// choicesEvidence recognizes "name in [lit, ...]".
func choicesEvidence(tokens []token, i int) []Literal {
	if i+1 >= len(tokens) || tokens[i].kind != tokIdent || tokens[i].text != "in" {
		return nil
	}
	if tokens[i+1].kind != tokLBracket {
		return nil
	}
	lit, _, ok := parseLiteral(tokens, i+1)
	if !ok {
		return nil
	}
	items, _ := lit.Value.([]any)
	if len(items) == 0 {
		return nil
	}
	choices := make([]Literal, 0, len(items))
	for _, item := range items {
		l := literalOf(item)
		if l.Kind == LiteralList || l.Kind == LiteralDict {
			return nil
		}
		choices = append(choices, l)
	}
	return choices
}

// parseLiteral reads one constant starting at tokens[i]. It returns the
// literal, the index of the following token and whether a literal was found.
func parseLiteral(tokens []token, i int) (Literal, int, bool) {
	if i >= len(tokens) {
		return Literal{}, i, false
	}
	tok := tokens[i]
	switch tok.kind {
	case tokString:
		return Literal{Kind: LiteralStr, Value: unquote(tok.text)}, i + 1, true
	case tokNumber:
		return numberLiteral(tok.text, false, i+1)
	case tokOperator:
		if tok.text == "-" && i+1 < len(tokens) && tokens[i+1].kind == tokNumber {
			return numberLiteral(tokens[i+1].text, true, i+2)
		}
	case tokIdent:
		switch tok.text {
		case "true", "True":
			return Literal{Kind: LiteralBool, Value: true}, i + 1, true
		case "false", "False":
			return Literal{Kind: LiteralBool, Value: false}, i + 1, true
		case "none", "None":
			return Literal{Kind: LiteralNull}, i + 1, true
		}
	case tokLBracket:
		items := []any{}
		j := i + 1
		for j < len(tokens) && tokens[j].kind != tokRBracket {
			lit, next, ok := parseLiteral(tokens, j)
			if !ok {
				return Literal{}, i, false
			}
			items = append(items, lit.Value)
			j = next
			if j < len(tokens) && tokens[j].kind == tokComma {
				j++
			}
		}
		if j >= len(tokens) {
			return Literal{}, i, false
		}
		return Literal{Kind: LiteralList, Value: items}, j + 1, true
	case tokLBrace:
		entries := map[string]any{}
		j := i + 1
		for j < len(tokens) && tokens[j].kind != tokRBrace {
			if tokens[j].kind != tokString || j+2 >= len(tokens) || tokens[j+1].kind != tokColon {
				return Literal{}, i, false
			}
			key := unquote(tokens[j].text)
			lit, next, ok := parseLiteral(tokens, j+2)
			if !ok {
				return Literal{}, i, false
			}
			entries[key] = lit.Value
			j = next
			if j < len(tokens) && tokens[j].kind == tokComma {
				j++
			}
		}
		if j >= len(tokens) {
			return Literal{}, i, false
		}
		return Literal{Kind: LiteralDict, Value: entries}, j + 1, true
	}
	return Literal{}, i, false
}

func numberLiteral(text string, negative bool, next int) (Literal, int, bool) {
	clean := strings.ReplaceAll(text, "_", "")
	if negative {
		clean = "-" + clean
	}
	if n, err := strconv.ParseInt(clean, 10, 64); err == nil {
		return Literal{Kind: LiteralInt, Value: n}, next, true
	}
	if f, err := strconv.ParseFloat(clean, 64); err == nil {
		return Literal{Kind: LiteralFloat, Value: f}, next, true
	}
	return Literal{}, next, false
}

// literalOf classifies a plain Go value produced by parseLiteral or by YAML
// decoding.
func literalOf(v any) Literal {
	switch val := v.(type) {
	case nil:
		return Literal{Kind: LiteralNull}
	case bool:
		return Literal{Kind: LiteralBool, Value: val}
	case int:
		return Literal{Kind: LiteralInt, Value: int64(val)}
	case int64:
		return Literal{Kind: LiteralInt, Value: val}
	case uint64:
		return Literal{Kind: LiteralInt, Value: int64(val)}
	case float64:
		return Literal{Kind: LiteralFloat, Value: val}
	case string:
		return Literal{Kind: LiteralStr, Value: val}
	case []any:
		return Literal{Kind: LiteralList, Value: val}
	case map[string]any:
		return Literal{Kind: LiteralDict, Value: val}
	}
	return Literal{Kind: LiteralStr, Value: fmt.Sprint(v)}
}

// LiteralOf is the exported form of literalOf for values decoded from
// defaults and existing spec documents.
func LiteralOf(v any) Literal {
	return literalOf(normalizeValue(v))
}

// normalizeValue converts map[any]any trees into map[string]any.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	}
	return v
}

func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	body := s[1 : len(s)-1]
	if !strings.Contains(body, "\\") {
		return body
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
			switch body[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(body[i])
			}
			continue
		}
		b.WriteByte(body[i])
	}
	return b.String()
}

func indexOfIdent(tokens []token, text string) int {
	for i, tok := range tokens {
		if tok.kind == tokIdent && tok.text == text {
			return i
		}
	}
	return -1
}

func indexOfKind(tokens []token, kind tokenKind) int {
	for i, tok := range tokens {
		if tok.kind == kind {
			return i
		}
	}
	return -1
}

func identNames(tokens []token) []string {
	var names []string
	for _, tok := range tokens {
		if tok.kind == tokIdent && !keywords[tok.text] {
			names = append(names, tok.text)
		}
	}
	return names
}

// macroLocals returns the macro name and its parameter names.
func macroLocals(tokens []token) []string {
	var names []string
	if len(tokens) > 0 && tokens[0].kind == tokIdent {
		names = append(names, tokens[0].text)
	}
	depth := 0
	for i, tok := range tokens {
		switch tok.kind {
		case tokLParen:
			depth++
		case tokRParen:
			depth--
		case tokIdent:
			if depth == 1 && (tokens[i-1].kind == tokLParen || tokens[i-1].kind == tokComma) {
				names = append(names, tok.text)
			}
		}
	}
	return names
}

// importLocals returns the names bound by "import x as y" and
// "from x import a, b as c".
func importLocals(tokens []token) []string {
	var names []string
	if as := indexOfIdent(tokens, "import"); as != -1 {
		tail := tokens[as+1:]
		for i := 0; i < len(tail); i++ {
			if tail[i].kind != tokIdent || tail[i].text == "with" || tail[i].text == "context" {
				continue
			}
			if i+2 < len(tail) && tail[i+1].kind == tokIdent && tail[i+1].text == "as" {
				names = append(names, tail[i+2].text)
				i += 2
				continue
			}
			names = append(names, tail[i].text)
		}
		return names
	}
	if as := indexOfIdent(tokens, "as"); as != -1 && as+1 < len(tokens) {
		names = append(names, tokens[as+1].text)
	}
	return names
}
