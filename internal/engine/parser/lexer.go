package parser

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokString
	tokOperator
	tokAssign
	tokDot
	tokPipe
	tokComma
	tokColon
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokLBrace
	tokRBrace
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

var twoCharOperators = []string{"==", "!=", "<=", ">=", "//", "**"}

// tokenize splits one template expression into tokens. It rejects input it
// cannot classify rather than guessing.
func tokenize(expr string) ([]token, error) {
	tokens := make([]token, 0, 16)
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isIdentStart(c):
			start := i
			for i < len(expr) && isIdentPart(expr[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: expr[start:i], pos: start})
		case c >= '0' && c <= '9':
			start := i
			i = scanNumber(expr, i)
			tokens = append(tokens, token{kind: tokNumber, text: expr[start:i], pos: start})
		case c == '\'' || c == '"':
			end, err := scanString(expr, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokString, text: expr[i:end], pos: i})
			i = end
		default:
			tok, width, err := scanPunct(expr, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i += width
		}
	}
	return tokens, nil
}

func scanPunct(expr string, i int) (token, int, error) {
	for _, op := range twoCharOperators {
		if strings.HasPrefix(expr[i:], op) {
			return token{kind: tokOperator, text: op, pos: i}, 2, nil
		}
	}

	c := expr[i]
	kind := tokOperator
	switch c {
	case '.':
		kind = tokDot
	case '|':
		kind = tokPipe
	case ',':
		kind = tokComma
	case ':':
		kind = tokColon
	case '(':
		kind = tokLParen
	case ')':
		kind = tokRParen
	case '[':
		kind = tokLBracket
	case ']':
		kind = tokRBracket
	case '{':
		kind = tokLBrace
	case '}':
		kind = tokRBrace
	case '=':
		kind = tokAssign
	case '<', '>', '+', '-', '*', '/', '%', '~', '?':
	default:
		return token{}, 0, fmt.Errorf("unexpected character %q at offset %d", c, i)
	}
	return token{kind: kind, text: string(c), pos: i}, 1, nil
}

func scanNumber(expr string, i int) int {
	for i < len(expr) && (isDigit(expr[i]) || expr[i] == '_') {
		i++
	}
	if i+1 < len(expr) && expr[i] == '.' && isDigit(expr[i+1]) {
		i++
		for i < len(expr) && (isDigit(expr[i]) || expr[i] == '_') {
			i++
		}
	}
	if i < len(expr) && (expr[i] == 'e' || expr[i] == 'E') {
		j := i + 1
		if j < len(expr) && (expr[j] == '+' || expr[j] == '-') {
			j++
		}
		if j < len(expr) && isDigit(expr[j]) {
			i = j
			for i < len(expr) && isDigit(expr[i]) {
				i++
			}
		}
	}
	return i
}

func scanString(expr string, start int) (int, error) {
	quote := expr[start]
	i := start + 1
	for i < len(expr) {
		switch expr[i] {
		case '\\':
			i += 2
			continue
		case quote:
			return i + 1, nil
		}
		i++
	}
	return 0, fmt.Errorf("unterminated string starting at offset %d", start)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
