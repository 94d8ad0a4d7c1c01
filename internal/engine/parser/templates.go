package parser

import (
	"fmt"
	"strings"
)

type segmentKind int

const (
	segmentExpression segmentKind = iota
	segmentStatement
)

// segment is the body of one delimited template block. Offset is the byte
// position of the opening delimiter within the scanned string and end the
// position just past the closing one.
type segment struct {
	kind   segmentKind
	body   string
	offset int
	end    int
}

// scanTemplates finds every {{ }} and {% %} block in s. Comments and the
// contents of raw blocks are skipped. Scanning stops at the first block that
// has no closing delimiter and the error reports it.
func scanTemplates(s string) ([]segment, error) {
	var segments []segment
	inRaw := false
	i := 0
	for {
		open := strings.IndexByte(s[i:], '{')
		if open == -1 || i+open+1 >= len(s) {
			return segments, nil
		}
		start := i + open
		var closing string
		kind := segmentExpression
		switch s[start+1] {
		case '{':
			closing = "}}"
		case '%':
			closing = "%}"
			kind = segmentStatement
		case '#':
			closing = "#}"
		default:
			i = start + 1
			continue
		}

		if inRaw && kind != segmentStatement {
			i = start + 2
			continue
		}

		end, err := findClosing(s, start+2, closing)
		if err != nil {
			return segments, err
		}
		body := trimWhitespaceControl(s[start+2 : end])
		i = end + len(closing)

		if closing == "#}" {
			continue
		}
		if kind == segmentStatement {
			word := firstWord(body)
			if inRaw {
				if word == "endraw" {
					inRaw = false
				}
				continue
			}
			if word == "raw" {
				inRaw = true
				continue
			}
		}
		segments = append(segments, segment{kind: kind, body: body, offset: start, end: i})
	}
}

// findClosing locates the closing delimiter, ignoring delimiters that appear
// inside quoted strings.
func findClosing(s string, from int, closing string) (int, error) {
	var quote byte
	for i := from; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		if (c == '\'' || c == '"') && closing != "#}" {
			quote = c
			continue
		}
		if strings.HasPrefix(s[i:], closing) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unterminated template block at offset %d", from-2)
}

func trimWhitespaceControl(body string) string {
	body = strings.TrimPrefix(body, "-")
	body = strings.TrimPrefix(body, "+")
	body = strings.TrimSuffix(body, "-")
	body = strings.TrimSuffix(body, "+")
	return strings.TrimSpace(body)
}

func firstWord(body string) string {
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// stripDelimiters turns a directive value into bare expressions. Values
// without delimiters are returned as a single expression.
func stripDelimiters(value string) ([]segment, error) {
	if !hasTemplateDelimiters(value) {
		return []segment{{kind: segmentExpression, body: strings.TrimSpace(value)}}, nil
	}
	return scanTemplates(value)
}
