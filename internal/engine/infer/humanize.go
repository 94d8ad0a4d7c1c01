package infer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Humanize turns an identifier into lowercase words: "backup_path" becomes
// "backup path".
func Humanize(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	return strings.Join(words, " ")
}

// SentenceCase upper-cases the first letter and leaves the rest untouched.
func SentenceCase(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError {
		return text
	}
	return string(unicode.ToUpper(r)) + text[size:]
}
