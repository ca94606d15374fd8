package keyword

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize splits text into lowercased runs of letters and digits.
// Any script counts as letters, so Hangul words come through whole.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}

// terms returns the distinct tokens of text, in first-seen order, that are
// at least minRunes long.
func terms(text string, minRunes int) []string {
	tokens := Tokenize(text)
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if utf8.RuneCountInString(t) < minRunes {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
