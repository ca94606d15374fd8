// Package folder normalises folder labels before comparison.
//
// Folder names reach the engine from the filesystem (often NFD on macOS)
// and from uploaded metadata (usually NFC). Every comparison goes through
// Normalize so that both forms of the same label are treated as equal.
package folder

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize trims surrounding whitespace and applies Unicode canonical
// composition (NFC).
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Equal reports whether two folder labels are the same after normalisation.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Contains reports whether s contains substr after normalising both.
func Contains(s, substr string) bool {
	return strings.Contains(Normalize(s), Normalize(substr))
}

// Set is a set of normalised folder labels.
// A nil or empty Set matches every folder.
type Set map[string]struct{}

// NewSet builds a Set from the non-empty labels given.
func NewSet(labels ...string) Set {
	s := make(Set, len(labels))
	for _, l := range labels {
		if n := Normalize(l); n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

// Matches reports whether label is in the set, or the set is empty.
func (s Set) Matches(label string) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[Normalize(label)]
	return ok
}
