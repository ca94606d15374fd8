package chunker

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

const (
	paragraphSep = "\n\n"
	sentenceSep  = " "
	rowSep       = "\n"
)

var (
	blankLine  = regexp.MustCompile(`\n\s*\n`)
	headerLine = regexp.MustCompile(`^#+\s*`)
	listLine   = regexp.MustCompile(`^(?:\d+[.)]|[-*•■□○▶※])(?:\s|$)`)
	rowMarker  = regexp.MustCompile(`^(?:row|Row|ROW|행)(?:[\s:\d]|$)`)
)

// Chunk splits text into segments no longer than opts.ChunkSize runes,
// except where a single word or marked row is longer on its own.
//
// The result is never empty: blank input, or input with no usable split
// point, comes back as a single chunk holding the original text.
func Chunk(text string, opts domain.ChunkOptions) []string {
	size, overlap := normalise(opts.ChunkSize, opts.ChunkOverlap)

	if strings.TrimSpace(text) == "" {
		return []string{text}
	}

	var chunks []string
	if opts.RowMode {
		chunks = chunkRows(text, size)
	} else {
		chunks = chunkFree(text, size, overlap)
	}

	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}

// normalise applies defaults and keeps overlap strictly below size.
func normalise(size, overlap int) (int, int) {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}
	return size, overlap
}

func chunkFree(text string, size, overlap int) []string {
	units := paragraphs(text, size)

	splitWords := func(s string) []string {
		return pack(strings.Fields(s), sentenceSep, size, overlap, nil)
	}
	splitSentences := func(s string) []string {
		return pack(sentences(s), sentenceSep, size, overlap, splitWords)
	}

	return pack(units, paragraphSep, size, overlap, splitSentences)
}

// paragraphs splits text into paragraph units, falling back from blank
// lines to headers, list markers and finally single newlines whenever a
// split yields one unit or only units over twice the chunk size.
func paragraphs(text string, size int) []string {
	units := clean(blankLine.Split(text, -1))
	if usable(units, size) {
		return units
	}

	lines := strings.Split(text, "\n")

	units = splitBefore(lines, headerLine)
	if usable(units, size) {
		return units
	}

	units = splitBefore(lines, listLine)
	if usable(units, size) {
		return units
	}

	return clean(lines)
}

func usable(units []string, size int) bool {
	if len(units) < 2 {
		return false
	}
	for _, u := range units {
		if runeLen(u) <= 2*size {
			return true
		}
	}
	return false
}

// splitBefore starts a new unit at every line matching marker.
func splitBefore(lines []string, marker *regexp.Regexp) []string {
	var (
		units   []string
		current []string
	)
	for _, line := range lines {
		if marker.MatchString(strings.TrimSpace(line)) && len(current) > 0 {
			units = append(units, strings.Join(current, "\n"))
			current = nil
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		units = append(units, strings.Join(current, "\n"))
	}
	return clean(units)
}

// sentences splits after '.', '!', '?' or '。' when followed by whitespace.
func sentences(s string) []string {
	var (
		out   []string
		start int
	)
	for i, r := range s {
		if !isTerminator(r) {
			continue
		}
		next := i + utf8.RuneLen(r)
		if next >= len(s) {
			continue
		}
		nr, _ := utf8.DecodeRuneInString(s[next:])
		if unicode.IsSpace(nr) {
			out = append(out, s[start:next])
			start = next
		}
	}
	out = append(out, s[start:])
	return clean(out)
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '。':
		return true
	}
	return false
}

// pack greedily joins units with sep into chunks of at most size runes.
// Each new chunk is seeded with the closed chunk's trailing units that fit
// within overlap. Units larger than size are handed to oversize, or
// emitted alone when oversize is nil.
func pack(units []string, sep string, size, overlap int, oversize func(string) []string) []string {
	var (
		chunks  []string
		current []string
	)
	sepLen := runeLen(sep)
	curLen := 0

	for _, u := range units {
		n := runeLen(u)

		if n > size {
			if len(current) > 0 {
				chunks = append(chunks, strings.Join(current, sep))
				current, curLen = nil, 0
			}
			if oversize != nil {
				chunks = append(chunks, oversize(u)...)
			} else {
				chunks = append(chunks, u)
			}
			continue
		}

		if len(current) > 0 && curLen+sepLen+n > size {
			chunks = append(chunks, strings.Join(current, sep))
			current = trailing(current, sep, overlap)
			curLen = joinedLen(current, sep)
			for len(current) > 0 && curLen+sepLen+n > size {
				current = current[1:]
				curLen = joinedLen(current, sep)
			}
		}

		if len(current) > 0 {
			curLen += sepLen
		}
		current = append(current, u)
		curLen += n
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, sep))
	}
	return chunks
}

// trailing returns the longest suffix of whole units whose joined length
// stays within overlap.
func trailing(units []string, sep string, overlap int) []string {
	if overlap <= 0 {
		return nil
	}
	sepLen := runeLen(sep)
	total := 0
	start := len(units)
	for i := len(units) - 1; i >= 0; i-- {
		add := runeLen(units[i])
		if start < len(units) {
			add += sepLen
		}
		if total+add > overlap {
			break
		}
		total += add
		start = i
	}
	out := make([]string, len(units)-start)
	copy(out, units[start:])
	return out
}

// chunkRows starts a new chunk at every row marker and otherwise packs
// lines up to size, without overlap.
func chunkRows(text string, size int) []string {
	var (
		chunks  []string
		current []string
	)
	curLen := 0
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, rowSep))
		}
		current, curLen = nil, 0
	}

	for _, line := range clean(strings.Split(text, "\n")) {
		n := runeLen(line)
		if rowMarker.MatchString(line) || (len(current) > 0 && curLen+1+n > size) {
			flush()
		}
		if len(current) > 0 {
			curLen++
		}
		current = append(current, line)
		curLen += n
	}
	flush()

	return chunks
}

func clean(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinedLen(units []string, sep string) int {
	if len(units) == 0 {
		return 0
	}
	n := runeLen(sep) * (len(units) - 1)
	for _, u := range units {
		n += runeLen(u)
	}
	return n
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
