// Package html normalises HTML documents to plain text, keeping block
// boundaries as line breaks.
package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var (
	titleTag    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	dropped     = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg)[^>]*>.*?</(script|style|noscript|head|svg)>`)
	comments    = regexp.MustCompile(`(?s)<!--.*?-->`)
	cellClose   = regexp.MustCompile(`(?i)</t[dh]>`)
	blockTags   = regexp.MustCompile(`(?i)</?(p|div|h[1-6]|li|tr|table|blockquote|pre|section|article|ul|ol)[^>]*>`)
	breakTags   = regexp.MustCompile(`(?i)<(br|hr)\s*/?>`)
	anyTag      = regexp.MustCompile(`<[^>]+>`)
	spaces      = regexp.MustCompile(`[ \t\x{00a0}]+`)
	trailingBar = regexp.MustCompile(`\s*\|\s*$`)
)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise strips markup. Table cells are joined with " | " so each table
// row becomes one line.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text := plaintext.Clean(string(raw.Content))
	title := ""
	if m := titleTag.FindStringSubmatch(text); len(m) > 1 {
		title = strings.TrimSpace(html.UnescapeString(m[1]))
	}
	if title == "" {
		title = plaintext.TitleFromFilename(raw.Filename)
	}

	return &driven.NormaliseResult{
		Content: Strip(text),
		Title:   title,
		Format:  "html",
	}, nil
}

// Strip converts HTML to plain text with one line per block element.
func Strip(s string) string {
	s = dropped.ReplaceAllString(s, "")
	s = comments.ReplaceAllString(s, "")
	s = cellClose.ReplaceAllString(s, " | ")
	s = blockTags.ReplaceAllString(s, "\n")
	s = breakTags.ReplaceAllString(s, "\n")
	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)

	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = spaces.ReplaceAllString(line, " ")
		line = strings.TrimSpace(trailingBar.ReplaceAllString(line, ""))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
