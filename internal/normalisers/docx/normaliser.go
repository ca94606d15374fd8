// Package docx extracts text from Word (.docx) documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/normalisers/plaintext"
)

// MIMEType is the Office Open XML word processing type.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the body text. Paragraphs become lines; table rows
// become one line with cells joined by " | ".
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	archive, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx archive: %w", domain.ErrInvalidInput, err)
	}

	body, err := readPart(archive, documentPart)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("%w: %s missing", domain.ErrInvalidInput, documentPart)
	}
	text, err := extractText(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	title := coreTitle(archive)
	if title == "" {
		title = plaintext.TitleFromFilename(raw.Filename)
	}

	return &driven.NormaliseResult{
		Content: plaintext.Clean(text),
		Title:   title,
		Format:  "docx",
	}, nil
}

// readPart returns the named archive member, or nil if absent.
func readPart(archive *zip.Reader, name string) ([]byte, error) {
	for _, f := range archive.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, nil
}

// extractText walks document.xml tokens and rebuilds the text layout.
func extractText(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		out     strings.Builder
		line    strings.Builder
		cells   []string
		cell    strings.Builder
		inText  bool
		inTable int
	)
	flushLine := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			out.WriteString(s)
			out.WriteByte('\n')
		}
		line.Reset()
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current(inTable, &line, &cell).WriteByte('\t')
			case "br":
				current(inTable, &line, &cell).WriteByte(' ')
			case "tbl":
				flushLine()
				inTable++
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if inTable > 0 {
					cell.WriteByte(' ')
				} else {
					line.WriteByte('\n')
					flushLine()
				}
			case "tc":
				cells = append(cells, strings.Join(strings.Fields(cell.String()), " "))
				cell.Reset()
			case "tr":
				if row := strings.Join(cells, " | "); strings.Trim(row, " |") != "" {
					out.WriteString(row)
					out.WriteByte('\n')
				}
				cells = cells[:0]
			case "tbl":
				inTable--
			}
		case xml.CharData:
			if inText {
				current(inTable, &line, &cell).Write(t)
			}
		}
	}
	flushLine()
	return strings.TrimSpace(out.String()), nil
}

func current(inTable int, line, cell *strings.Builder) *strings.Builder {
	if inTable > 0 {
		return cell
	}
	return line
}

type coreProps struct {
	Title string `xml:"title"`
}

func coreTitle(archive *zip.Reader) string {
	data, err := readPart(archive, corePart)
	if err != nil || data == nil {
		return ""
	}
	var core coreProps
	if err := xml.Unmarshal(data, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
