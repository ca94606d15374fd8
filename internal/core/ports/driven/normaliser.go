package driven

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// Normaliser extracts plain text from a file of a given format.
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	// A type of the form "text/*" matches every subtype.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers return 50-89, fallbacks 1-9.
	Priority() int

	// Normalise extracts the text content of raw.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult is the text extracted from a raw document.
type NormaliseResult struct {
	// Content is the plain text handed to the chunker.
	Content string

	// Title is the document title when the format carries one.
	Title string

	// Format names the normaliser that produced the text (e.g. "markdown").
	Format string
}

// NormaliserRegistry selects the normaliser for a raw document by MIME type.
type NormaliserRegistry interface {
	// Normalise transforms raw using the highest-priority matching normaliser.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string
}
