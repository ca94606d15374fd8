package driving

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// IngestRequest describes one document to add to the corpus.
type IngestRequest struct {
	// Filename identifies the document within its folder.
	Filename string

	// Folder is the domain label the document belongs to.
	Folder string

	// Content is the extracted plain text.
	Content string

	// Data is the raw file. When Content is empty it is converted to text
	// by the normaliser for MIMEType, or for Filename's extension.
	Data []byte

	// MIMEType optionally declares the type of Data.
	MIMEType string

	// Metadata is merged into every chunk's entry metadata.
	Metadata map[string]any

	// Structured switches the chunker to row mode for this document.
	Structured bool
}

// IngestResult reports what an ingestion stored.
type IngestResult struct {
	Document *domain.Document
	Chunks   int
	Replaced bool
}

// IngestService adds and removes documents from the corpus.
type IngestService interface {
	// Ingest chunks, embeds and stores a document. Re-ingesting the same
	// folder and filename replaces the earlier entries.
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)

	// IngestRecords stores one entry per structured record (law-table rows).
	IngestRecords(ctx context.Context, filename, folder string, records []domain.Record) (*IngestResult, error)

	// Remove deletes a document's entries and its catalog record.
	Remove(ctx context.Context, documentID string) (int, error)

	// List returns catalogued documents.
	List(ctx context.Context) ([]domain.Document, error)
}
