package domain

import "time"

// Document is the catalog record for an ingested file.
// The vector store knows documents only through EntryMetadata.Source.
type Document struct {
	// ID is derived from the folder and filename, so re-ingesting the
	// same file yields the same ID.
	ID string

	// Filename is the original file name.
	Filename string

	// Folder is the caller-assigned grouping label (e.g. a building type).
	Folder string

	// ChunkCount is the number of vector store entries owned by the document.
	ChunkCount int

	// Content is the extracted text. It is only set while ingesting and is
	// not persisted in the catalog.
	Content string

	// Metadata contains caller-supplied key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last re-ingested.
	UpdatedAt time.Time
}

// Chunk represents a bounded, ordered slice of a document's text.
// Chunks are immutable once produced.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// DocStructured marks a document whose content is tabular; the chunker
// splits it in row mode.
const DocStructured = "structured"

// Document metadata recorded when text is extracted from a raw file.
const (
	DocTitle  = "title"
	DocFormat = "format"
)

// ChunkOptions configures how text is split into chunks.
type ChunkOptions struct {
	// ChunkSize is the soft upper bound on chunk length in characters.
	ChunkSize int

	// ChunkOverlap bounds the trailing content repeated at the start of the next chunk.
	ChunkOverlap int

	// RowMode switches to row-oriented splitting for tabular text.
	RowMode bool
}
