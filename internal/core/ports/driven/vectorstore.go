package driven

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// VectorStore owns the corpus of (embedding, content, metadata) entries
// and serves similarity queries over it.
//
// Every mutation rewrites the persisted snapshot. Implementations serialise
// writers; callers do not need external locking.
type VectorStore interface {
	// Add appends one entry and persists the store.
	// No uniqueness is enforced; callers dedupe before adding.
	Add(ctx context.Context, embedding []float32, content string, metadata domain.EntryMetadata) error

	// AddBatch appends entries in order and persists once.
	AddBatch(ctx context.Context, entries []domain.Entry) error

	// Remove deletes every entry whose metadata source equals sourceID
	// and persists. Removing an unknown source is a no-op.
	Remove(ctx context.Context, sourceID string) (int, error)

	// Replace removes sourceID's entries and appends entries in one
	// persisted step. On error nothing changes. Returns the number removed.
	Replace(ctx context.Context, sourceID string, entries []domain.Entry) (int, error)

	// Retrieve ranks entries against the query embedding.
	// An empty candidate set yields an empty result, not an error.
	Retrieve(ctx context.Context, query []float32, opts domain.RetrieveOptions) ([]domain.Result, error)

	// UpdateConfig replaces the retrieval parameters used by later Retrieve calls.
	UpdateConfig(settings domain.RetrievalSettings)

	// Len returns the number of entries.
	Len() int

	// Entries returns a copy of every entry in insertion order.
	Entries() []domain.Entry

	// Sources returns the distinct metadata sources in first-seen order.
	Sources() []string

	// Close releases resources.
	Close() error
}
