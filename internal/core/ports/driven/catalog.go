package driven

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// DocumentCatalog persists bookkeeping for ingested documents.
type DocumentCatalog interface {
	// Upsert stores or replaces a document record.
	Upsert(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// FindByName looks a document up by folder and filename.
	// Folder comparison is normalisation-insensitive.
	// Returns domain.ErrNotFound if absent.
	FindByName(ctx context.Context, folder, filename string) (*domain.Document, error)

	// List returns all documents ordered by folder then filename.
	List(ctx context.Context) ([]domain.Document, error)

	// Delete removes a document. Deleting an unknown ID is a no-op.
	Delete(ctx context.Context, id string) error
}
