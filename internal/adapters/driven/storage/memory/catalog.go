package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/folder"
)

// Ensure Catalog implements the interface.
var _ driven.DocumentCatalog = (*Catalog)(nil)

// Catalog is an in-memory implementation of driven.DocumentCatalog.
type Catalog struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
}

// NewCatalog creates a new in-memory document catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		documents: make(map[string]domain.Document),
	}
}

// Upsert stores or replaces a document, keeping the first CreatedAt.
func (c *Catalog) Upsert(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := *doc
	stored.Content = ""
	if prev, ok := c.documents[doc.ID]; ok {
		stored.CreatedAt = prev.CreatedAt
	}
	c.documents[doc.ID] = stored
	return nil
}

// Get retrieves a document by ID.
func (c *Catalog) Get(_ context.Context, id string) (*domain.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// FindByName looks a document up by folder and filename.
func (c *Catalog) FindByName(_ context.Context, folderLabel, filename string) (*domain.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, doc := range c.documents {
		if doc.Filename == filename && folder.Equal(doc.Folder, folderLabel) {
			return &doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List returns all documents ordered by folder then filename.
func (c *Catalog) List(_ context.Context) ([]domain.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	docs := make([]domain.Document, 0, len(c.documents))
	for _, doc := range c.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		fi, fj := folder.Normalize(docs[i].Folder), folder.Normalize(docs[j].Folder)
		if fi != fj {
			return fi < fj
		}
		return docs[i].Filename < docs[j].Filename
	})
	return docs, nil
}

// Delete removes a document.
func (c *Catalog) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.documents, id)
	return nil
}
