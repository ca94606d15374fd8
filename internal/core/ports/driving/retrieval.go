package driving

import (
	"context"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// RetrievalService answers queries against the corpus.
type RetrievalService interface {
	// Query retrieves passages, by similarity when embeddings are available
	// and from the keyword index otherwise.
	Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error)

	// Search runs the keyword index directly.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Result, error)

	// ByCategory lists keyword records in a category.
	ByCategory(ctx context.Context, category, folder string) ([]domain.Result, error)

	// Evaluate scores a query's retrieved sources against the expected ones.
	Evaluate(ctx context.Context, req domain.QueryRequest, expected []string) (*domain.Evaluation, error)
}
