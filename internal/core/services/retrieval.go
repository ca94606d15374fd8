package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// unknownSource labels a result without a metadata source during evaluation.
const unknownSource = "unknown"

// RetrievalService routes queries to the vector store or the keyword index.
type RetrievalService struct {
	store     driven.VectorStore
	keywords  driven.KeywordIndex
	embedding driven.EmbeddingService

	mu       sync.RWMutex
	prefixes []string
}

// NewRetrievalService creates a new retrieval service.
// The embedding service may be nil; queries then use the keyword index.
func NewRetrievalService(
	store driven.VectorStore,
	keywords driven.KeywordIndex,
	embedding driven.EmbeddingService,
	settings domain.RetrievalSettings,
) *RetrievalService {
	s := &RetrievalService{
		store:     store,
		keywords:  keywords,
		embedding: embedding,
	}
	s.UpdateConfig(settings)
	return s
}

// UpdateConfig replaces the filename prefixes applied to folder-scoped queries.
func (s *RetrievalService) UpdateConfig(settings domain.RetrievalSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefixes = append([]string(nil), settings.FilenamePrefixes...)
}

// Query retrieves passages for the request.
//
// Keyword mode, or auto mode without an embedding service, searches the
// keyword index. Otherwise the query is embedded and the vector store is
// searched; a folder-scoped query also applies the configured filename
// prefixes. In auto mode an empty vector result falls back to the keyword
// index when it holds records. Embedding errors are returned, never
// replaced by a keyword search.
func (s *RetrievalService) Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	mode := req.Mode
	if mode == "" {
		mode = domain.QueryModeAuto
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown query mode %q", domain.ErrInvalidInput, mode)
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return &domain.QueryResponse{Results: []domain.Result{}, Mode: mode}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Section("Query")
	logger.Debug("query %q (mode %s, folder %q, region %q)", query, mode, req.Folder, req.Region)

	if mode == domain.QueryModeKeyword || (mode == domain.QueryModeAuto && s.embedding == nil) {
		return s.keywordResponse(query, req), nil
	}
	if s.embedding == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vec, err := s.embedding.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	opts := domain.RetrieveOptions{
		TopK:                req.TopK,
		SimilarityThreshold: req.Threshold,
		FolderFilter:        req.Folder,
		PreferredSources:    req.PreferredSources,
	}
	if strings.TrimSpace(req.Folder) != "" {
		s.mu.RLock()
		opts.FilenamePrefixes = append([]string(nil), s.prefixes...)
		s.mu.RUnlock()
	}

	results, err := s.store.Retrieve(ctx, vec, opts)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	if len(results) == 0 && mode == domain.QueryModeAuto && s.hasKeywordRecords() {
		logger.Info("no vector results, falling back to keyword index")
		return s.keywordResponse(query, req), nil
	}

	if results == nil {
		results = []domain.Result{}
	}
	return &domain.QueryResponse{Results: results, Mode: domain.QueryModeVector}, nil
}

func (s *RetrievalService) keywordResponse(query string, req domain.QueryRequest) *domain.QueryResponse {
	var results []domain.Result
	if s.keywords != nil {
		results = s.keywords.Search(query, domain.SearchOptions{
			FolderFilter: req.Folder,
			RegionFilter: req.Region,
			TopK:         req.TopK,
		})
	}
	if results == nil {
		results = []domain.Result{}
	}
	return &domain.QueryResponse{Results: results, Mode: domain.QueryModeKeyword}
}

func (s *RetrievalService) hasKeywordRecords() bool {
	if s.keywords == nil {
		return false
	}
	_, records := s.keywords.Stats()
	return records > 0
}

// Search runs the keyword index directly.
func (s *RetrievalService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.keywords == nil {
		return []domain.Result{}, nil
	}
	results := s.keywords.Search(query, opts)
	if results == nil {
		results = []domain.Result{}
	}
	return results, nil
}

// ByCategory lists keyword records in a category.
func (s *RetrievalService) ByCategory(ctx context.Context, category, folderLabel string) ([]domain.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.keywords == nil {
		return []domain.Result{}, nil
	}
	results := s.keywords.GetByCategory(category, folderLabel)
	if results == nil {
		results = []domain.Result{}
	}
	return results, nil
}

// Evaluate runs the query and scores the retrieved sources against the
// expected ones. Precision is taken over every retrieved result, so a
// source retrieved twice counts twice in the denominator.
func (s *RetrievalService) Evaluate(
	ctx context.Context, req domain.QueryRequest, expected []string,
) (*domain.Evaluation, error) {
	resp, err := s.Query(ctx, req)
	if err != nil {
		return nil, err
	}

	retrieved := make([]string, len(resp.Results))
	for i, r := range resp.Results {
		src, _ := r.Metadata[domain.MetaSource].(string)
		if src == "" {
			src = unknownSource
		}
		retrieved[i] = src
	}

	want := make(map[string]struct{}, len(expected))
	for _, e := range expected {
		want[e] = struct{}{}
	}
	got := make(map[string]struct{}, len(retrieved))
	matched := 0
	for _, r := range retrieved {
		if _, seen := got[r]; seen {
			continue
		}
		got[r] = struct{}{}
		if _, ok := want[r]; ok {
			matched++
		}
	}

	eval := &domain.Evaluation{
		Query:     req.Query,
		Expected:  expected,
		Retrieved: retrieved,
		Matched:   matched,
	}
	if len(retrieved) > 0 {
		eval.Precision = float64(matched) / float64(len(retrieved))
	}
	if len(expected) > 0 {
		eval.Recall = float64(matched) / float64(len(expected))
	}
	if eval.Precision+eval.Recall > 0 {
		eval.F1 = 2 * eval.Precision * eval.Recall / (eval.Precision + eval.Recall)
	}
	return eval, nil
}
