package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/keyword"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragcore/internal/adapters/driven/storage/vectorfile"
	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/postprocessors"
	"github.com/custodia-labs/ragcore/internal/postprocessors/chunker"
)

// topics are the axes of the fake embedding space.
var topics = []string{"층수", "주차", "이격", "용도"}

// topicVector embeds text as one axis per topic it mentions, plus a small
// constant axis so no vector has zero norm.
func topicVector(text string) []float32 {
	v := make([]float32, len(topics)+1)
	for i, topic := range topics {
		if strings.Contains(text, topic) {
			v[i] = 1
		}
	}
	v[len(topics)] = 0.01
	return v
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	mu        sync.Mutex
	embedErr  error
	batchErr  error
	short     bool
	pad       int
	embedded  []string
	batches   int
	pingErr   error
	closeHits int
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	m.embedded = append(m.embedded, text)
	return topicVector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	m.batches++
	m.embedded = append(m.embedded, texts...)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = append(topicVector(t), make([]float32, m.pad)...)
	}
	if m.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return len(topics) + 1
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return m.pingErr
}

func (m *mockEmbeddingService) Close() error {
	m.closeHits++
	return nil
}

// mockAIValidator implements driven.AIConfigValidator for testing.
type mockAIValidator struct {
	err  error
	seen *domain.EmbeddingSettings
}

func (m *mockAIValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	m.seen = cfg
	return m.err
}

// mockConfigStore implements driven.ConfigStore in memory for testing.
type mockConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
	saves  int
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{values: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	v, _ := m.Get(key)
	s, _ := v.(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	v, _ := m.Get(key)
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func (m *mockConfigStore) GetFloat(key string) float64 {
	v, _ := m.Get(key)
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func (m *mockConfigStore) GetBool(key string) bool {
	v, _ := m.Get(key)
	b, _ := v.(bool)
	return b
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	v, _ := m.Get(key)
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (m *mockConfigStore) Set(key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *mockConfigStore) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	return nil
}

func (m *mockConfigStore) Load() error { return nil }

func (m *mockConfigStore) Path() string { return ":memory:" }

// recordingUpdater captures runtime configuration updates.
type recordingUpdater struct {
	retrieval []domain.RetrievalSettings
}

func (r *recordingUpdater) UpdateConfig(settings domain.RetrievalSettings) {
	r.retrieval = append(r.retrieval, settings)
}

type recordingChunking struct {
	opts []domain.ChunkOptions
}

func (r *recordingChunking) UpdateConfig(opts domain.ChunkOptions) int {
	r.opts = append(r.opts, opts)
	return 1
}

// fixture wires real adapters around the mock embedding service.
type fixture struct {
	store     *vectorfile.Store
	catalog   *memory.Catalog
	keywords  *keyword.Index
	pipeline  *postprocessors.Pipeline
	embedding *mockEmbeddingService
	ingest    *IngestService
	retrieval *RetrievalService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	settings := domain.DefaultAppSettings().Retrieval
	store, err := vectorfile.New(t.TempDir(), vectorfile.WithSettings(settings))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		store:     store,
		catalog:   memory.NewCatalog(),
		keywords:  keyword.New(),
		pipeline:  postprocessors.NewPipeline(chunker.New(chunker.WithChunkSize(40), chunker.WithOverlap(0))),
		embedding: &mockEmbeddingService{},
	}
	f.ingest = NewIngestService(f.pipeline, f.store, f.catalog, f.embedding)
	f.retrieval = NewRetrievalService(f.store, f.keywords, f.embedding, settings)
	return f
}
