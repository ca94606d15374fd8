// Package gemini provides an embedding service adapter using the Google
// Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/embedding"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "text-embedding-004"
	DefaultDimensions = 768
	DefaultTimeout    = 60 * time.Second

	// MaxBatch is the batchEmbedContents request limit.
	MaxBatch = 100
)

const providerName = "gemini"

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the embedding model to use (default: text-embedding-004).
	Model string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions is the embedding vector size (default: 768).
	Dimensions int
}

// embedder is the slice of the genai API the service uses.
type embedder interface {
	embedOne(ctx context.Context, text string) ([]float32, error)
	embedMany(ctx context.Context, texts []string) ([][]float32, error)
	close() error
}

// EmbeddingService generates embeddings using Gemini.
type EmbeddingService struct {
	api        embedder
	model      string
	dimensions int
	timeout    time.Duration
}

// NewEmbeddingService creates a new Gemini embedding service.
func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	cfg = withDefaults(cfg)

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, embedding.Failure(providerName, fmt.Errorf("create client: %w", err))
	}

	return newService(&genaiEmbedder{client: client, model: client.EmbeddingModel(cfg.Model)}, cfg), nil
}

func withDefaults(cfg Config) Config {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	return cfg
}

func newService(api embedder, cfg Config) *EmbeddingService {
	return &EmbeddingService{
		api:        api,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		timeout:    cfg.Timeout,
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := embedding.ValidateTexts([]string{text}); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	vec, err := s.api.embedOne(ctx, text)
	if err != nil {
		return nil, mapError(err)
	}
	if len(vec) == 0 {
		return nil, embedding.Failure(providerName, fmt.Errorf("empty embedding returned"))
	}
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts, MaxBatch per request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := embedding.ValidateTexts(texts); err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += MaxBatch {
		end := start + MaxBatch
		if end > len(texts) {
			end = len(texts)
		}

		part, err := s.embedMany(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, part...)
	}
	return out, nil
}

func (s *EmbeddingService) embedMany(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	vecs, err := s.api.embedMany(ctx, texts)
	if err != nil {
		return nil, mapError(err)
	}
	if len(vecs) != len(texts) {
		return nil, embedding.Failure(providerName,
			fmt.Errorf("got %d embeddings for %d inputs", len(vecs), len(texts)))
	}
	for i, v := range vecs {
		if len(v) == 0 {
			return nil, embedding.Failure(providerName, fmt.Errorf("empty embedding at index %d", i))
		}
	}
	return vecs, nil
}

// mapError converts API errors into domain errors.
func mapError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		var retryAfter time.Duration
		if gerr.Header != nil {
			retryAfter = embedding.ParseRetryAfter(gerr.Header.Get("Retry-After"), time.Now())
		}
		return embedding.StatusError(providerName, gerr.Code, gerr.Message, retryAfter)
	}
	return embedding.Failure(providerName, err)
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping embeds a one-word probe. Gemini has no free metadata call that
// validates an API key for embedding use.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	_, err := s.Embed(ctx, "ping")
	return err
}

// Close releases the underlying client.
func (s *EmbeddingService) Close() error {
	return s.api.close()
}

// genaiEmbedder adapts *genai.EmbeddingModel.
type genaiEmbedder struct {
	client *genai.Client
	model  *genai.EmbeddingModel
}

func (g *genaiEmbedder) embedOne(ctx context.Context, text string) ([]float32, error) {
	resp, err := g.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Embedding == nil {
		return nil, nil
	}
	return values(resp.Embedding), nil
}

func (g *genaiEmbedder) embedMany(ctx context.Context, texts []string) ([][]float32, error) {
	batch := g.model.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	resp, err := g.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e != nil {
			out[i] = values(e)
		}
	}
	return out, nil
}

func (g *genaiEmbedder) close() error {
	return g.client.Close()
}

func values(e *genai.ContentEmbedding) []float32 {
	out := make([]float32, len(e.Values))
	for i, v := range e.Values {
		out[i] = float32(v)
	}
	return out
}
