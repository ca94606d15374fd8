// Package chunker splits document text into bounded, overlapping segments.
package chunker

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragcore/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Processor splits document content into chunks.
// It implements the PostProcessor interface.
type Processor struct {
	mu   sync.RWMutex
	opts domain.ChunkOptions
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.opts.ChunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.opts.ChunkOverlap = overlap
		}
	}
}

// WithRowMode makes every document split on row markers.
func WithRowMode(enabled bool) Option {
	return func(p *Processor) {
		p.opts.RowMode = enabled
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		opts: domain.ChunkOptions{
			ChunkSize:    DefaultChunkSize,
			ChunkOverlap: DefaultChunkOverlap,
		},
	}

	for _, opt := range opts {
		opt(p)
	}

	p.opts.ChunkSize, p.opts.ChunkOverlap = normalise(p.opts.ChunkSize, p.opts.ChunkOverlap)

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Options returns the options currently in effect.
func (p *Processor) Options() domain.ChunkOptions {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.opts
}

// UpdateConfig replaces the chunking options. Chunks already produced are
// unaffected.
func (p *Processor) UpdateConfig(opts domain.ChunkOptions) {
	opts.ChunkSize, opts.ChunkOverlap = normalise(opts.ChunkSize, opts.ChunkOverlap)

	p.mu.Lock()
	p.opts = opts
	p.mu.Unlock()
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
// A document whose metadata marks it structured is split in row mode.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if strings.TrimSpace(doc.Content) == "" {
		// Empty content produces no chunks
		return nil, nil
	}

	opts := p.Options()
	if structured, ok := doc.Metadata[domain.DocStructured].(bool); ok && structured {
		opts.RowMode = true
	}

	texts := Chunk(doc.Content, opts)
	chunks := make([]domain.Chunk, 0, len(texts))

	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Content:    text,
			Position:   i,
			Metadata:   make(map[string]any),
		})
	}

	return chunks, nil
}
