// Package postprocessors builds and runs the document processing pipeline
// used at ingestion time.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Reconfigurable is implemented by processors whose chunking options can
// change while the application runs.
type Reconfigurable interface {
	UpdateConfig(opts domain.ChunkOptions)
}

// Pipeline chains multiple PostProcessors and runs them in order.
// It implements the PostProcessorPipeline interface.
type Pipeline struct {
	processors []driven.PostProcessor
}

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process runs the document through all processors in order.
// The first processor receives nil chunks and should create them.
// Positions are renumbered afterwards so they stay contiguous when a
// later processor drops or adds chunks.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	var chunks []domain.Chunk

	for _, processor := range p.processors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var err error
		chunks, err = processor.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	for i := range chunks {
		chunks[i].Position = i
	}

	return chunks, nil
}

// UpdateConfig forwards new chunking options to every processor that
// accepts them. Returns the number of processors updated.
func (p *Pipeline) UpdateConfig(opts domain.ChunkOptions) int {
	updated := 0
	for _, processor := range p.processors {
		if r, ok := processor.(Reconfigurable); ok {
			r.UpdateConfig(opts)
			updated++
		}
	}
	return updated
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}
