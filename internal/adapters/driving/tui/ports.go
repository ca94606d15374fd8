// Package tui provides an interactive terminal console for querying the
// retrieval engine. It implements a driving adapter following hexagonal
// architecture principles.
package tui

import (
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces used by the TUI.
type Ports struct {
	// Retrieval answers queries. Required.
	Retrieval driving.RetrievalService

	// Ingest lists and removes documents. Optional; the documents view
	// reports it as unavailable when nil.
	Ingest driving.IngestService

	// TopK is the result limit sent with each query. Zero keeps the
	// service default.
	TopK int
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(retrieval driving.RetrievalService, ingest driving.IngestService) *Ports {
	return &Ports{
		Retrieval: retrieval,
		Ingest:    ingest,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
