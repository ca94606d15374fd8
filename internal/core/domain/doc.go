// Package domain defines the core business entities for the retrieval engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A bounded slice of document text produced for embedding
//   - Entry: An (embedding, content, metadata) triple held by the vector store
//   - Record: A structured Q&A or ordinance object held by the keyword index
//   - Result: A ranked passage returned to the orchestrator
//   - Document: Catalog bookkeeping for an ingested file
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
