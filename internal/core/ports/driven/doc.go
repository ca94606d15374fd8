// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - VectorStore: Entry persistence and similarity retrieval
//   - KeywordIndex: Structured record lookup
//   - DocumentCatalog: Ingested document bookkeeping
//   - ConfigStore: Application configuration
//   - PostProcessorPipeline: Text chunking
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, queries
//     fall back to the keyword index and ingestion is unavailable.
//   - NormaliserRegistry: Converts raw files to text. Without it, raw data
//     is taken as UTF-8 text.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
