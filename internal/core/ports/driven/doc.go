// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// A reconciliation run needs all of these:
//
//   - DocumentSource: Lazily yields the documents of a corpus
//   - RecordManager: Ledger of (document id, source id, last seen)
//   - Destination: Either a VectorStore or a DocumentIndex
//
// # Optional Interfaces
//
// Used by the CLI and by adapters, never by the reconciliation core:
//
//   - EmbeddingService: Produces vectors for VectorStore adapters
//   - Retriever: Query-time lookup against a destination
//   - RunLocker: Serialises runs against one namespace
//   - SettingsStore: Persisted CLI configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
