package driven

import (
	"context"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// VectorStore is the embedding-backed destination shape.
type VectorStore interface {
	// AddDocuments writes docs under the given ids, replacing any entry with
	// the same id, and returns the ids written.
	AddDocuments(ctx context.Context, docs []domain.Document, ids []string) ([]string, error)

	// Delete removes the entries with the given ids.
	Delete(ctx context.Context, ids []string) error

	// GetByIDs returns the stored documents for ids that exist, in input order.
	GetByIDs(ctx context.Context, ids []string) ([]domain.Document, error)
}

// DocumentIndex is the keyed document index destination shape.
// Unlike VectorStore it reports per-id failures instead of failing the call.
type DocumentIndex interface {
	// Upsert writes docs keyed by their ID. Documents without an ID are
	// assigned a random UUID.
	Upsert(ctx context.Context, docs []domain.Document) (UpsertResponse, error)

	// Delete removes the entries with the given ids.
	Delete(ctx context.Context, ids []string) (DeleteResponse, error)

	// Get returns the stored documents for ids that exist, in input order.
	Get(ctx context.Context, ids []string) ([]domain.Document, error)
}

// Flusher is implemented by destinations that buffer writes in memory.
// The indexer flushes after every destination write or delete, before the
// ledger records it.
type Flusher interface {
	Flush(ctx context.Context) error
}

// UpsertResponse reports the outcome of DocumentIndex.Upsert.
type UpsertResponse struct {
	Succeeded []string
	Failed    []string
}

// DeleteResponse reports the outcome of DocumentIndex.Delete.
type DeleteResponse struct {
	Succeeded []string
	Failed    []string

	// NumDeleted is the number of entries actually removed.
	NumDeleted int

	// NumFailed is the number of ids that could not be removed. Callers
	// treat any non-zero value as a hard error.
	NumFailed int
}

// Destination is one of VectorStore or DocumentIndex.
// The zero value holds neither and is rejected by the indexer.
type Destination struct {
	vectorStore   VectorStore
	documentIndex DocumentIndex
}

// NewVectorStoreDestination wraps a vector store.
func NewVectorStoreDestination(vs VectorStore) Destination {
	return Destination{vectorStore: vs}
}

// NewDocumentIndexDestination wraps a document index.
func NewDocumentIndexDestination(idx DocumentIndex) Destination {
	return Destination{documentIndex: idx}
}

// VectorStore returns the wrapped vector store, if that is the shape.
func (d Destination) VectorStore() (VectorStore, bool) {
	return d.vectorStore, d.vectorStore != nil
}

// DocumentIndex returns the wrapped document index, if that is the shape.
func (d Destination) DocumentIndex() (DocumentIndex, bool) {
	return d.documentIndex, d.documentIndex != nil
}

// IsZero reports whether the destination wraps nothing.
func (d Destination) IsZero() bool {
	return d.vectorStore == nil && d.documentIndex == nil
}
