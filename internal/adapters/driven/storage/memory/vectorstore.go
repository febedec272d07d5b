package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// Ensure VectorStore implements the interfaces.
var (
	_ driven.VectorStore = (*VectorStore)(nil)
	_ driven.Retriever   = (*VectorStore)(nil)
)

type vectorEntry struct {
	doc    domain.Document
	vector []float32
}

// VectorStore is an in-memory vector store with exact cosine search.
type VectorStore struct {
	embedder driven.EmbeddingService

	mu      sync.RWMutex
	entries map[string]vectorEntry
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore(embedder driven.EmbeddingService) *VectorStore {
	return &VectorStore{
		embedder: embedder,
		entries:  make(map[string]vectorEntry),
	}
}

// AddDocuments embeds docs and stores them under ids.
func (s *VectorStore) AddDocuments(ctx context.Context, docs []domain.Document, ids []string) ([]string, error) {
	if len(docs) != len(ids) {
		return nil, fmt.Errorf("got %d documents and %d ids", len(docs), len(ids))
	}
	if len(docs) == 0 {
		return []string{}, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, doc := range docs {
		doc.ID = ids[i]
		s.entries[ids[i]] = vectorEntry{doc: doc, vector: vectors[i]}
	}
	return ids, nil
}

// Delete removes ids. Unknown ids are ignored.
func (s *VectorStore) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.entries, id)
	}
	return nil
}

// GetByIDs returns stored documents for ids that exist, in input order.
func (s *VectorStore) GetByIDs(_ context.Context, ids []string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.entries[id]; ok {
			out = append(out, e.doc)
		}
	}
	return out, nil
}

// Search embeds query and returns the most similar documents.
func (s *VectorStore) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	if s.embedder == nil {
		return nil, errors.New("vector store has no embedder")
	}
	qv, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.RLock()
	results := make([]domain.SearchResult, 0, len(s.entries))
	for _, e := range s.entries {
		results = append(results, domain.SearchResult{Document: e.doc, Score: cosine(qv, e.vector)})
	}
	s.mu.RUnlock()

	sortResults(results)
	if limit := opts.EffectiveLimit(); len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Len returns the number of stored vectors.
func (s *VectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
