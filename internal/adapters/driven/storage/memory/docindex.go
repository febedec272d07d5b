package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// Ensure DocumentIndex implements the interfaces.
var (
	_ driven.DocumentIndex = (*DocumentIndex)(nil)
	_ driven.Retriever     = (*DocumentIndex)(nil)
)

// DocumentIndex is an in-memory keyed document index.
// Search ranks documents by how often the query occurs in their content.
type DocumentIndex struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
}

// NewDocumentIndex creates a new in-memory document index.
func NewDocumentIndex() *DocumentIndex {
	return &DocumentIndex{
		documents: make(map[string]domain.Document),
	}
}

// Upsert stores docs by ID, assigning a random UUID to documents without one.
func (x *DocumentIndex) Upsert(_ context.Context, docs []domain.Document) (driven.UpsertResponse, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	ok := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		x.documents[doc.ID] = doc
		ok = append(ok, doc.ID)
	}
	return driven.UpsertResponse{Succeeded: ok, Failed: []string{}}, nil
}

// Delete removes ids. Unknown ids are neither deleted nor failed.
func (x *DocumentIndex) Delete(_ context.Context, ids []string) (driven.DeleteResponse, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	var ok []string
	for _, id := range ids {
		if _, found := x.documents[id]; found {
			delete(x.documents, id)
			ok = append(ok, id)
		}
	}
	return driven.DeleteResponse{
		Succeeded:  ok,
		Failed:     []string{},
		NumDeleted: len(ok),
	}, nil
}

// Get returns stored documents for ids that exist, in input order.
func (x *DocumentIndex) Get(_ context.Context, ids []string) ([]domain.Document, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := x.documents[id]; ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

// Search returns up to opts.Limit documents ordered by occurrence count of
// query, ties broken by ID.
func (x *DocumentIndex) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	results := make([]domain.SearchResult, 0, len(x.documents))
	for _, doc := range x.documents {
		results = append(results, domain.SearchResult{
			Document: doc,
			Score:    float64(strings.Count(doc.Content, query)),
		})
	}
	sortResults(results)

	if limit := opts.EffectiveLimit(); len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Len returns the number of stored documents.
func (x *DocumentIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.documents)
}

func sortResults(results []domain.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.ID < results[j].Document.ID
	})
}
