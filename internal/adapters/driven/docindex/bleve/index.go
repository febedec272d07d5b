// Package bleve provides a keyed document index destination backed by
// Bleve v2 full-text search.
//
// Content is analysed for ranked keyword search. Metadata is stored as a
// JSON string alongside it but never indexed.
package bleve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/google/uuid"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

var (
	_ driven.DocumentIndex = (*Index)(nil)
	_ driven.Retriever     = (*Index)(nil)
)

// Stored field names.
const (
	fieldContent  = "content"
	fieldMetadata = "metadata"
	fieldKind     = "kind"
)

var storedFields = []string{fieldContent, fieldMetadata, fieldKind}

// indexedDoc is the document structure handed to Bleve.
type indexedDoc struct {
	Content  string `json:"content"`
	Metadata string `json:"metadata"`
	Kind     string `json:"kind"`
}

// Index is a Bleve-backed driven.DocumentIndex.
type Index struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

// NewIndex opens the index at path, creating it if needed.
// An empty path creates an in-memory index.
func NewIndex(path string) (*Index, error) {
	indexMapping := newIndexMapping()

	var (
		idx bleve.Index
		err error
	)
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
		}
		idx, err = bleve.Open(path)
		if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}

	return &Index{index: idx, path: path}, nil
}

func newIndexMapping() *mapping.IndexMappingImpl {
	content := bleve.NewTextFieldMapping()
	content.Analyzer = standard.Name
	content.Store = true

	metadata := bleve.NewTextFieldMapping()
	metadata.Index = false
	metadata.Store = true
	metadata.IncludeInAll = false
	metadata.IncludeTermVectors = false

	kind := bleve.NewKeywordFieldMapping()
	kind.Store = true
	kind.IncludeInAll = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt(fieldContent, content)
	docMapping.AddFieldMappingsAt(fieldMetadata, metadata)
	docMapping.AddFieldMappingsAt(fieldKind, kind)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name
	return indexMapping
}

// Upsert writes docs keyed by their ID in a single batch. Documents whose
// metadata cannot be encoded are reported as failed.
func (b *Index) Upsert(_ context.Context, docs []domain.Document) (driven.UpsertResponse, error) {
	var resp driven.UpsertResponse
	if len(docs) == 0 {
		return resp, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return resp, domain.ErrClosed
	}

	batch := b.index.NewBatch()
	for _, doc := range docs {
		id := doc.ID
		if id == "" {
			id = uuid.NewString()
		}

		metadata, err := json.Marshal(doc.Metadata)
		if err != nil {
			resp.Failed = append(resp.Failed, id)
			continue
		}
		if err := batch.Index(id, indexedDoc{
			Content:  doc.Content,
			Metadata: string(metadata),
			Kind:     doc.Kind,
		}); err != nil {
			resp.Failed = append(resp.Failed, id)
			continue
		}
		resp.Succeeded = append(resp.Succeeded, id)
	}

	if err := b.index.Batch(batch); err != nil {
		return driven.UpsertResponse{}, fmt.Errorf("failed to execute batch: %w", err)
	}
	return resp, nil
}

// Delete removes ids. Unknown ids succeed without being counted as deleted.
func (b *Index) Delete(ctx context.Context, ids []string) (driven.DeleteResponse, error) {
	var resp driven.DeleteResponse
	if len(ids) == 0 {
		return resp, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return resp, domain.ErrClosed
	}

	hits, err := b.lookup(ctx, ids, nil)
	if err != nil {
		return resp, err
	}

	batch := b.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := b.index.Batch(batch); err != nil {
		return resp, fmt.Errorf("failed to delete documents: %w", err)
	}

	resp.Succeeded = append(resp.Succeeded, ids...)
	resp.NumDeleted = len(hits)
	return resp, nil
}

// Get returns stored documents for ids that exist, in input order.
func (b *Index) Get(ctx context.Context, ids []string) ([]domain.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, domain.ErrClosed
	}

	hits, err := b.lookup(ctx, ids, storedFields)
	if err != nil {
		return nil, err
	}

	var out []domain.Document
	for _, id := range ids {
		if hit, ok := hits[id]; ok {
			out = append(out, documentFromHit(hit))
		}
	}
	return out, nil
}

// lookup fetches the hits for ids that exist. Must be called with mu held.
func (b *Index) lookup(ctx context.Context, ids []string, fields []string) (map[string]*search.DocumentMatch, error) {
	req := bleve.NewSearchRequest(bleve.NewDocIDQuery(ids))
	req.Size = len(ids)
	req.Fields = fields

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to look up documents: %w", err)
	}

	hits := make(map[string]*search.DocumentMatch, len(result.Hits))
	for _, hit := range result.Hits {
		hits[hit.ID] = hit
	}
	return hits, nil
}

// Search returns documents matching query, best first.
func (b *Index) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, domain.ErrClosed
	}
	if strings.TrimSpace(query) == "" {
		return []domain.SearchResult{}, nil
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetField(fieldContent)

	req := bleve.NewSearchRequest(matchQuery)
	req.Size = opts.EffectiveLimit()
	req.Fields = storedFields

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(result.Hits))
	for _, hit := range result.Hits {
		results = append(results, domain.SearchResult{
			Document: documentFromHit(hit),
			Score:    hit.Score,
		})
	}
	return results, nil
}

// Len returns the number of indexed documents.
func (b *Index) Len() (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0, domain.ErrClosed
	}
	count, err := b.index.DocCount()
	return int(count), err
}

// Close closes the underlying index.
func (b *Index) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}

func documentFromHit(hit *search.DocumentMatch) domain.Document {
	doc := domain.Document{
		ID:       hit.ID,
		Content:  fieldString(hit, fieldContent),
		Kind:     fieldString(hit, fieldKind),
		Metadata: map[string]any{},
	}
	if raw := fieldString(hit, fieldMetadata); raw != "" && raw != "null" {
		// Stored by Upsert from json.Marshal, so it always decodes.
		_ = json.Unmarshal([]byte(raw), &doc.Metadata)
	}
	return doc
}

func fieldString(hit *search.DocumentMatch, name string) string {
	v, ok := hit.Fields[name]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
