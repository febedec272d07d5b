// Package hnsw provides a vector store destination backed by coder/hnsw,
// a pure Go HNSW graph.
//
// Documents are embedded on write through a driven.EmbeddingService.
// Replacing or deleting an id orphans its graph node instead of removing it;
// orphaned nodes are skipped at query time and dropped on Compact. Flush
// compacts once orphans make up a third of the graph, and Close always does.
package hnsw

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

var (
	_ driven.VectorStore = (*Store)(nil)
	_ driven.Retriever   = (*Store)(nil)
	_ driven.Flusher     = (*Store)(nil)
)

// Graph parameters.
const (
	defaultM        = 16
	defaultEfSearch = 20
	defaultMl       = 0.25
)

// storedDoc is the persisted form of a document.
type storedDoc struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Kind     string         `json:"kind,omitempty"`
	Key      uint64         `json:"key"`

	// Indexed is false for documents whose vector is all zeroes.
	Indexed bool `json:"indexed"`
}

// snapshot is the sidecar written next to the exported graph.
type snapshot struct {
	Dimensions int                  `json:"dimensions"`
	NextKey    uint64               `json:"next_key"`
	Docs       map[string]storedDoc `json:"docs"`
}

// Stats reports graph occupancy.
type Stats struct {
	Documents  int
	GraphNodes int
	Orphans    int
}

// Store is an HNSW-backed driven.VectorStore.
type Store struct {
	mu       sync.RWMutex
	embedder driven.EmbeddingService
	path     string

	graph   *hnsw.Graph[uint64]
	docs    map[string]storedDoc
	keyMap  map[uint64]string
	nextKey uint64
	indexed int
	dirty   bool
	closed  bool
}

// NewStore creates a vector store. When path is non-empty an existing
// snapshot there is loaded, and Flush and Close write the store back to it.
func NewStore(embedder driven.EmbeddingService, path string) (*Store, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: hnsw store requires an embedding service", domain.ErrInvalidConfig)
	}

	s := &Store{
		embedder: embedder,
		path:     path,
		graph:    newGraph(),
		docs:     make(map[string]storedDoc),
		keyMap:   make(map[uint64]string),
	}

	if path != "" {
		if err := s.load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return s, nil
}

func newGraph() *hnsw.Graph[uint64] {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = defaultM
	graph.EfSearch = defaultEfSearch
	graph.Ml = defaultMl
	return graph
}

// AddDocuments embeds docs and writes them under ids, replacing existing entries.
func (s *Store) AddDocuments(ctx context.Context, docs []domain.Document, ids []string) ([]string, error) {
	if len(docs) != len(ids) {
		return nil, fmt.Errorf("docs and ids length mismatch: %d vs %d", len(docs), len(ids))
	}
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	dims := s.embedder.Dimensions()
	for _, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("dimension mismatch: expected %d, got %d", dims, len(v))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrClosed
	}

	for i, id := range ids {
		s.orphan(id)

		key := s.nextKey
		s.nextKey++

		vec := normalized(vectors[i])
		stored := storedDoc{
			Content:  docs[i].Content,
			Metadata: docs[i].Metadata,
			Kind:     docs[i].Kind,
			Key:      key,
			Indexed:  vec != nil,
		}
		if stored.Indexed {
			s.graph.Add(hnsw.MakeNode(key, vec))
			s.keyMap[key] = id
			s.indexed++
		}
		s.docs[id] = stored
	}
	s.dirty = true

	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

// orphan detaches id from its graph node. Must be called with mu held.
func (s *Store) orphan(id string) {
	existing, ok := s.docs[id]
	if !ok {
		return
	}
	if existing.Indexed {
		delete(s.keyMap, existing.Key)
		s.indexed--
	}
	delete(s.docs, id)
}

// Delete removes ids. Unknown ids are ignored.
func (s *Store) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrClosed
	}
	for _, id := range ids {
		if _, ok := s.docs[id]; ok {
			s.orphan(id)
			s.dirty = true
		}
	}
	return nil
}

// GetByIDs returns stored documents for ids that exist, in input order.
func (s *Store) GetByIDs(_ context.Context, ids []string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, domain.ErrClosed
	}

	var out []domain.Document
	for _, id := range ids {
		if stored, ok := s.docs[id]; ok {
			out = append(out, stored.document(id))
		}
	}
	return out, nil
}

// Search embeds query and returns the nearest documents by cosine similarity.
func (s *Store) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	vec := normalized(vector)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, domain.ErrClosed
	}
	if vec == nil || s.indexed == 0 {
		return []domain.SearchResult{}, nil
	}

	limit := opts.EffectiveLimit()
	orphans := s.graph.Len() - s.indexed
	nodes := s.graph.Search(vec, min(s.graph.Len(), limit+orphans))

	results := make([]domain.SearchResult, 0, limit)
	for _, node := range nodes {
		id, ok := s.keyMap[node.Key]
		if !ok {
			continue
		}
		distance := s.graph.Distance(vec, node.Value)
		results = append(results, domain.SearchResult{
			Document: s.docs[id].document(id),
			Score:    1 - float64(distance)/2,
		})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Stats returns graph occupancy, including orphaned nodes.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Documents:  len(s.docs),
		GraphNodes: s.graph.Len(),
		Orphans:    s.graph.Len() - s.indexed,
	}
}

// Compact rebuilds the graph from live nodes, dropping orphans.
func (s *Store) Compact() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.compact()
}

// compact must be called with mu held.
func (s *Store) compact() {
	if s.graph.Len() == s.indexed {
		return
	}

	fresh := newGraph()
	for key := range s.keyMap {
		if vec, ok := s.graph.Lookup(key); ok {
			fresh.Add(hnsw.MakeNode(key, vec))
		}
	}
	s.graph = fresh
	s.dirty = true
}

// overgrown reports whether orphans are at least a third of the graph.
func (s *Store) overgrown() bool {
	orphans := s.graph.Len() - s.indexed
	return orphans > 0 && orphans*3 >= s.graph.Len()
}

// Flush writes pending changes to the store's path, compacting first when
// the graph is overgrown. It is a no-op for stores without a path.
func (s *Store) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrClosed
	}
	if s.path == "" || !s.dirty {
		return nil
	}
	if s.overgrown() {
		s.compact()
	}
	if err := s.save(s.path); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// save writes the graph and its sidecar to path. Must be called with mu held.
func (s *Store) save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpIndexPath := path + ".tmp"
	file, err := os.Create(tmpIndexPath)
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	if err := s.graph.Export(file); err != nil {
		file.Close()
		os.Remove(tmpIndexPath)
		return fmt.Errorf("failed to export graph: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpIndexPath)
		return fmt.Errorf("failed to close index file: %w", err)
	}
	if err := os.Rename(tmpIndexPath, path); err != nil {
		os.Remove(tmpIndexPath)
		return fmt.Errorf("failed to rename index file: %w", err)
	}

	data, err := json.Marshal(snapshot{
		Dimensions: s.embedder.Dimensions(),
		NextKey:    s.nextKey,
		Docs:       s.docs,
	})
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	tmpMetaPath := path + ".meta.tmp"
	if err := os.WriteFile(tmpMetaPath, data, 0600); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return os.Rename(tmpMetaPath, path+".meta")
}

// load restores a snapshot written by save. Must be called before the store is shared.
func (s *Store) load(path string) error {
	data, err := os.ReadFile(path + ".meta")
	if err != nil {
		return err
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode hnsw metadata: %w", err)
	}
	if snap.Dimensions != s.embedder.Dimensions() {
		return fmt.Errorf("%w: index at %s has %d dimensions, embedder produces %d",
			domain.ErrInvalidConfig, path, snap.Dimensions, s.embedder.Dimensions())
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open index file: %w", err)
	}
	defer file.Close()

	graph := newGraph()
	if err := graph.Import(bufio.NewReader(file)); err != nil {
		return fmt.Errorf("failed to import graph: %w", err)
	}

	s.graph = graph
	s.nextKey = snap.NextKey
	s.docs = snap.Docs
	if s.docs == nil {
		s.docs = make(map[string]storedDoc)
	}
	s.keyMap = make(map[uint64]string, len(s.docs))
	s.indexed = 0
	for id, stored := range s.docs {
		if stored.Indexed {
			s.keyMap[stored.Key] = id
			s.indexed++
		}
	}
	return nil
}

// Close compacts the graph and saves the store when it was opened with a path.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.path == "" {
		return nil
	}
	s.compact()
	if !s.dirty {
		return nil
	}
	return s.save(s.path)
}

func (d storedDoc) document(id string) domain.Document {
	return domain.Document{
		ID:       id,
		Content:  d.Content,
		Metadata: d.Metadata,
		Kind:     d.Kind,
	}
}

// normalized returns a unit-length copy of v, or nil for a zero vector.
func normalized(v []float32) []float32 {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return nil
	}
	inv := float32(1 / math.Sqrt(sumSquares))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * inv
	}
	return out
}
