package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/docsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// --- Test helpers ---

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func doc(content, source string) domain.Document {
	return domain.NewDocument(content).WithMetadata(map[string]any{"source": source})
}

func sourceOf(docs ...domain.Document) *memory.DocumentSource {
	return memory.NewDocumentSource(docs...)
}

func configWith(mode domain.CleanupMode) domain.IndexConfig {
	cfg := domain.DefaultIndexConfig()
	cfg.Cleanup = mode
	cfg.SourceID = domain.MetadataSourceID("source")
	cfg.HashAlgorithm = domain.HashSHA256
	return cfg
}

// recordingIndex wraps a memory.DocumentIndex, counting calls and optionally
// reporting failures.
type recordingIndex struct {
	*memory.DocumentIndex

	mu            sync.Mutex
	upserts       [][]string
	deletes       [][]string
	failUpsert    bool
	failDeleteNum int
	deleteErr     error
}

func newRecordingIndex() *recordingIndex {
	return &recordingIndex{DocumentIndex: memory.NewDocumentIndex()}
}

func (r *recordingIndex) Upsert(ctx context.Context, docs []domain.Document) (driven.UpsertResponse, error) {
	r.mu.Lock()
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	r.upserts = append(r.upserts, ids)
	r.mu.Unlock()

	if r.failUpsert {
		return driven.UpsertResponse{Failed: ids}, nil
	}
	return r.DocumentIndex.Upsert(ctx, docs)
}

func (r *recordingIndex) Delete(ctx context.Context, ids []string) (driven.DeleteResponse, error) {
	r.mu.Lock()
	r.deletes = append(r.deletes, ids)
	r.mu.Unlock()

	if r.deleteErr != nil {
		return driven.DeleteResponse{}, r.deleteErr
	}
	if r.failDeleteNum > 0 {
		return driven.DeleteResponse{NumFailed: r.failDeleteNum}, nil
	}
	return r.DocumentIndex.Delete(ctx, ids)
}

func (r *recordingIndex) upsertedIDs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ids := range r.upserts {
		n += len(ids)
	}
	return n
}

// failingRecordManager lets tests inject ledger failures.
type failingRecordManager struct {
	*memory.RecordManager

	getTimeErr    error
	existsErr     error
	existsShort   bool
	updateErr     error
	listErr       error
	deleteErr     error
	existsCalls   int
	existsBatches [][]string
}

func newFailingRecordManager(ns string) *failingRecordManager {
	return &failingRecordManager{RecordManager: memory.NewRecordManager(ns)}
}

func (f *failingRecordManager) GetTime(ctx context.Context) (time.Time, error) {
	if f.getTimeErr != nil {
		return time.Time{}, f.getTimeErr
	}
	return f.RecordManager.GetTime(ctx)
}

func (f *failingRecordManager) Exists(ctx context.Context, keys []string) ([]bool, error) {
	f.existsCalls++
	f.existsBatches = append(f.existsBatches, keys)
	if f.existsErr != nil {
		return nil, f.existsErr
	}
	out, err := f.RecordManager.Exists(ctx, keys)
	if f.existsShort && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, err
}

func (f *failingRecordManager) Update(ctx context.Context, keys []string, groups []*string, at time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.RecordManager.Update(ctx, keys, groups, at)
}

func (f *failingRecordManager) ListKeys(ctx context.Context, opts driven.ListKeysOptions) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.RecordManager.ListKeys(ctx, opts)
}

func (f *failingRecordManager) DeleteKeys(ctx context.Context, keys []string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.RecordManager.DeleteKeys(ctx, keys)
}

// errSource fails after yielding its documents.
type errSource struct {
	docs []domain.Document
	err  error
}

func (s *errSource) Next(_ context.Context) (domain.Document, error) {
	if len(s.docs) == 0 {
		return domain.Document{}, s.err
	}
	d := s.docs[0]
	s.docs = s.docs[1:]
	return d, nil
}

func (s *errSource) Close() error { return nil }

var errBoom = errors.New("boom")
