package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

// runAt indexes docs with the ledger clock pinned to at.
func runAt(
	t *testing.T, rm *memory.RecordManager, dest driven.Destination, cfg domain.IndexConfig,
	at time.Time, docs ...domain.Document,
) domain.IndexingResult {
	t.Helper()
	rm.SetTimeOverride(at)
	result, err := NewIndexService().Index(context.Background(), sourceOf(docs...), rm, dest, cfg)
	require.NoError(t, err)
	return result
}

func TestNewIndexService(t *testing.T) {
	assert.NotNil(t, NewIndexService())
}

func TestIndex_EmptySource(t *testing.T) {
	rm := memory.NewRecordManager("ns")
	idx := newRecordingIndex()

	result := runAt(t, rm, driven.NewDocumentIndexDestination(idx), configWith(domain.CleanupFull), baseTime)

	assert.Equal(t, domain.IndexingResult{}, result)
	assert.Empty(t, idx.upserts)
}

func TestIndex_AddsNewDocuments(t *testing.T) {
	rm := memory.NewRecordManager("ns")
	idx := newRecordingIndex()
	dest := driven.NewDocumentIndexDestination(idx)

	result := runAt(t, rm, dest, configWith(domain.CleanupNone), baseTime,
		doc("alpha", "a.txt"), doc("beta", "b.txt"))

	assert.Equal(t, domain.IndexingResult{NumAdded: 2}, result)
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 2, rm.Len())
}

func TestIndex_Idempotent(t *testing.T) {
	rm := memory.NewRecordManager("ns")
	idx := newRecordingIndex()
	dest := driven.NewDocumentIndexDestination(idx)
	cfg := configWith(domain.CleanupNone)
	docs := []domain.Document{doc("alpha", "a"), doc("beta", "b"), doc("gamma", "c")}

	runAt(t, rm, dest, cfg, baseTime, docs...)
	second := runAt(t, rm, dest, cfg, baseTime.Add(time.Hour), docs...)

	assert.Equal(t, domain.IndexingResult{NumSkipped: 3}, second)
	assert.Equal(t, 3, idx.upsertedIDs(), "unchanged documents must not be rewritten")
}

func TestIndex_RefreshBumpsLedgerTimestamp(t *testing.T) {
	rm := memory.NewRecordManager("ns")
	dest := driven.NewDocumentIndexDestination(memory.NewDocumentIndex())
	cfg := configWith(domain.CleanupNone)

	runAt(t, rm, dest, cfg, baseTime, doc("alpha", "a"))
	runAt(t, rm, dest, cfg, baseTime.Add(time.Hour), doc("alpha", "a"))

	stale, err := rm.ListKeys(context.Background(), driven.ListKeysOptions{Before: baseTime.Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestIndex_IntraBatchDedup(t *testing.T) {
	rm := memory.NewRecordManager("ns")
	idx := newRecordingIndex()

	a := doc("alpha", "a")
	result := runAt(t, rm, driven.NewDocumentIndexDestination(idx), configWith(domain.CleanupNone), baseTime,
		a, a, doc("beta", "b"))

	assert.Equal(t, domain.IndexingResult{NumAdded: 2, NumSkipped: 1}, result)
	require.Len(t, idx.upserts, 1)
	assert.Len(t, idx.upserts[0], 2)
}

func TestIndex_DuplicatesAcrossBatches(t *testing.T) {
	rm := memory.NewRecordManager("ns")
	cfg := configWith(domain.CleanupNone)
	cfg.BatchSize = 1

	a := doc("alpha", "a")
	result := runAt(t, rm, driven.NewDocumentIndexDestination(memory.NewDocumentIndex()), cfg, baseTime, a, a)

	// The second copy is found in the ledger rather than deduplicated.
	assert.Equal(t, domain.IndexingResult{NumAdded: 1, NumSkipped: 1}, result)
}

func TestIndex_IncrementalCleanupIsScopedToSource(t *testing.T) {
	rm := memory.NewRecordManager("ns")
	idx := newRecordingIndex()
	dest := driven.NewDocumentIndexDestination(idx)
	cfg := configWith(domain.CleanupIncremental)

	first := runAt(t, rm, dest, cfg, baseTime, doc("A", "s1"), doc("B", "s1"), doc("C", "s2"))
	assert.Equal(t, domain.IndexingResult{NumAdded: 3}, first)

	second := runAt(t, rm, dest, cfg, baseTime.Add(time.Hour), doc("A", "s1"))

	assert.Equal(t, domain.IndexingResult{NumDeleted: 1, NumSkipped: 1}, second)
	assert.Equal(t, 2, idx.Len())

	remaining, err := idx.Search(context.Background(), "C", domain.SearchOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, "C", remaining[0].Document.Content, "documents under untouched sources survive")

	group, ok := rm.GroupOf(hashFor(t, doc("C", "s2"), cfg))
	assert.True(t, ok)
	assert.Equal(t, "s2", group)
}

func TestIndex_IncrementalCleanupReplacesChangedDocument(t *testing.T) {
	rm := memory.NewRecordManager("ns")
	idx := newRecordingIndex()
	dest := driven.NewDocumentIndexDestination(idx)
	cfg := configWith(domain.CleanupIncremental)

	runAt(t, rm, dest, cfg, baseTime, doc("version one", "page.md"))
	second := runAt(t, rm, dest, cfg, baseTime.Add(time.Hour), doc("version two", "page.md"))

	assert.Equal(t, domain.IndexingResult{NumAdded: 1, NumDeleted: 1}, second)
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 1, rm.Len())
}

func TestIndex_IncrementalSourceSplitAcrossBatches(t *testing.T) {
	rm := memory.NewRecordManager("ns")
	idx := newRecordingIndex()
	dest := driven.NewDocumentIndexDestination(idx)
	cfg := configWith(domain.CleanupIncremental)
	cfg.BatchSize = 1

	runAt(t, rm, dest, cfg, baseTime, doc("A", "s1"), doc("B", "s1"))
	second := runAt(t, rm, dest, cfg, baseTime.Add(time.Hour), doc("A", "s1"), doc("B", "s1"))

	// The first batch sweeps B before the second batch sees it again, so B is
	// deleted and re-added. The destination still converges.
	assert.Equal(t, domain.IndexingResult{NumAdded: 1, NumDeleted: 1, NumSkipped: 1}, second)
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 2, rm.Len())
}

func TestIndex_FullCleanup(t *testing.T) {
	rm := memory.NewRecordManager("ns")
	idx := newRecordingIndex()
	dest := driven.NewDocumentIndexDestination(idx)
	cfg := domain.DefaultIndexConfig()
	cfg.Cleanup = domain.CleanupFull

	runAt(t, rm, dest, cfg, baseTime, domain.NewDocument("A"), domain.NewDocument("B"), domain.NewDocument("C"))
	second := runAt(t, rm, dest, cfg, baseTime.Add(time.Hour), domain.NewDocument("A"))

	assert.Equal(t, domain.IndexingResult{NumDeleted: 2, NumSkipped: 1}, second)
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 1, rm.Len())
}

func TestIndex_FullCleanupIsDeferredUntilSourceIsConsumed(t *testing.T) {
	rm := memory.NewRecordManager("ns")
	dest := driven.NewDocumentIndexDestination(memory.NewDocumentIndex())
	cfg := configWith(domain.CleanupFull)
	cfg.BatchSize = 1

	docs := []domain.Document{doc("A", "x"), doc("B", "y"), doc("C", "z")}
	runAt(t, rm, dest, cfg, baseTime, docs...)
	second := runAt(t, rm, dest, cfg, baseTime.Add(time.Hour), docs...)

	assert.Equal(t, domain.IndexingResult{NumSkipped: 3}, second)
}

func TestIndex_FullCleanupWithEmptySourceDeletesEverything(t *testing.T) {
	rm := memory.NewRecordManager("ns")
	idx := newRecordingIndex()
	dest := driven.NewDocumentIndexDestination(idx)
	cfg := configWith(domain.CleanupFull)
	cfg.CleanupBatchSize = 1

	runAt(t, rm, dest, cfg, baseTime, doc("A", "x"), doc("B", "y"), doc("C", "z"))
	second := runAt(t, rm, dest, cfg, baseTime.Add(time.Hour))

	assert.Equal(t, domain.IndexingResult{NumDeleted: 3}, second)
	assert.Len(t, idx.deletes, 3, "each sweep step deletes at most the cleanup batch size")
	assert.Equal(t, 0, idx.Len())
}

func TestIndex_ScopedFullCleanup(t *testing.T) {
	rm := memory.NewRecordManager("ns")
	idx := newRecordingIndex()
	dest := driven.NewDocumentIndexDestination(idx)
	cfg := configWith(domain.CleanupScopedFull)
	cfg.BatchSize = 1

	runAt(t, rm, dest, cfg, baseTime, doc("A", "s1"), doc("B", "s1"), doc("C", "s2"))
	second := runAt(t, rm, dest, cfg, baseTime.Add(time.Hour), doc("A", "s1"))

	assert.Equal(t, domain.IndexingResult{NumDeleted: 1, NumSkipped: 1}, second)
	assert.Equal(t, 2, idx.Len(), "C under s2 was not observed and must survive")
}

func TestIndex_ScopedFullWithNoSourcesSkipsSweep(t *testing.T) {
	rm := memory.NewRecordManager("ns")
	idx := newRecordingIndex()
	dest := driven.NewDocumentIndexDestination(idx)
	cfg := configWith(domain.CleanupScopedFull)

	runAt(t, rm, dest, cfg, baseTime, doc("A", "s1"))
	second := runAt(t, rm, dest, cfg, baseTime.Add(time.Hour))

	assert.Equal(t, domain.IndexingResult{}, second)
	assert.Empty(t, idx.deletes)
	assert.Equal(t, 1, idx.Len())
}

func TestIndex_MissingSourceIDFailsRun(t *testing.T) {
	for _, mode := range []domain.CleanupMode{domain.CleanupIncremental, domain.CleanupScopedFull} {
		t.Run(string(mode), func(t *testing.T) {
			rm := memory.NewRecordManager("ns")
			idx := newRecordingIndex()

			content := strings.Repeat("z", 120)
			_, err := NewIndexService().Index(context.Background(),
				sourceOf(doc("ok", "s1"), domain.NewDocument(content)),
				rm, driven.NewDocumentIndexDestination(idx), configWith(mode))

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
			assert.Contains(t, err.Error(), strings.Repeat("z", 100))
			assert.NotContains(t, err.Error(), strings.Repeat("z", 101))
			assert.Empty(t, idx.upserts, "nothing is written for the failing batch")
			assert.Equal(t, 0, rm.Len())
		})
	}
}

func TestIndex_EmptySourceIDIsAValidGroup(t *testing.T) {
	tests := []struct {
		name string
		mode domain.CleanupMode
	}{
		{name: "incremental", mode: domain.CleanupIncremental},
		{name: "scoped full", mode: domain.CleanupScopedFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := memory.NewRecordManager("ns")
			idx := newRecordingIndex()
			dest := driven.NewDocumentIndexDestination(idx)
			cfg := configWith(tt.mode)

			first := runAt(t, rm, dest, cfg, baseTime, doc("A", ""), doc("B", ""), doc("C", "s1"))
			assert.Equal(t, domain.IndexingResult{NumAdded: 3}, first)

			group, ok := rm.GroupOf(hashFor(t, doc("A", ""), cfg))
			assert.True(t, ok, "the empty source id is recorded as a group")
			assert.Equal(t, "", group)

			second := runAt(t, rm, dest, cfg, baseTime.Add(time.Hour), doc("A", ""))
			assert.Equal(t, domain.IndexingResult{NumSkipped: 1, NumDeleted: 1}, second)
			exists, err := rm.Exists(context.Background(),
				[]string{hashFor(t, doc("B", ""), cfg), hashFor(t, doc("C", "s1"), cfg)})
			require.NoError(t, err)
			assert.Equal(t, []bool{false, true}, exists, "only the stale entry of the empty group is swept")
		})
	}
}

func TestIndex_MissingSourceIDAllowedWithoutScopedCleanup(t *testing.T) {
	rm := memory.NewRecordManager("ns")
	result := runAt(t, rm, driven.NewDocumentIndexDestination(memory.NewDocumentIndex()),
		configWith(domain.CleanupFull), baseTime, domain.NewDocument("no source"))

	assert.Equal(t, 1, result.NumAdded)
}

func TestIndex_ConfigErrorBeforeAnyIO(t *testing.T) {
	rm := newFailingRecordManager("ns")
	rm.getTimeErr = errBoom
	cfg := domain.DefaultIndexConfig()
	cfg.Cleanup = domain.CleanupIncremental

	_, err := NewIndexService().Index(context.Background(), sourceOf(doc("a", "s")), rm,
		driven.NewDocumentIndexDestination(memory.NewDocumentIndex()), cfg)

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.NotErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "source id key is required")
}

func TestIndex_RejectsMissingCollaborators(t *testing.T) {
	svc := NewIndexService()
	ctx := context.Background()
	cfg := domain.DefaultIndexConfig()
	dest := driven.NewDocumentIndexDestination(memory.NewDocumentIndex())

	_, err := svc.Index(ctx, nil, memory.NewRecordManager("ns"), dest, cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = svc.Index(ctx, sourceOf(), nil, dest, cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = svc.Index(ctx, sourceOf(), memory.NewRecordManager("ns"), driven.Destination{}, cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestIndex_ForceUpdate(t *testing.T) {
	rm := memory.NewRecordManager("ns")
	idx := newRecordingIndex()
	dest := driven.NewDocumentIndexDestination(idx)
	cfg := configWith(domain.CleanupNone)

	runAt(t, rm, dest, cfg, baseTime, doc("alpha", "a"))
	cfg.ForceUpdate = true
	second := runAt(t, rm, dest, cfg, baseTime.Add(time.Hour), doc("alpha", "a"), doc("beta", "b"))

	assert.Equal(t, domain.IndexingResult{NumAdded: 1, NumUpdated: 1}, second)
	require.Len(t, idx.upserts, 2)
	assert.Len(t, idx.upserts[1], 2, "the existing document is rewritten")
}

func TestIndex_ExistsCalledOncePerBatch(t *testing.T) {
	rm := newFailingRecordManager("ns")
	cfg := configWith(domain.CleanupNone)
	cfg.BatchSize = 2

	_, err := NewIndexService().Index(context.Background(),
		sourceOf(doc("1", "s"), doc("2", "s"), doc("3", "s"), doc("4", "s"), doc("5", "s")),
		rm, driven.NewDocumentIndexDestination(memory.NewDocumentIndex()), cfg)

	require.NoError(t, err)
	assert.Equal(t, 3, rm.existsCalls)
	assert.Len(t, rm.existsBatches[0], 2)
	assert.Len(t, rm.existsBatches[2], 1)
}

func TestIndex_LedgerFailuresAbortRun(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*failingRecordManager)
		wantErr error
	}{
		{name: "get time", mutate: func(f *failingRecordManager) { f.getTimeErr = errBoom }, wantErr: errBoom},
		{name: "exists", mutate: func(f *failingRecordManager) { f.existsErr = errBoom }, wantErr: errBoom},
		{name: "exists length", mutate: func(f *failingRecordManager) { f.existsShort = true }, wantErr: domain.ErrRecordManager},
		{name: "update", mutate: func(f *failingRecordManager) { f.updateErr = errBoom }, wantErr: errBoom},
		{name: "list keys", mutate: func(f *failingRecordManager) { f.listErr = errBoom }, wantErr: errBoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rm := newFailingRecordManager("ns")
			tt.mutate(rm)

			_, err := NewIndexService().Index(context.Background(), sourceOf(doc("a", "s"), doc("b", "s")),
				rm, driven.NewDocumentIndexDestination(memory.NewDocumentIndex()), configWith(domain.CleanupIncremental))

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIndex_LedgerDeleteFailureAbortsCleanup(t *testing.T) {
	rm := newFailingRecordManager("ns")
	dest := driven.NewDocumentIndexDestination(memory.NewDocumentIndex())
	cfg := configWith(domain.CleanupFull)

	rm.SetTimeOverride(baseTime)
	_, err := NewIndexService().Index(context.Background(), sourceOf(doc("a", "s")), rm, dest, cfg)
	require.NoError(t, err)

	rm.SetTimeOverride(baseTime.Add(time.Hour))
	rm.deleteErr = errBoom
	_, err = NewIndexService().Index(context.Background(), sourceOf(), rm, dest, cfg)
	assert.ErrorIs(t, err, errBoom)
}

func TestIndex_DocumentIndexFailuresAreHardErrors(t *testing.T) {
	t.Run("upsert failed ids", func(t *testing.T) {
		idx := newRecordingIndex()
		idx.failUpsert = true
		rm := memory.NewRecordManager("ns")

		_, err := NewIndexService().Index(context.Background(), sourceOf(doc("a", "s")),
			rm, driven.NewDocumentIndexDestination(idx), configWith(domain.CleanupNone))

		assert.ErrorIs(t, err, domain.ErrDestination)
		assert.Equal(t, 0, rm.Len(), "the ledger only records completed writes")
	})

	t.Run("delete num failed", func(t *testing.T) {
		idx := newRecordingIndex()
		rm := memory.NewRecordManager("ns")
		dest := driven.NewDocumentIndexDestination(idx)
		cfg := configWith(domain.CleanupFull)
		runAt(t, rm, dest, cfg, baseTime, doc("a", "s"))

		idx.failDeleteNum = 1
		rm.SetTimeOverride(baseTime.Add(time.Hour))
		_, err := NewIndexService().Index(context.Background(), sourceOf(), rm, dest, cfg)

		assert.ErrorIs(t, err, domain.ErrDestination)
		assert.Equal(t, 1, rm.Len(), "ledger entry stays until the destination delete succeeds")
	})

	t.Run("delete error", func(t *testing.T) {
		idx := newRecordingIndex()
		rm := memory.NewRecordManager("ns")
		dest := driven.NewDocumentIndexDestination(idx)
		cfg := configWith(domain.CleanupFull)
		runAt(t, rm, dest, cfg, baseTime, doc("a", "s"))

		idx.deleteErr = errBoom
		rm.SetTimeOverride(baseTime.Add(time.Hour))
		_, err := NewIndexService().Index(context.Background(), sourceOf(), rm, dest, cfg)

		assert.ErrorIs(t, err, domain.ErrDestination)
		assert.ErrorIs(t, err, errBoom)
	})
}

func TestIndex_SourceError(t *testing.T) {
	src := &errSource{docs: []domain.Document{doc("a", "s")}, err: errBoom}

	_, err := NewIndexService().Index(context.Background(), src, memory.NewRecordManager("ns"),
		driven.NewDocumentIndexDestination(memory.NewDocumentIndex()), configWith(domain.CleanupNone))

	assert.ErrorIs(t, err, errBoom)
}

func TestIndex_HashingErrorAbortsRun(t *testing.T) {
	bad := domain.NewDocument("bad doc").WithMetadata(map[string]any{"f": func() {}})

	_, err := NewIndexService().Index(context.Background(), sourceOf(bad), memory.NewRecordManager("ns"),
		driven.NewDocumentIndexDestination(memory.NewDocumentIndex()), configWith(domain.CleanupNone))

	assert.ErrorIs(t, err, domain.ErrHashing)
	assert.Contains(t, err.Error(), "bad doc")
}

func TestIndex_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewIndexService().Index(ctx, sourceOf(doc("a", "s")), memory.NewRecordManager("ns"),
		driven.NewDocumentIndexDestination(memory.NewDocumentIndex()), configWith(domain.CleanupNone))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestIndex_VectorStoreDestination(t *testing.T) {
	rm := memory.NewRecordManager("ns")
	vs := memory.NewVectorStore(&lengthEmbedder{})
	dest := driven.NewVectorStoreDestination(vs)
	cfg := configWith(domain.CleanupFull)

	first := runAt(t, rm, dest, cfg, baseTime, doc("A", "x"), doc("BB", "y"))
	assert.Equal(t, domain.IndexingResult{NumAdded: 2}, first)
	assert.Equal(t, 2, vs.Len())

	second := runAt(t, rm, dest, cfg, baseTime.Add(time.Hour), doc("BB", "y"))
	assert.Equal(t, domain.IndexingResult{NumDeleted: 1, NumSkipped: 1}, second)
	assert.Equal(t, 1, vs.Len())

	id := hashFor(t, doc("BB", "y"), cfg)
	stored, err := vs.GetByIDs(context.Background(), []string{id})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "BB", stored[0].Content)
}

func TestIndex_KeyFunc(t *testing.T) {
	rm := memory.NewRecordManager("ns")
	idx := newRecordingIndex()
	cfg := configWith(domain.CleanupNone)
	cfg.KeyFunc = func(d domain.Document) string { return "doc-" + d.Content }

	runAt(t, rm, driven.NewDocumentIndexDestination(idx), cfg, baseTime, doc("1", "s"))

	docs, err := idx.Get(context.Background(), []string{"doc-1"})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestIndexAsync(t *testing.T) {
	rm := memory.NewRecordManager("ns")
	out := NewIndexService().IndexAsync(context.Background(), sourceOf(doc("a", "s")), rm,
		driven.NewDocumentIndexDestination(memory.NewDocumentIndex()), configWith(domain.CleanupNone))

	outcome, ok := <-out
	require.True(t, ok)
	require.NoError(t, outcome.Err)
	assert.Equal(t, 1, outcome.Result.NumAdded)

	_, ok = <-out
	assert.False(t, ok)
}

func TestIndexAsync_CancelledProducesNoResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := NewIndexService().IndexAsync(ctx, sourceOf(doc("a", "s")), memory.NewRecordManager("ns"),
		driven.NewDocumentIndexDestination(memory.NewDocumentIndex()), configWith(domain.CleanupNone))

	_, ok := <-out
	assert.False(t, ok)
}

func TestIndexCorpora(t *testing.T) {
	svc := NewIndexService()
	corpora := []driving.Corpus{
		{
			Name:          "docs",
			Source:        sourceOf(doc("a", "s"), doc("b", "s")),
			RecordManager: memory.NewRecordManager("docs"),
			Destination:   driven.NewDocumentIndexDestination(memory.NewDocumentIndex()),
			Config:        configWith(domain.CleanupFull),
		},
		{
			Name:          "wiki",
			Source:        sourceOf(doc("c", "s")),
			RecordManager: memory.NewRecordManager("wiki"),
			Destination:   driven.NewDocumentIndexDestination(memory.NewDocumentIndex()),
			Config:        configWith(domain.CleanupIncremental),
		},
	}

	results, err := svc.IndexCorpora(context.Background(), corpora)
	require.NoError(t, err)
	assert.Equal(t, 2, results["docs"].NumAdded)
	assert.Equal(t, 1, results["wiki"].NumAdded)
}

func TestIndexCorpora_RejectsSharedNamespace(t *testing.T) {
	corpora := []driving.Corpus{
		{Name: "a", Source: sourceOf(), RecordManager: memory.NewRecordManager("same"),
			Destination: driven.NewDocumentIndexDestination(memory.NewDocumentIndex()), Config: domain.DefaultIndexConfig()},
		{Name: "b", Source: sourceOf(), RecordManager: memory.NewRecordManager("same"),
			Destination: driven.NewDocumentIndexDestination(memory.NewDocumentIndex()), Config: domain.DefaultIndexConfig()},
	}

	_, err := NewIndexService().IndexCorpora(context.Background(), corpora)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "share namespace")
}

func TestIndexCorpora_RejectsDuplicateNamesAndMissingLedger(t *testing.T) {
	dest := driven.NewDocumentIndexDestination(memory.NewDocumentIndex())

	_, err := NewIndexService().IndexCorpora(context.Background(), []driving.Corpus{
		{Name: "a", RecordManager: memory.NewRecordManager("1"), Destination: dest},
		{Name: "a", RecordManager: memory.NewRecordManager("2"), Destination: dest},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = NewIndexService().IndexCorpora(context.Background(), []driving.Corpus{{Name: "a", Destination: dest}})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestIndexCorpora_PropagatesFailure(t *testing.T) {
	failing := newFailingRecordManager("bad")
	failing.existsErr = errBoom

	_, err := NewIndexService().IndexCorpora(context.Background(), []driving.Corpus{
		{
			Name: "good", Source: sourceOf(doc("a", "s")), RecordManager: memory.NewRecordManager("good"),
			Destination: driven.NewDocumentIndexDestination(memory.NewDocumentIndex()), Config: configWith(domain.CleanupNone),
		},
		{
			Name: "bad", Source: sourceOf(doc("b", "s")), RecordManager: failing,
			Destination: driven.NewDocumentIndexDestination(memory.NewDocumentIndex()), Config: configWith(domain.CleanupNone),
		},
	})

	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "corpus bad")
}

func hashFor(t *testing.T, d domain.Document, cfg domain.IndexConfig) string {
	t.Helper()
	hashed, err := HashDocument(d, cfg)
	require.NoError(t, err)
	return hashed.ID
}

// lengthEmbedder embeds text as (length, 1).
type lengthEmbedder struct{}

func (lengthEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

func (e lengthEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i], _ = e.Embed(ctx, text)
	}
	return out, nil
}

func (lengthEmbedder) Dimensions() int { return 2 }

func (lengthEmbedder) ModelName() string { return "length" }

func (lengthEmbedder) Ping(context.Context) error { return nil }

func (lengthEmbedder) Close() error { return nil }
