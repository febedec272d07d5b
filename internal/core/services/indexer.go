package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
	"github.com/custodia-labs/docsync/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.Indexer = (*IndexService)(nil)

// IndexService reconciles document sources with destinations.
// It holds no state between calls; everything a run needs is passed in.
type IndexService struct{}

// NewIndexService creates a new index service.
func NewIndexService() *IndexService {
	return &IndexService{}
}

// run carries the per-call state of one reconciliation.
type run struct {
	rm      driven.RecordManager
	dest    driven.Destination
	cfg     domain.IndexConfig
	runTime time.Time
	planner cleanupPlanner

	result domain.IndexingResult

	// scopedSources collects source ids seen during a scoped full run.
	scopedSources map[string]struct{}
}

// Index consumes src in batches of cfg.BatchSize and reconciles it with dest.
func (s *IndexService) Index(
	ctx context.Context,
	src driven.DocumentSource,
	rm driven.RecordManager,
	dest driven.Destination,
	cfg domain.IndexConfig,
) (domain.IndexingResult, error) {
	if err := cfg.Validate(); err != nil {
		return domain.IndexingResult{}, err
	}
	if src == nil {
		return domain.IndexingResult{}, fmt.Errorf("%w: document source is required", domain.ErrInvalidConfig)
	}
	if rm == nil {
		return domain.IndexingResult{}, fmt.Errorf("%w: record manager is required", domain.ErrInvalidConfig)
	}
	if dest.IsZero() {
		return domain.IndexingResult{}, errNoDestination
	}

	runTime, err := rm.GetTime(ctx)
	if err != nil {
		return domain.IndexingResult{}, fmt.Errorf("get ledger time: %w", err)
	}

	r := &run{
		rm:      rm,
		dest:    dest,
		cfg:     cfg,
		runTime: runTime,
		planner: cleanupPlanner{rm: rm, dest: dest, batchSize: cfg.CleanupBatchSize},
	}
	if cfg.Cleanup == domain.CleanupScopedFull {
		r.scopedSources = make(map[string]struct{})
	}

	logger.Section("Index")
	logger.Debug("Namespace: %s, cleanup: %s, batch size: %d", rm.Namespace(), cfg.Cleanup, cfg.BatchSize)

	for batchNum := 1; ; batchNum++ {
		batch, err := nextBatch(ctx, src, cfg.BatchSize)
		if err != nil {
			return domain.IndexingResult{}, err
		}
		if len(batch) == 0 {
			break
		}
		if err := r.indexBatch(ctx, batch); err != nil {
			return domain.IndexingResult{}, fmt.Errorf("batch %d: %w", batchNum, err)
		}
		logger.Debug("Batch %d: %d documents, totals %s", batchNum, len(batch), r.result)
	}

	if err := r.finalCleanup(ctx); err != nil {
		return domain.IndexingResult{}, err
	}

	logger.Info("Indexed namespace %s: %s", rm.Namespace(), r.result)
	return r.result, nil
}

// IndexAsync runs Index in a goroutine.
func (s *IndexService) IndexAsync(
	ctx context.Context,
	src driven.DocumentSource,
	rm driven.RecordManager,
	dest driven.Destination,
	cfg domain.IndexConfig,
) <-chan driving.IndexOutcome {
	out := make(chan driving.IndexOutcome, 1)
	go func() {
		defer close(out)
		result, err := s.Index(ctx, src, rm, dest, cfg)
		if ctx.Err() != nil {
			return
		}
		out <- driving.IndexOutcome{Result: result, Err: err}
	}()
	return out
}

// nextBatch pulls up to size documents from src. An empty batch means the
// source is exhausted.
func nextBatch(ctx context.Context, src driven.DocumentSource, size int) ([]domain.Document, error) {
	batch := make([]domain.Document, 0, size)
	for len(batch) < size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read source: %w", err)
		}
		batch = append(batch, doc)
	}
	return batch, nil
}

func (r *run) indexBatch(ctx context.Context, batch []domain.Document) error {
	hashed := make([]domain.Document, len(batch))
	for i, doc := range batch {
		h, err := HashDocument(doc, r.cfg)
		if err != nil {
			return err
		}
		hashed[i] = h
	}

	docs, dropped := dedupByID(hashed)
	r.result.NumSkipped += dropped

	sourceIDs, err := r.assignSourceIDs(docs)
	if err != nil {
		return err
	}

	res, err := resolveExistence(ctx, r.rm, docs, r.cfg.ForceUpdate)
	if err != nil {
		return err
	}

	if err := writeDocuments(ctx, r.dest, res.toWrite); err != nil {
		return err
	}
	r.result.NumAdded += len(res.toWrite) - res.numForced
	r.result.NumUpdated += res.numForced

	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}
	if err := r.rm.Update(ctx, ids, sourceIDs, r.runTime); err != nil {
		return fmt.Errorf("update ledger: %w", err)
	}
	r.result.NumSkipped += len(res.refreshOnly)

	if r.cfg.Cleanup == domain.CleanupIncremental {
		deleted, err := r.planner.sweep(ctx, r.runTime, uniqueGroups(sourceIDs))
		r.result.NumDeleted += deleted
		if err != nil {
			return fmt.Errorf("incremental cleanup: %w", err)
		}
	}
	return nil
}

// assignSourceIDs derives one source id per document (nil for none).
// The empty string is a valid source id. Modes that scope cleanup by
// source id reject documents without one.
func (r *run) assignSourceIDs(docs []domain.Document) ([]*string, error) {
	ids := make([]*string, len(docs))
	if r.cfg.SourceID == nil {
		return ids, nil
	}

	required := r.cfg.Cleanup.RequiresSourceID()
	for i, doc := range docs {
		id, ok := r.cfg.SourceID(doc)
		if !ok {
			if required {
				return nil, fmt.Errorf(
					"%w: source ids are required when cleanup mode is %s; "+
						"document that starts with content %q was not assigned a source id",
					domain.ErrInvalidConfig, r.cfg.Cleanup, doc.ContentPrefix())
			}
			continue
		}
		ids[i] = &id
		if r.scopedSources != nil {
			r.scopedSources[id] = struct{}{}
		}
	}
	return ids, nil
}

// finalCleanup runs the deferred sweep for full and scoped full modes.
func (r *run) finalCleanup(ctx context.Context) error {
	var groups []string
	switch r.cfg.Cleanup {
	case domain.CleanupFull:
	case domain.CleanupScopedFull:
		if len(r.scopedSources) == 0 {
			return nil
		}
		groups = make([]string, 0, len(r.scopedSources))
		for id := range r.scopedSources {
			groups = append(groups, id)
		}
		sort.Strings(groups)
	default:
		return nil
	}

	deleted, err := r.planner.sweep(ctx, r.runTime, groups)
	r.result.NumDeleted += deleted
	if err != nil {
		return fmt.Errorf("%s cleanup: %w", r.cfg.Cleanup, err)
	}
	return nil
}

// uniqueGroups returns the distinct non-nil source ids in first-seen order.
func uniqueGroups(ids []*string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == nil {
			continue
		}
		if _, ok := seen[*id]; ok {
			continue
		}
		seen[*id] = struct{}{}
		out = append(out, *id)
	}
	return out
}
