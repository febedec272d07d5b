package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
	"github.com/custodia-labs/docsync/internal/logger"
)

// Ensure SyncService implements the interface.
var _ driving.SyncService = (*SyncService)(nil)

// SourceOpener opens a document source rooted at a directory.
type SourceOpener func(root string) (driven.DocumentSource, error)

// NotifierOpener opens a change notifier for a directory.
type NotifierOpener func(root string) (driven.ChangeNotifier, error)

// SyncService indexes directories into one ledger and destination.
type SyncService struct {
	indexer      driving.Indexer
	rm           driven.RecordManager
	dest         driven.Destination
	locker       driven.RunLocker
	config       domain.IndexConfig
	openSource   SourceOpener
	openNotifier NotifierOpener
}

// NewSyncService creates a new sync service.
// locker and openNotifier are optional; without a notifier Watch is unavailable.
func NewSyncService(
	indexer driving.Indexer,
	rm driven.RecordManager,
	dest driven.Destination,
	locker driven.RunLocker,
	config domain.IndexConfig,
	openSource SourceOpener,
	openNotifier NotifierOpener,
) *SyncService {
	return &SyncService{
		indexer:      indexer,
		rm:           rm,
		dest:         dest,
		locker:       locker,
		config:       config,
		openSource:   openSource,
		openNotifier: openNotifier,
	}
}

// Sync runs one reconciliation of root.
func (s *SyncService) Sync(ctx context.Context, root string, opts driving.SyncOptions) (domain.IndexingResult, error) {
	cfg := s.configFor(opts)
	if err := cfg.Validate(); err != nil {
		return domain.IndexingResult{}, err
	}

	if s.locker != nil {
		release, err := s.locker.TryLock(s.rm.Namespace())
		if err != nil {
			return domain.IndexingResult{}, err
		}
		defer func() {
			if err := release(); err != nil {
				logger.Warn("Failed to release run lock: %v", err)
			}
		}()
	}

	src, err := s.openSource(root)
	if err != nil {
		return domain.IndexingResult{}, fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	logger.Info("Syncing %s into namespace %s", root, s.rm.Namespace())
	return s.indexer.Index(ctx, src, s.rm, s.dest, cfg)
}

// Watch syncs root once and again after every change until ctx is done.
func (s *SyncService) Watch(
	ctx context.Context, root string, opts driving.SyncOptions, report func(domain.IndexingResult, error),
) error {
	if s.openNotifier == nil {
		return errors.New("watch not configured")
	}
	notifier, err := s.openNotifier(root)
	if err != nil {
		return fmt.Errorf("open watcher: %w", err)
	}
	changes, err := notifier.Changes(ctx)
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	report(s.Sync(ctx, root, opts))
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			report(s.Sync(ctx, root, opts))
		}
	}
}

func (s *SyncService) configFor(opts driving.SyncOptions) domain.IndexConfig {
	cfg := s.config
	if opts.Cleanup != "" {
		cfg.Cleanup = opts.Cleanup
	}
	if opts.BatchSize > 0 {
		cfg.BatchSize = opts.BatchSize
	}
	if opts.ForceUpdate {
		cfg.ForceUpdate = true
	}
	return cfg
}
