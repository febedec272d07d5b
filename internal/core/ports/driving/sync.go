package driving

import (
	"context"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// SyncService indexes a directory into the configured ledger and destination.
type SyncService interface {
	// Sync runs one reconciliation of root under the run lock.
	Sync(ctx context.Context, root string, opts SyncOptions) (domain.IndexingResult, error)

	// Watch syncs root once, then again after every change until ctx is done.
	// report is called after each run.
	Watch(ctx context.Context, root string, opts SyncOptions, report func(domain.IndexingResult, error)) error
}

// SyncOptions override the configured index settings for one call.
// Zero values keep the configured value.
type SyncOptions struct {
	Cleanup     domain.CleanupMode
	ForceUpdate bool
	BatchSize   int
}
