package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/logger"
)

// cleanupPlanner deletes stale ledger entries and their destination copies.
type cleanupPlanner struct {
	rm        driven.RecordManager
	dest      driven.Destination
	batchSize int
}

// sweep repeatedly lists keys last seen strictly before cutoff and deletes
// them from the destination, then the ledger, until none are left.
// groupIDs scopes the sweep; nil sweeps the whole namespace.
// It returns the number of keys deleted, including those deleted before a failure.
func (p cleanupPlanner) sweep(ctx context.Context, cutoff time.Time, groupIDs []string) (int, error) {
	deleted := 0
	for {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}

		keys, err := p.rm.ListKeys(ctx, driven.ListKeysOptions{
			Before:   cutoff,
			GroupIDs: groupIDs,
			Limit:    p.batchSize,
		})
		if err != nil {
			return deleted, fmt.Errorf("list stale keys: %w", err)
		}
		if len(keys) == 0 {
			return deleted, nil
		}

		if err := deleteDocuments(ctx, p.dest, keys); err != nil {
			return deleted, err
		}
		if err := p.rm.DeleteKeys(ctx, keys); err != nil {
			return deleted, fmt.Errorf("delete ledger keys: %w", err)
		}
		deleted += len(keys)
		logger.Debug("Cleanup removed %d stale entries", len(keys))
	}
}
