package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
	"github.com/custodia-labs/docsync/internal/logger"
)

// IndexCorpora runs one Index call per corpus concurrently.
// Runs over the same namespace would race on cleanup, so corpora must not
// share a record manager namespace. The first failure cancels the others.
func (s *IndexService) IndexCorpora(
	ctx context.Context, corpora []driving.Corpus,
) (map[string]domain.IndexingResult, error) {
	names := make(map[string]struct{}, len(corpora))
	namespaces := make(map[string]string, len(corpora))
	for _, c := range corpora {
		if c.RecordManager == nil {
			return nil, fmt.Errorf("%w: corpus %q has no record manager", domain.ErrInvalidConfig, c.Name)
		}
		if _, dup := names[c.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate corpus name %q", domain.ErrInvalidConfig, c.Name)
		}
		names[c.Name] = struct{}{}

		ns := c.RecordManager.Namespace()
		if other, dup := namespaces[ns]; dup {
			return nil, fmt.Errorf("%w: corpora %q and %q share namespace %q",
				domain.ErrInvalidConfig, other, c.Name, ns)
		}
		namespaces[ns] = c.Name
	}

	var (
		mu      sync.Mutex
		results = make(map[string]domain.IndexingResult, len(corpora))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range corpora {
		g.Go(func() error {
			result, err := s.Index(gctx, c.Source, c.RecordManager, c.Destination, c.Config)
			if err != nil {
				logger.Error("Corpus %s failed: %v", c.Name, err)
				return fmt.Errorf("corpus %s: %w", c.Name, err)
			}
			mu.Lock()
			results[c.Name] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
