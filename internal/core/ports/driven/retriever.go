package driven

import (
	"context"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// Retriever answers queries against a destination.
type Retriever interface {
	// Search returns the best matches for query, best first.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
