package driven

import (
	"context"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// DocumentSource is a forward-only cursor over a corpus.
// Sources may be unbounded; the indexer never asks for a size up front.
type DocumentSource interface {
	// Next returns the next document, or io.EOF once the source is exhausted.
	Next(ctx context.Context) (domain.Document, error)

	// Close releases resources held by the source.
	Close() error
}

// ChangeNotifier signals that a corpus changed and should be re-indexed.
type ChangeNotifier interface {
	// Changes returns a channel that receives a value after each burst of
	// changes. The channel is closed when ctx is cancelled.
	Changes(ctx context.Context) (<-chan struct{}, error)
}
