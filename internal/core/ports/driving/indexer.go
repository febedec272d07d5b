package driving

import (
	"context"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// Indexer reconciles a document source with a destination.
type Indexer interface {
	// Index consumes src to the end, writing new and changed documents to
	// dest, recording every seen document in rm, and deleting stale entries
	// according to cfg.Cleanup. The result is only meaningful when err is nil.
	Index(ctx context.Context, src driven.DocumentSource, rm driven.RecordManager,
		dest driven.Destination, cfg domain.IndexConfig) (domain.IndexingResult, error)

	// IndexAsync runs Index in a goroutine. The channel receives exactly one
	// outcome unless ctx is cancelled first, in which case it is closed
	// without a value.
	IndexAsync(ctx context.Context, src driven.DocumentSource, rm driven.RecordManager,
		dest driven.Destination, cfg domain.IndexConfig) <-chan IndexOutcome

	// IndexCorpora indexes independent corpora concurrently. Corpora must
	// not share a record manager namespace. Results are keyed by Corpus.Name.
	IndexCorpora(ctx context.Context, corpora []Corpus) (map[string]domain.IndexingResult, error)
}

// IndexOutcome is the result of an asynchronous run.
type IndexOutcome struct {
	Result domain.IndexingResult
	Err    error
}

// Corpus bundles everything one run needs.
type Corpus struct {
	Name          string
	Source        driven.DocumentSource
	RecordManager driven.RecordManager
	Destination   driven.Destination
	Config        domain.IndexConfig
}
