package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

var errNoDestination = fmt.Errorf("%w: destination must wrap a vector store or a document index", domain.ErrInvalidConfig)

// writeDocuments sends docs to the destination in a single call.
// Failed ids reported by a document index are a hard error.
func writeDocuments(ctx context.Context, dest driven.Destination, docs []domain.Document) error {
	if len(docs) == 0 {
		return nil
	}

	if vs, ok := dest.VectorStore(); ok {
		ids := make([]string, len(docs))
		for i, doc := range docs {
			ids[i] = doc.ID
		}
		if _, err := vs.AddDocuments(ctx, docs, ids); err != nil {
			return fmt.Errorf("%w: add documents: %w", domain.ErrDestination, err)
		}
		return flush(ctx, vs)
	}

	if idx, ok := dest.DocumentIndex(); ok {
		resp, err := idx.Upsert(ctx, docs)
		if err != nil {
			return fmt.Errorf("%w: upsert: %w", domain.ErrDestination, err)
		}
		if len(resp.Failed) > 0 {
			return fmt.Errorf("%w: upsert failed for %d of %d documents",
				domain.ErrDestination, len(resp.Failed), len(docs))
		}
		return flush(ctx, idx)
	}

	return errNoDestination
}

// deleteDocuments removes ids from the destination.
// A non-zero failure count from a document index is a hard error.
func deleteDocuments(ctx context.Context, dest driven.Destination, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if vs, ok := dest.VectorStore(); ok {
		if err := vs.Delete(ctx, ids); err != nil {
			return fmt.Errorf("%w: delete: %w", domain.ErrDestination, err)
		}
		return flush(ctx, vs)
	}

	if idx, ok := dest.DocumentIndex(); ok {
		resp, err := idx.Delete(ctx, ids)
		if err != nil {
			return fmt.Errorf("%w: delete: %w", domain.ErrDestination, err)
		}
		if resp.NumFailed > 0 || len(resp.Failed) > 0 {
			return fmt.Errorf("%w: the delete operation to the document index failed for %d ids",
				domain.ErrDestination, max(resp.NumFailed, len(resp.Failed)))
		}
		return flush(ctx, idx)
	}

	return errNoDestination
}

// flush persists buffered writes so the ledger never records an entry the
// destination could still lose.
func flush(ctx context.Context, target any) error {
	f, ok := target.(driven.Flusher)
	if !ok {
		return nil
	}
	if err := f.Flush(ctx); err != nil {
		return fmt.Errorf("%w: flush: %w", domain.ErrDestination, err)
	}
	return nil
}
