package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// resolution partitions a hashed batch against the ledger.
type resolution struct {
	// toWrite holds new documents and, with force update, existing ones.
	toWrite []domain.Document

	// numForced counts documents in toWrite that already existed.
	numForced int

	// refreshOnly holds ids that exist and only need their timestamp bumped.
	refreshOnly []string
}

// resolveExistence asks the ledger once which of docs already exist.
func resolveExistence(
	ctx context.Context, rm driven.RecordManager, docs []domain.Document, forceUpdate bool,
) (resolution, error) {
	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}

	exists, err := rm.Exists(ctx, ids)
	if err != nil {
		return resolution{}, fmt.Errorf("check ledger: %w", err)
	}
	if len(exists) != len(ids) {
		return resolution{}, fmt.Errorf("%w: exists returned %d results for %d keys",
			domain.ErrRecordManager, len(exists), len(ids))
	}

	var res resolution
	for i, doc := range docs {
		switch {
		case !exists[i]:
			res.toWrite = append(res.toWrite, doc)
		case forceUpdate:
			res.toWrite = append(res.toWrite, doc)
			res.numForced++
		default:
			res.refreshOnly = append(res.refreshOnly, doc.ID)
		}
	}
	return res, nil
}
