package services

import (
	"context"

	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

// Ensure LedgerService implements the interface.
var _ driving.LedgerService = (*LedgerService)(nil)

// LedgerService exposes a record manager read-only.
type LedgerService struct {
	rm driven.RecordManager
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(rm driven.RecordManager) *LedgerService {
	return &LedgerService{rm: rm}
}

// Keys lists ledger keys matching the query.
func (s *LedgerService) Keys(ctx context.Context, query driving.LedgerQuery) ([]string, error) {
	return s.rm.ListKeys(ctx, driven.ListKeysOptions{
		Before:   query.Before,
		After:    query.After,
		GroupIDs: query.GroupIDs,
		Limit:    query.Limit,
	})
}

// Namespace returns the inspected namespace.
func (s *LedgerService) Namespace() string {
	return s.rm.Namespace()
}
