package driving

import (
	"context"
	"time"
)

// LedgerService exposes the record manager for inspection.
type LedgerService interface {
	// Keys lists ledger keys matching the query, sorted ascending.
	Keys(ctx context.Context, query LedgerQuery) ([]string, error)

	// Namespace returns the namespace being inspected.
	Namespace() string
}

// LedgerQuery filters LedgerService.Keys.
type LedgerQuery struct {
	Before   time.Time
	After    time.Time
	GroupIDs []string
	Limit    int
}
