package driven

import (
	"context"
	"time"
)

// RecordManager is the persistent ledger that maps document ids to the
// source id they came from and the time they were last seen.
//
// Every method is scoped to the namespace the record manager was created
// for. Implementations must derive timestamps from a clock shared by every
// writer of the namespace (usually the database clock).
type RecordManager interface {
	// Namespace returns the ledger partition this manager reads and writes.
	Namespace() string

	// CreateSchema prepares the backing storage. It is idempotent.
	CreateSchema(ctx context.Context) error

	// GetTime returns the ledger's current time.
	GetTime(ctx context.Context) (time.Time, error)

	// Update upserts a ledger entry for each key, stamping it with the
	// ledger's current time, or timeAtLeast if that is later.
	//
	// groupIDs is either nil or the same length as keys; a nil element
	// means the entry has no group, while "" is a group like any other.
	// A zero timeAtLeast is ignored. A timeAtLeast in the future relative
	// to the ledger clock is an error.
	Update(ctx context.Context, keys []string, groupIDs []*string, timeAtLeast time.Time) error

	// Exists reports, for each key in order, whether it is in the ledger.
	Exists(ctx context.Context, keys []string) ([]bool, error)

	// ListKeys returns keys matching opts, sorted ascending.
	ListKeys(ctx context.Context, opts ListKeysOptions) ([]string, error)

	// DeleteKeys removes the given keys. Unknown keys are ignored.
	DeleteKeys(ctx context.Context, keys []string) error
}

// ListKeysOptions filters RecordManager.ListKeys.
type ListKeysOptions struct {
	// Before keeps entries last seen strictly before this time. Zero disables the bound.
	Before time.Time

	// After keeps entries last seen strictly after this time. Zero disables the bound.
	After time.Time

	// GroupIDs keeps entries whose group is in the list. Nil disables the
	// filter; an empty non-nil slice matches nothing.
	GroupIDs []string

	// Limit caps the number of keys returned. Zero means no limit.
	Limit int
}

// GroupIDs returns one group pointer per id, for RecordManager.Update.
func GroupIDs(ids ...string) []*string {
	out := make([]*string, len(ids))
	for i := range ids {
		out[i] = &ids[i]
	}
	return out
}
