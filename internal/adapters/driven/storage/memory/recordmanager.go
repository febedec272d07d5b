package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// Ensure RecordManager implements the interface.
var _ driven.RecordManager = (*RecordManager)(nil)

type record struct {
	groupID   string
	grouped   bool
	updatedAt time.Time
}

// RecordManager is an in-memory implementation of driven.RecordManager.
// Its clock is the process wall clock unless overridden.
type RecordManager struct {
	namespace string

	mu           sync.RWMutex
	records      map[string]record
	timeOverride time.Time
}

// NewRecordManager creates a new in-memory record manager.
func NewRecordManager(namespace string) *RecordManager {
	return &RecordManager{
		namespace: namespace,
		records:   make(map[string]record),
	}
}

// SetTimeOverride pins the clock to t. A zero t restores the wall clock.
func (m *RecordManager) SetTimeOverride(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeOverride = t
}

// Namespace returns the ledger partition.
func (m *RecordManager) Namespace() string {
	return m.namespace
}

// CreateSchema is a no-op.
func (m *RecordManager) CreateSchema(_ context.Context) error {
	return nil
}

// GetTime returns the current time.
func (m *RecordManager) GetTime(_ context.Context) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now(), nil
}

// now must be called with mu held.
func (m *RecordManager) now() time.Time {
	if !m.timeOverride.IsZero() {
		return m.timeOverride
	}
	return time.Now().UTC()
}

// Update upserts records for keys.
func (m *RecordManager) Update(_ context.Context, keys []string, groupIDs []*string, timeAtLeast time.Time) error {
	if groupIDs != nil && len(groupIDs) != len(keys) {
		return fmt.Errorf("%w: number of keys (%d) does not match number of group ids (%d)",
			domain.ErrRecordManager, len(keys), len(groupIDs))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stamp := m.now()
	if !timeAtLeast.IsZero() {
		if timeAtLeast.After(stamp) {
			return fmt.Errorf("%w: time at least (%s) is in the future (current: %s)",
				domain.ErrRecordManager, timeAtLeast.Format(time.RFC3339Nano), stamp.Format(time.RFC3339Nano))
		}
		stamp = latest(stamp, timeAtLeast)
	}

	for i, key := range keys {
		rec := record{updatedAt: stamp}
		if groupIDs != nil && groupIDs[i] != nil {
			rec.groupID, rec.grouped = *groupIDs[i], true
		}
		m.records[key] = rec
	}
	return nil
}

// Exists reports which keys are present.
func (m *RecordManager) Exists(_ context.Context, keys []string) ([]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]bool, len(keys))
	for i, key := range keys {
		_, out[i] = m.records[key]
	}
	return out, nil
}

// ListKeys returns matching keys sorted ascending.
func (m *RecordManager) ListKeys(_ context.Context, opts driven.ListKeysOptions) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for key, rec := range m.records {
		if !opts.Before.IsZero() && !rec.updatedAt.Before(opts.Before) {
			continue
		}
		if !opts.After.IsZero() && !rec.updatedAt.After(opts.After) {
			continue
		}
		if opts.GroupIDs != nil && (!rec.grouped || !slices.Contains(opts.GroupIDs, rec.groupID)) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if opts.Limit > 0 && len(keys) > opts.Limit {
		keys = keys[:opts.Limit]
	}
	return keys, nil
}

// DeleteKeys removes keys.
func (m *RecordManager) DeleteKeys(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.records, key)
	}
	return nil
}

// Len returns the number of records.
func (m *RecordManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// GroupOf returns the group of key and whether key exists with a group.
func (m *RecordManager) GroupOf(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[key]
	return rec.groupID, ok && rec.grouped
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
