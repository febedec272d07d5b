package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docsync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// nowMicrosQuery reads the database clock as unix microseconds. SQLite keeps
// 'now' at millisecond resolution, so the value is a whole number of
// milliseconds; stamps are stored in microseconds to match time.Time.
const nowMicrosQuery = `SELECT CAST(ROUND(unixepoch('now', 'subsec') * 1000) AS INTEGER) * 1000`

// recordManager implements driven.RecordManager for one namespace.
type recordManager struct {
	store     *Store
	namespace string
}

var _ driven.RecordManager = (*recordManager)(nil)

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *recordManager) Namespace() string {
	return r.namespace
}

// CreateSchema applies any pending migrations.
func (r *recordManager) CreateSchema(_ context.Context) error {
	return r.store.migrate(migrations.FS)
}

// GetTime returns the database clock.
func (r *recordManager) GetTime(ctx context.Context) (time.Time, error) {
	micros, err := nowMicros(ctx, r.store.db)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMicro(micros).UTC(), nil
}

func nowMicros(ctx context.Context, q queryRower) (int64, error) {
	var micros int64
	if err := q.QueryRowContext(ctx, nowMicrosQuery).Scan(&micros); err != nil {
		return 0, fmt.Errorf("%w: reading database clock: %w", domain.ErrRecordManager, err)
	}
	return micros, nil
}

// Update upserts one row per key inside a single transaction.
func (r *recordManager) Update(ctx context.Context, keys []string, groupIDs []*string, timeAtLeast time.Time) error {
	if groupIDs != nil && len(groupIDs) != len(keys) {
		return fmt.Errorf("%w: number of keys (%d) does not match number of group ids (%d)",
			domain.ErrRecordManager, len(keys), len(groupIDs))
	}
	if len(keys) == 0 {
		return nil
	}

	return r.store.withTx(ctx, func(tx *sql.Tx) error {
		stamp, err := nowMicros(ctx, tx)
		if err != nil {
			return err
		}
		if !timeAtLeast.IsZero() {
			atLeast := timeAtLeast.UnixMicro()
			if atLeast > stamp {
				return fmt.Errorf("%w: time at least (%s) is in the future (current: %s)",
					domain.ErrRecordManager,
					timeAtLeast.UTC().Format(time.RFC3339Nano),
					time.UnixMicro(stamp).UTC().Format(time.RFC3339Nano))
			}
			stamp = max(stamp, atLeast)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO records (namespace, key, group_id, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(namespace, key) DO UPDATE SET
				group_id = excluded.group_id,
				updated_at = excluded.updated_at
		`)
		if err != nil {
			return fmt.Errorf("%w: preparing upsert: %w", domain.ErrRecordManager, err)
		}
		defer stmt.Close()

		for i, key := range keys {
			var group sql.NullString
			if groupIDs != nil && groupIDs[i] != nil {
				group = sql.NullString{String: *groupIDs[i], Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, r.namespace, key, group, stamp); err != nil {
				return fmt.Errorf("%w: upserting record %q: %w", domain.ErrRecordManager, key, err)
			}
		}
		return nil
	})
}

// Exists reports which keys are present, in input order.
func (r *recordManager) Exists(ctx context.Context, keys []string) ([]bool, error) {
	found := make(map[string]bool, len(keys))
	for _, chunk := range chunks(keys) {
		args := make([]any, 0, len(chunk)+1)
		args = append(args, r.namespace)
		for _, key := range chunk {
			args = append(args, key)
		}

		rows, err := r.store.db.QueryContext(ctx,
			"SELECT key FROM records WHERE namespace = ? AND key IN ("+placeholders(len(chunk))+")", args...)
		if err != nil {
			return nil, fmt.Errorf("%w: querying records: %w", domain.ErrRecordManager, err)
		}
		for rows.Next() {
			var key string
			if err := rows.Scan(&key); err != nil {
				rows.Close()
				return nil, fmt.Errorf("%w: scanning record: %w", domain.ErrRecordManager, err)
			}
			found[key] = true
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: iterating records: %w", domain.ErrRecordManager, err)
		}
	}

	out := make([]bool, len(keys))
	for i, key := range keys {
		out[i] = found[key]
	}
	return out, nil
}

// ListKeys returns matching keys sorted ascending.
func (r *recordManager) ListKeys(ctx context.Context, opts driven.ListKeysOptions) ([]string, error) {
	if opts.GroupIDs != nil && len(opts.GroupIDs) == 0 {
		return nil, nil
	}

	var (
		where = []string{"namespace = ?"}
		args  = []any{r.namespace}
	)
	if !opts.Before.IsZero() {
		where = append(where, "updated_at < ?")
		args = append(args, opts.Before.UnixMicro())
	}
	if !opts.After.IsZero() {
		where = append(where, "updated_at > ?")
		args = append(args, opts.After.UnixMicro())
	}
	if opts.GroupIDs != nil {
		// One JSON array parameter, so any number of groups fits the
		// host parameter limit.
		groups, err := json.Marshal(opts.GroupIDs)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding group ids: %w", domain.ErrRecordManager, err)
		}
		where = append(where, "group_id IN (SELECT value FROM json_each(?))")
		args = append(args, string(groups))
	}

	query := "SELECT key FROM records WHERE " + strings.Join(where, " AND ") + " ORDER BY key"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing records: %w", domain.ErrRecordManager, err)
	}
	defer rows.Close()

	var keys []string //nolint:prealloc // size unknown from query
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("%w: scanning record: %w", domain.ErrRecordManager, err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating records: %w", domain.ErrRecordManager, err)
	}
	return keys, nil
}

// DeleteKeys removes keys. Unknown keys are ignored.
func (r *recordManager) DeleteKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.store.withTx(ctx, func(tx *sql.Tx) error {
		for _, chunk := range chunks(keys) {
			args := make([]any, 0, len(chunk)+1)
			args = append(args, r.namespace)
			for _, key := range chunk {
				args = append(args, key)
			}
			_, err := tx.ExecContext(ctx,
				"DELETE FROM records WHERE namespace = ? AND key IN ("+placeholders(len(chunk))+")", args...)
			if err != nil {
				return fmt.Errorf("%w: deleting records: %w", domain.ErrRecordManager, err)
			}
		}
		return nil
	})
}
