// Package store defines the persistence interfaces for the clipboard
// history engine. Implementations live in dbstore (SQLite) and
// memstore (in-memory); both provide the same replace-by-hash insert,
// filtered query and retention semantics.
package store

import (
	"context"
	"errors"

	"github.com/clipvault/clipvault/internal/record"
)

// ErrNotFound is returned when a row id does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the durable table of clipboard Records. It is the single
// source of truth: callers never mutate Records except through it.
// Each public operation is its own transaction; callers must not
// assume multi-call atomicity.
type Store interface {
	// Insert persists a record with replace semantics: any existing
	// row with the same ContentHash is deleted first, so one logical
	// content always occupies exactly one row. Returns the assigned
	// row id. Atomic per call.
	Insert(ctx context.Context, rec *record.Record) (int64, error)

	// Update applies a partial field update to the row with the given
	// id. Updating an unknown id is a no-op, not an error.
	Update(ctx context.Context, id int64, fields Fields) error

	// Query returns rows matching the filter, ordered by descending
	// timestamp (ties stable in store order), honoring limit/offset.
	// A nil filter matches everything. limit <= 0 means no limit.
	Query(ctx context.Context, filter *Filter, limit, offset int) ([]*record.Record, error)

	// GetByID returns one row, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*record.Record, error)

	// DeleteByIDs removes the rows with the given ids.
	DeleteByIDs(ctx context.Context, ids []int64) error

	// DeleteByGroup removes every row assigned to the given group id.
	DeleteByGroup(ctx context.Context, group int64) error

	// DeleteExpired removes unassigned rows (group == UnassignedGroup)
	// with a timestamp strictly below cutoff. Returns the number of
	// rows removed.
	DeleteExpired(ctx context.Context, cutoff int64) (int64, error)

	// DeleteAll removes every row. Irreversible.
	DeleteAll(ctx context.Context) error

	// DistinctTags returns the distinct non-empty tags present.
	DistinctTags(ctx context.Context) ([]string, error)

	// DistinctApps returns the distinct source applications present.
	// The store does no caching; callers cache facet lists themselves.
	DistinctApps(ctx context.Context) ([]AppInfo, error)

	// TotalCount returns the authoritative row count.
	TotalCount(ctx context.Context) (int64, error)

	// GetMeta and SetMeta access the store's durable key-value side
	// table, used for the migration flag and the retention
	// last-cleared date. GetMeta returns "" for a missing key.
	GetMeta(ctx context.Context, key string) (string, error)
	SetMeta(ctx context.Context, key, value string) error

	// MigrateTags backfills the tag column for rows persisted before
	// the column existed. It runs in batches off the main access
	// path, is safe to interrupt and resume, and records completion
	// in the meta table so it runs at most once logically.
	MigrateTags(ctx context.Context) error

	// Close releases the underlying resources.
	Close() error
}

// Meta keys shared by store implementations and their callers.
const (
	MetaTagMigrationDone = "tag_migration_done"
	MetaLastCleared      = "retention_last_cleared"
	MetaSchemaVersion    = "schema_version"
)
