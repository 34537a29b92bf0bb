// Package memstore provides an in-memory implementation of
// store.Store. It mirrors the dbstore semantics (replace-by-hash
// insert, newest-first ordering, retention) and backs tests and the
// ephemeral mode where no database file is wanted.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/clipvault/clipvault/internal/record"
	"github.com/clipvault/clipvault/internal/store"
)

// MemoryStore is a mutex-guarded in-memory store.Store.
type MemoryStore struct {
	mu     sync.RWMutex
	rows   []*record.Record
	meta   map[string]string
	nextID int64
	closed bool
}

// New creates an empty MemoryStore.
func New() *MemoryStore {
	return &MemoryStore{
		meta:   make(map[string]string),
		nextID: 1,
	}
}

// Insert persists a record with replace-by-hash semantics.
func (m *MemoryStore) Insert(ctx context.Context, rec *record.Record) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, fmt.Errorf("store is closed")
	}

	// Replace semantics: drop any prior row with the same hash.
	filtered := m.rows[:0]
	for _, row := range m.rows {
		if row.ContentHash != rec.ContentHash {
			filtered = append(filtered, row)
		}
	}
	m.rows = filtered

	stored := cloneRecord(rec)
	stored.ID = m.nextID
	m.nextID++ // ids are never reused within one process run
	m.rows = append(m.rows, stored)

	rec.ID = stored.ID
	return stored.ID, nil
}

// Update applies a partial field update to one row.
func (m *MemoryStore) Update(ctx context.Context, id int64, fields store.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range m.rows {
		if row.ID != id {
			continue
		}
		return applyFields(row, fields)
	}
	return nil
}

func applyFields(row *record.Record, fields store.Fields) error {
	for key, value := range fields {
		switch key {
		case "timestamp":
			row.Timestamp = toInt64(value)
		case "group":
			row.Group = toInt64(value)
		case "raw_data":
			row.RawData = append([]byte(nil), value.([]byte)...)
		case "preview_data":
			row.PreviewData = append([]byte(nil), value.([]byte)...)
		case "search_text":
			row.SearchText = value.(string)
		case "length":
			row.Length = int(toInt64(value))
		case "tag":
			row.Tag = value.(string)
		case "type":
			row.Type = record.ContentType(fmt.Sprint(value))
		case "content_hash":
			row.ContentHash = value.(string)
		default:
			return fmt.Errorf("unsupported update field: %s", key)
		}
	}
	return nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

// Query returns matching rows ordered newest-first, ties broken by
// descending id.
func (m *MemoryStore) Query(ctx context.Context, filter *store.Filter, limit, offset int) ([]*record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*record.Record
	for _, row := range m.rows {
		if matchesFilter(row, filter) {
			matched = append(matched, row)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Timestamp != matched[j].Timestamp {
			return matched[i].Timestamp > matched[j].Timestamp
		}
		return matched[i].ID > matched[j].ID
	})

	if offset > 0 {
		if offset >= len(matched) {
			return []*record.Record{}, nil
		}
		matched = matched[offset:]
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]*record.Record, len(matched))
	for i, row := range matched {
		out[i] = cloneRecord(row)
	}
	return out, nil
}

// GetByID returns one row, or store.ErrNotFound.
func (m *MemoryStore) GetByID(ctx context.Context, id int64) (*record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, row := range m.rows {
		if row.ID == id {
			return cloneRecord(row), nil
		}
	}
	return nil, store.ErrNotFound
}

func matchesFilter(row *record.Record, filter *store.Filter) bool {
	if filter.IsZero() {
		return true
	}
	if filter.Keyword != "" &&
		!strings.Contains(strings.ToLower(row.SearchText), strings.ToLower(filter.Keyword)) {
		return false
	}
	if filter.Group != nil && row.Group != *filter.Group {
		return false
	}
	if len(filter.Tags) > 0 && !containsString(filter.Tags, row.Tag) {
		return false
	}
	if len(filter.Apps) > 0 && !containsString(filter.Apps, row.AppName) {
		return false
	}
	if filter.Since > 0 && row.Timestamp < filter.Since {
		return false
	}
	if filter.Until > 0 && row.Timestamp > filter.Until {
		return false
	}
	return true
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// DeleteByIDs removes the rows with the given ids.
func (m *MemoryStore) DeleteByIDs(ctx context.Context, ids []int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	idSet := make(map[int64]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteWhere(func(row *record.Record) bool { return idSet[row.ID] })
	return nil
}

// DeleteByGroup removes every row assigned to the given group.
func (m *MemoryStore) DeleteByGroup(ctx context.Context, group int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteWhere(func(row *record.Record) bool { return row.Group == group })
	return nil
}

// DeleteExpired removes unassigned rows older than cutoff.
func (m *MemoryStore) DeleteExpired(ctx context.Context, cutoff int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := m.deleteWhere(func(row *record.Record) bool {
		return row.Group == record.UnassignedGroup && row.Timestamp < cutoff
	})
	return removed, nil
}

// DeleteAll removes every row.
func (m *MemoryStore) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = nil
	return nil
}

// deleteWhere removes rows matching the predicate; caller holds mu.
func (m *MemoryStore) deleteWhere(pred func(*record.Record) bool) int64 {
	var removed int64
	kept := m.rows[:0]
	for _, row := range m.rows {
		if pred(row) {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	m.rows = kept
	return removed
}

// DistinctTags returns the distinct non-empty tags present, sorted.
func (m *MemoryStore) DistinctTags(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var tags []string
	for _, row := range m.rows {
		if row.Tag != "" && !seen[row.Tag] {
			seen[row.Tag] = true
			tags = append(tags, row.Tag)
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// DistinctApps returns the distinct source applications, sorted by name.
func (m *MemoryStore) DistinctApps(ctx context.Context) ([]store.AppInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var apps []store.AppInfo
	for _, row := range m.rows {
		if row.AppName == "" || seen[row.AppName] {
			continue
		}
		seen[row.AppName] = true
		apps = append(apps, store.AppInfo{Name: row.AppName, Path: row.AppPath})
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].Name < apps[j].Name })
	return apps, nil
}

// TotalCount returns the row count.
func (m *MemoryStore) TotalCount(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.rows)), nil
}

// GetMeta retrieves a meta value, or "" when absent.
func (m *MemoryStore) GetMeta(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.meta[key], nil
}

// SetMeta stores a meta value.
func (m *MemoryStore) SetMeta(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta[key] = value
	return nil
}

// MigrateTags backfills empty tags. In-memory rows are always created
// tagged, so this only matters for rows loaded through Update.
func (m *MemoryStore) MigrateTags(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.meta[store.MetaTagMigrationDone] == "1" {
		return nil
	}
	for _, row := range m.rows {
		if row.Tag == "" {
			_, tag := record.Classify(record.FormatText, row.RawData)
			if row.Type != record.TypeText {
				tag = tagForType(row.Type)
			}
			row.Tag = tag
		}
	}
	m.meta[store.MetaTagMigrationDone] = "1"
	return nil
}

func tagForType(t record.ContentType) string {
	switch t {
	case record.TypeRichText:
		return "rich"
	case record.TypeImage:
		return "image"
	case record.TypeFileList:
		return "file"
	case record.TypeLink:
		return "link"
	case record.TypeColor:
		return "color"
	default:
		return ""
	}
}

// Close marks the store closed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func cloneRecord(rec *record.Record) *record.Record {
	clone := *rec
	clone.RawData = append([]byte(nil), rec.RawData...)
	clone.PreviewData = append([]byte(nil), rec.PreviewData...)
	return &clone
}
