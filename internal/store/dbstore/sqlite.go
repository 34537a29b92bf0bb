package dbstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clipvault/clipvault/internal/record"
	"github.com/clipvault/clipvault/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore is a SQLite-backed implementation of store.Store.
// Writes are serialized through a single connection with a busy
// timeout; reads may interleave with writes.
type SQLiteStore struct {
	db     *gorm.DB
	dbPath string

	// batchDelay paces the tag migration between batches. A rate
	// limit, not a correctness requirement.
	batchDelay time.Duration
}

// NewSQLiteStore creates a new SQLite-backed store at the specified
// path, initializing the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL lets readers interleave with the serialized writer; the
	// busy timeout is the transient-I/O retry policy.
	if err := db.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := db.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := db.AutoMigrate(&RecordModel{}, &MetaModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	s := &SQLiteStore{
		db:         db,
		dbPath:     dbPath,
		batchDelay: defaultBatchDelay,
	}

	if err := s.initMeta(); err != nil {
		return nil, fmt.Errorf("failed to init meta: %w", err)
	}

	return s, nil
}

// initMeta sets the schema version on first open.
func (s *SQLiteStore) initMeta() error {
	ctx := context.Background()
	if v, err := s.GetMeta(ctx, store.MetaSchemaVersion); err != nil {
		return err
	} else if v == "" {
		return s.SetMeta(ctx, store.MetaSchemaVersion, "2")
	}
	return nil
}

// Insert persists a record with replace-by-hash semantics and returns
// the assigned id. Delete-then-insert runs in one transaction so a
// duplicate-hash race never produces two rows.
func (s *SQLiteStore) Insert(ctx context.Context, rec *record.Record) (int64, error) {
	model := fromRecord(rec)
	model.ID = 0

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("content_hash = ?", model.ContentHash).
			Delete(&RecordModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete prior row: %w", err)
		}
		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	rec.ID = model.ID
	return model.ID, nil
}

// Update applies a partial field update to one row.
func (s *SQLiteStore) Update(ctx context.Context, id int64, fields store.Fields) error {
	if len(fields) == 0 {
		return nil
	}

	updates := make(map[string]any, len(fields))
	for key, value := range fields {
		column, ok := updateColumns[key]
		if !ok {
			return fmt.Errorf("unsupported update field: %s", key)
		}
		updates[column] = value
	}

	if err := s.db.WithContext(ctx).Model(&RecordModel{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update record %d: %w", id, err)
	}
	return nil
}

// updateColumns maps public field names to their columns. Group is
// stored as group_id to keep "group" out of SQL keyword territory.
var updateColumns = map[string]string{
	"timestamp":    "timestamp",
	"group":        "group_id",
	"raw_data":     "raw_data",
	"preview_data": "preview_data",
	"search_text":  "search_text",
	"length":       "length",
	"tag":          "tag",
	"type":         "type",
	"content_hash": "content_hash",
}

// Query returns matching rows ordered newest-first, ties broken by
// descending row id so results are stable within one query.
func (s *SQLiteStore) Query(ctx context.Context, filter *store.Filter, limit, offset int) ([]*record.Record, error) {
	query := s.applyFilter(s.db.WithContext(ctx).Model(&RecordModel{}), filter).
		Order("timestamp DESC, id DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var models []*RecordModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	records := make([]*record.Record, len(models))
	for i, model := range models {
		records[i] = model.ToRecord()
	}
	return records, nil
}

// GetByID returns one row, or store.ErrNotFound.
func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (*record.Record, error) {
	var model RecordModel
	if err := s.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get record %d: %w", id, err)
	}
	return model.ToRecord(), nil
}

// applyFilter composes the filter's predicates as one conjunction.
func (s *SQLiteStore) applyFilter(query *gorm.DB, filter *store.Filter) *gorm.DB {
	if filter.IsZero() {
		return query
	}
	if filter.Keyword != "" {
		pattern := "%" + escapeLike(filter.Keyword) + "%"
		query = query.Where("search_text LIKE ? ESCAPE '\\'", pattern)
	}
	if filter.Group != nil {
		query = query.Where("group_id = ?", *filter.Group)
	}
	if len(filter.Tags) > 0 {
		query = query.Where("tag IN ?", filter.Tags)
	}
	if len(filter.Apps) > 0 {
		query = query.Where("app_name IN ?", filter.Apps)
	}
	if filter.Since > 0 {
		query = query.Where("timestamp >= ?", filter.Since)
	}
	if filter.Until > 0 {
		query = query.Where("timestamp <= ?", filter.Until)
	}
	return query
}

// escapeLike escapes LIKE wildcards in user keywords.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// DeleteByIDs removes the rows with the given ids.
func (s *SQLiteStore) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Delete(&RecordModel{}, ids).Error; err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	return nil
}

// DeleteByGroup removes every row assigned to the given group.
func (s *SQLiteStore) DeleteByGroup(ctx context.Context, group int64) error {
	if err := s.db.WithContext(ctx).
		Where("group_id = ?", group).
		Delete(&RecordModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete group %d: %w", group, err)
	}
	return nil
}

// DeleteExpired removes unassigned rows older than cutoff.
func (s *SQLiteStore) DeleteExpired(ctx context.Context, cutoff int64) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("group_id = ? AND timestamp < ?", record.UnassignedGroup, cutoff).
		Delete(&RecordModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired records: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteAll removes every row.
func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	if err := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&RecordModel{}).Error; err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// DistinctTags returns the distinct non-empty tags present.
func (s *SQLiteStore) DistinctTags(ctx context.Context) ([]string, error) {
	var tags []string
	if err := s.db.WithContext(ctx).Model(&RecordModel{}).
		Distinct("tag").
		Where("tag IS NOT NULL AND tag != ''").
		Order("tag ASC").
		Pluck("tag", &tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// DistinctApps returns the distinct source applications present.
func (s *SQLiteStore) DistinctApps(ctx context.Context) ([]store.AppInfo, error) {
	var apps []store.AppInfo
	if err := s.db.WithContext(ctx).Model(&RecordModel{}).
		Select("DISTINCT app_name AS name, app_path AS path").
		Where("app_name != ''").
		Order("app_name ASC").
		Scan(&apps).Error; err != nil {
		return nil, fmt.Errorf("failed to list apps: %w", err)
	}
	return apps, nil
}

// TotalCount returns the authoritative row count.
func (s *SQLiteStore) TotalCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&RecordModel{}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// GetMeta retrieves a meta value, or "" when the key is absent.
func (s *SQLiteStore) GetMeta(ctx context.Context, key string) (string, error) {
	var model MetaModel
	if err := s.db.WithContext(ctx).First(&model, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get meta %s: %w", key, err)
	}
	return model.Value, nil
}

// SetMeta stores a meta value (upsert).
func (s *SQLiteStore) SetMeta(ctx context.Context, key, value string) error {
	model := &MetaModel{Key: key, Value: value}
	result := s.db.WithContext(ctx).Where("key = ?", key).
		Assign(map[string]interface{}{"value": value, "updated_at": s.db.NowFunc()}).
		FirstOrCreate(model)
	if result.Error != nil {
		return fmt.Errorf("failed to set meta %s: %w", key, result.Error)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
