package dbstore

import (
	"context"
	"fmt"
	"time"

	"github.com/clipvault/clipvault/internal/record"
	"github.com/clipvault/clipvault/internal/store"
)

const (
	// migrationBatchSize bounds how many rows one batch touches so the
	// migration never starves regular store traffic.
	migrationBatchSize = 500

	// defaultBatchDelay paces batches. Tunable via SetBatchDelay.
	defaultBatchDelay = 100 * time.Millisecond
)

// SetBatchDelay overrides the pause between migration batches.
func (s *SQLiteStore) SetBatchDelay(d time.Duration) {
	s.batchDelay = d
}

// MigrateTags backfills the tag column for rows persisted before the
// column existed. It processes small batches, checks for cancellation
// before each one, and only marks the meta flag once no untagged rows
// remain, so an interrupted run resumes on the next call.
func (s *SQLiteStore) MigrateTags(ctx context.Context) error {
	done, err := s.GetMeta(ctx, store.MetaTagMigrationDone)
	if err != nil {
		return err
	}
	if done == "1" {
		return nil
	}

	// Cursor over row ids so rows that legitimately derive an empty
	// tag are not re-selected forever.
	var lastID int64

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var models []*RecordModel
		if err := s.db.WithContext(ctx).
			Where("(tag IS NULL OR tag = '') AND id > ?", lastID).
			Order("id ASC").
			Limit(migrationBatchSize).
			Find(&models).Error; err != nil {
			return fmt.Errorf("failed to load migration batch: %w", err)
		}

		if len(models) == 0 {
			break
		}
		lastID = models[len(models)-1].ID

		for _, model := range models {
			tag := deriveTag(record.ContentType(model.Type), model.RawData)
			if err := s.db.WithContext(ctx).Model(&RecordModel{}).
				Where("id = ?", model.ID).
				Update("tag", tag).Error; err != nil {
				// Leave the flag unset; the next run resumes here.
				return fmt.Errorf("failed to tag record %d: %w", model.ID, err)
			}
		}

		if len(models) < migrationBatchSize {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.batchDelay):
		}
	}

	return s.SetMeta(ctx, store.MetaTagMigrationDone, "1")
}

// deriveTag recomputes the facet tag from the persisted content type
// and raw payload. It must agree with record.Classify so migrated
// rows never flip tags later.
func deriveTag(contentType record.ContentType, raw []byte) string {
	switch contentType {
	case record.TypeText:
		_, tag := record.Classify(record.FormatText, raw)
		return tag
	case record.TypeLink:
		return "link"
	case record.TypeColor:
		return "color"
	case record.TypeRichText:
		return "rich"
	case record.TypeImage:
		return "image"
	case record.TypeFileList:
		return "file"
	default:
		return ""
	}
}
