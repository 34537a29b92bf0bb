package history

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/clipvault/clipvault/internal/record"
	"github.com/clipvault/clipvault/internal/store"
)

// UpdateGroup reassigns a record to a category. Group is the only
// field a UI mutation changes without rewriting the timestamp.
func (c *Cache) UpdateGroup(ctx context.Context, id int64, group int64) error {
	if err := c.store.Update(ctx, id, store.Fields{"group": group}); err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}

	c.mu.Lock()
	for _, row := range c.rows {
		if row.ID == id {
			row.Group = group
		}
	}
	c.mu.Unlock()

	c.notify(EventReset)
	return nil
}

// UpdateContent rewrites a record's payload in place: same id, new
// raw bytes, search text, tag and content hash.
func (c *Cache) UpdateContent(ctx context.Context, id int64, raw []byte, searchText, tag string) error {
	fields := store.Fields{
		"raw_data":     raw,
		"search_text":  searchText,
		"length":       utf8.RuneCountInString(searchText),
		"tag":          tag,
		"content_hash": record.HashOf(raw),
	}
	if err := c.store.Update(ctx, id, fields); err != nil {
		return fmt.Errorf("failed to update content: %w", err)
	}

	c.mu.Lock()
	for _, row := range c.rows {
		if row.ID == id {
			row.RawData = raw
			row.SearchText = searchText
			row.Length = utf8.RuneCountInString(searchText)
			row.Tag = tag
			row.ContentHash = record.HashOf(raw)
		}
	}
	c.mu.Unlock()

	c.markFacetsStale()
	c.notify(EventReset)
	return nil
}

// Touch bumps a record's timestamp to now ("move to front" after a
// re-paste) and promotes it in the window.
func (c *Cache) Touch(ctx context.Context, rec *record.Record) error {
	now := time.Now().Unix()
	if err := c.store.Update(ctx, rec.ID, store.Fields{"timestamp": now}); err != nil {
		return fmt.Errorf("failed to touch record: %w", err)
	}
	rec.Timestamp = now
	c.MoveToFront(rec)
	return nil
}

// DeleteByIDs removes records and drops them from the window.
func (c *Cache) DeleteByIDs(ctx context.Context, ids []int64) error {
	if err := c.store.DeleteByIDs(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	return c.afterDelete(ctx)
}

// DeleteByGroup removes every record in a category (cascade on group
// deletion) and refreshes the window.
func (c *Cache) DeleteByGroup(ctx context.Context, group int64) error {
	if err := c.store.DeleteByGroup(ctx, group); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return c.afterDelete(ctx)
}

// DropAll irreversibly clears the entire history. The destructive
// confirmation lives at the boundary that calls this.
func (c *Cache) DropAll(ctx context.Context) error {
	if err := c.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return c.afterDelete(ctx)
}

// afterDelete reloads the current session's first page so the window
// never shows deleted rows.
func (c *Cache) afterDelete(ctx context.Context) error {
	c.mu.Lock()
	criteria := c.applied
	c.mu.Unlock()

	if err := c.reload(ctx, criteria); err != nil {
		return err
	}
	c.markFacetsStale()
	c.notify(EventReset)
	return nil
}

// Tags returns the distinct tag facets, cached until a mutation
// invalidates them. The store itself does no facet caching.
func (c *Cache) Tags(ctx context.Context) ([]string, error) {
	c.facetsMu.Lock()
	defer c.facetsMu.Unlock()

	if c.facetsStale || c.facetTags == nil {
		tags, err := c.store.DistinctTags(ctx)
		if err != nil {
			return nil, err
		}
		apps, err := c.store.DistinctApps(ctx)
		if err != nil {
			return nil, err
		}
		c.facetTags = tags
		c.facetApps = apps
		c.facetsStale = false
	}
	return append([]string(nil), c.facetTags...), nil
}

// Apps returns the distinct source-app facets, cached like Tags.
func (c *Cache) Apps(ctx context.Context) ([]store.AppInfo, error) {
	c.facetsMu.Lock()
	stale := c.facetsStale || c.facetApps == nil
	c.facetsMu.Unlock()

	if stale {
		if _, err := c.Tags(ctx); err != nil {
			return nil, err
		}
	}

	c.facetsMu.Lock()
	defer c.facetsMu.Unlock()
	return append([]store.AppInfo(nil), c.facetApps...), nil
}
