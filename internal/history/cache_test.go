package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/clipvault/clipvault/internal/logger"
	"github.com/clipvault/clipvault/internal/record"
	"github.com/clipvault/clipvault/internal/store"
	"github.com/clipvault/clipvault/internal/store/memstore"
)

const testDebounce = 10 * time.Millisecond

// waitDebounce waits long enough for a scheduled search to apply.
func waitDebounce() {
	time.Sleep(10 * testDebounce)
}

func seedStore(t *testing.T, n int) *memstore.MemoryStore {
	t.Helper()

	st := memstore.New()
	for i := 1; i <= n; i++ {
		rec, err := record.New(record.FormatText,
			[]byte(fmt.Sprintf("entry %03d", i)), "SeedApp", "/apps/seed",
			time.Unix(int64(1000+i), 0))
		if err != nil {
			t.Fatalf("failed to build record: %v", err)
		}
		rec.Timestamp = int64(1000 + i)
		if _, err := st.Insert(context.Background(), rec); err != nil {
			t.Fatalf("failed to seed store: %v", err)
		}
	}
	return st
}

func setupCache(t *testing.T, seeded int, pageSize int) (*Cache, *memstore.MemoryStore) {
	t.Helper()

	st := seedStore(t, seeded)
	c, err := NewCache(context.Background(), st, logger.Nop(), Options{
		PageSize: pageSize,
		Debounce: testDebounce,
	})
	if err != nil {
		t.Fatalf("failed to build cache: %v", err)
	}
	return c, st
}

func drainEvents(c *Cache) {
	for {
		select {
		case <-c.Events():
		default:
			return
		}
	}
}

func TestNewCacheLoadsFirstPage(t *testing.T) {
	c, _ := setupCache(t, 7, 3)

	rows := c.Rows()
	if len(rows) != 3 {
		t.Fatalf("expected one page of 3, got %d", len(rows))
	}
	if rows[0].SearchText != "entry 007" || rows[2].SearchText != "entry 005" {
		t.Errorf("wrong first page: %q .. %q", rows[0].SearchText, rows[2].SearchText)
	}
	if c.TotalCount() != 7 {
		t.Errorf("total = %d, want 7", c.TotalCount())
	}
	if !c.HasMore() {
		t.Error("expected hasMore with 7 rows and page size 3")
	}
	if c.State() != StateIdle {
		t.Errorf("state = %v, want Idle", c.State())
	}
}

func TestLoadNextPage(t *testing.T) {
	c, _ := setupCache(t, 7, 3)
	ctx := context.Background()

	if err := c.LoadNextPage(ctx); err != nil {
		t.Fatalf("LoadNextPage failed: %v", err)
	}
	rows := c.Rows()
	if len(rows) != 6 {
		t.Fatalf("expected 6 rows after one extension, got %d", len(rows))
	}
	if rows[3].SearchText != "entry 004" {
		t.Errorf("page 2 starts with %q", rows[3].SearchText)
	}

	// Final short page clears hasMore.
	if err := c.LoadNextPage(ctx); err != nil {
		t.Fatalf("LoadNextPage failed: %v", err)
	}
	if len(c.Rows()) != 7 {
		t.Fatalf("expected all 7 rows, got %d", len(c.Rows()))
	}
	if c.HasMore() {
		t.Error("expected hasMore=false after final page")
	}

	// Exhausted: further calls are no-ops, no duplicates appended.
	if err := c.LoadNextPage(ctx); err != nil {
		t.Fatalf("LoadNextPage failed: %v", err)
	}
	if len(c.Rows()) != 7 {
		t.Errorf("no-op extension changed the window: %d rows", len(c.Rows()))
	}
}

func TestLoadNextPageDiscardedAfterConcurrentCapture(t *testing.T) {
	st := &hookStore{MemoryStore: seedStore(t, 7)}
	c, err := NewCache(context.Background(), st, logger.Nop(), Options{
		PageSize: 3,
		Debounce: testDebounce,
	})
	if err != nil {
		t.Fatalf("failed to build cache: %v", err)
	}

	// A capture lands mid-query: it prepends and trims the window back
	// to exactly the length the extension was computed against, so a
	// plain length comparison would let the stale page through.
	captured := &record.Record{
		ID: 100, ContentHash: "caphash", Type: record.TypeText,
		SearchText: "mid-query capture", Timestamp: 5000,
	}
	st.onQuery = func() {
		st.onQuery = nil
		c.InsertCaptured(captured)
	}

	if err := c.LoadNextPage(context.Background()); err != nil {
		t.Fatalf("LoadNextPage failed: %v", err)
	}

	rows := c.Rows()
	if len(rows) != 3 {
		t.Fatalf("stale page appended against shifted window: %d rows", len(rows))
	}
	if rows[0].ContentHash != "caphash" {
		t.Errorf("captured record not at front: %q", rows[0].SearchText)
	}
	seen := map[string]int{}
	for _, row := range rows {
		seen[row.ContentHash]++
	}
	for hash, n := range seen {
		if n > 1 {
			t.Errorf("hash %s appears %d times in window", hash, n)
		}
	}
}

func TestSearchFiltersWindow(t *testing.T) {
	c, _ := setupCache(t, 7, 3)

	c.Search(Criteria{Keyword: "entry 002"})
	waitDebounce()

	rows := c.Rows()
	if len(rows) != 1 || rows[0].SearchText != "entry 002" {
		t.Fatalf("filtered window = %v", rows)
	}
	if c.State() != StateFiltered {
		t.Errorf("state = %v, want Filtered", c.State())
	}
}

func TestSearchDebounceCancelsOlder(t *testing.T) {
	c, _ := setupCache(t, 7, 3)

	// Rapid re-typing: only the last criteria apply.
	c.Search(Criteria{Keyword: "entry 001"})
	c.Search(Criteria{Keyword: "entry 002"})
	c.Search(Criteria{Keyword: "entry 003"})
	waitDebounce()

	rows := c.Rows()
	if len(rows) != 1 || rows[0].SearchText != "entry 003" {
		t.Fatalf("expected only the newest search applied, got %v", rows)
	}
}

func TestSearchRevertToAppliedCancelsPending(t *testing.T) {
	c, _ := setupCache(t, 7, 3)

	// Typing away and straight back: the intermediate criteria are
	// pending when the user returns to the applied (default) state,
	// and must never apply.
	c.Search(Criteria{Keyword: "entry 002"})
	c.Search(Criteria{})
	waitDebounce()

	if c.State() != StateIdle {
		t.Errorf("abandoned search applied anyway: state %v", c.State())
	}
	if len(c.Rows()) != 3 {
		t.Errorf("window = %d rows, want the default first page of 3", len(c.Rows()))
	}
}

func TestSearchIdenticalCriteriaIsNoop(t *testing.T) {
	c, _ := setupCache(t, 7, 3)

	criteria := Criteria{Keyword: "entry 004", Tags: []string{"string"}}
	c.Search(criteria)
	waitDebounce()
	drainEvents(c)

	// Byte-identical criteria: no new query, no event.
	c.Search(Criteria{Keyword: "entry 004", Tags: []string{"string"}})
	waitDebounce()

	select {
	case ev := <-c.Events():
		t.Errorf("redundant search emitted event %v", ev.Kind)
	default:
	}
}

func TestResetDefaultRestoresIdle(t *testing.T) {
	c, _ := setupCache(t, 7, 3)
	ctx := context.Background()

	c.Search(Criteria{Keyword: "entry 001"})
	waitDebounce()
	if c.State() != StateFiltered {
		t.Fatalf("precondition: expected Filtered")
	}

	if err := c.ResetDefault(ctx); err != nil {
		t.Fatalf("ResetDefault failed: %v", err)
	}
	if c.State() != StateIdle {
		t.Errorf("state = %v, want Idle", c.State())
	}
	if len(c.Rows()) != 3 {
		t.Errorf("expected first page restored, got %d rows", len(c.Rows()))
	}
}

func TestResetCancelsPendingSearch(t *testing.T) {
	c, _ := setupCache(t, 7, 3)

	c.Search(Criteria{Keyword: "entry 001"})
	if err := c.ResetDefault(context.Background()); err != nil {
		t.Fatalf("ResetDefault failed: %v", err)
	}
	waitDebounce()

	// The pending search must not have applied after the reset.
	if c.State() != StateIdle {
		t.Errorf("canceled search applied anyway: state %v", c.State())
	}
	if len(c.Rows()) != 3 {
		t.Errorf("window = %d rows, want first page of 3", len(c.Rows()))
	}
}

func TestInsertCapturedIdlePrepends(t *testing.T) {
	c, _ := setupCache(t, 7, 3)

	rec := &record.Record{
		ID: 100, ContentHash: "newhash", Type: record.TypeText,
		SearchText: "fresh capture", Timestamp: 2000, Group: record.UnassignedGroup,
	}
	c.InsertCaptured(rec)

	rows := c.Rows()
	if rows[0].SearchText != "fresh capture" {
		t.Errorf("captured record not at front: %q", rows[0].SearchText)
	}
	if len(rows) != 3 {
		t.Errorf("window must stay one page long, got %d", len(rows))
	}
}

func TestInsertCapturedDeduplicatesByHash(t *testing.T) {
	c, _ := setupCache(t, 3, 3)

	existing := c.Rows()[2]
	rec := &record.Record{
		ID: existing.ID, ContentHash: existing.ContentHash,
		Type: record.TypeText, SearchText: existing.SearchText, Timestamp: 3000,
	}
	c.InsertCaptured(rec)

	rows := c.Rows()
	if len(rows) != 3 {
		t.Fatalf("dedup failed: %d rows", len(rows))
	}
	if rows[0].ContentHash != existing.ContentHash {
		t.Errorf("re-captured record not promoted to front")
	}
	seen := map[string]int{}
	for _, row := range rows {
		seen[row.ContentHash]++
	}
	for hash, n := range seen {
		if n > 1 {
			t.Errorf("hash %s appears %d times in window", hash, n)
		}
	}
}

func TestInsertCapturedDeferredWhileFiltered(t *testing.T) {
	c, _ := setupCache(t, 7, 3)

	c.Search(Criteria{Keyword: "entry 001"})
	waitDebounce()

	before := c.Rows()
	c.InsertCaptured(&record.Record{
		ID: 100, ContentHash: "newhash", Type: record.TypeText,
		SearchText: "unrelated capture", Timestamp: 2000,
	})

	after := c.Rows()
	if len(after) != len(before) {
		t.Errorf("filtered window must not splice captures: %d -> %d rows",
			len(before), len(after))
	}
}

func TestMoveToFront(t *testing.T) {
	c, _ := setupCache(t, 3, 3)

	last := c.Rows()[2]
	c.MoveToFront(last)

	rows := c.Rows()
	if rows[0].ID != last.ID {
		t.Errorf("record not promoted: front id %d, want %d", rows[0].ID, last.ID)
	}
	if len(rows) != 3 {
		t.Errorf("window length changed: %d", len(rows))
	}
}

func TestTouchBumpsTimestampAndPromotes(t *testing.T) {
	c, st := setupCache(t, 3, 3)
	ctx := context.Background()

	last := c.Rows()[2]
	if err := c.Touch(ctx, last); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	if c.Rows()[0].ID != last.ID {
		t.Errorf("touched record not at front")
	}

	stored, err := st.GetByID(ctx, last.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Timestamp <= 1003 {
		t.Errorf("timestamp not bumped: %d", stored.Timestamp)
	}
}

func TestUpdateGroup(t *testing.T) {
	c, st := setupCache(t, 3, 3)
	ctx := context.Background()

	target := c.Rows()[1]
	if err := c.UpdateGroup(ctx, target.ID, 5); err != nil {
		t.Fatalf("UpdateGroup failed: %v", err)
	}

	stored, _ := st.GetByID(ctx, target.ID)
	if stored.Group != 5 {
		t.Errorf("stored group = %d, want 5", stored.Group)
	}
	if stored.Timestamp != target.Timestamp {
		t.Errorf("group change must not rewrite timestamp")
	}
	if c.Rows()[1].Group != 5 {
		t.Errorf("window row group not updated")
	}
}

func TestUpdateContent(t *testing.T) {
	c, st := setupCache(t, 3, 3)
	ctx := context.Background()

	target := c.Rows()[0]
	newRaw := []byte("#a1b2c3")
	if err := c.UpdateContent(ctx, target.ID, newRaw, "#a1b2c3", "color"); err != nil {
		t.Fatalf("UpdateContent failed: %v", err)
	}

	stored, _ := st.GetByID(ctx, target.ID)
	if stored.SearchText != "#a1b2c3" || stored.Tag != "color" {
		t.Errorf("content edit not persisted: %q/%q", stored.SearchText, stored.Tag)
	}
	if stored.ContentHash != record.HashOf(newRaw) {
		t.Errorf("content hash not rewritten")
	}
	if stored.ID != target.ID {
		t.Errorf("content edit must keep the same id")
	}
}

func TestDeleteByIDsRefreshesWindow(t *testing.T) {
	c, _ := setupCache(t, 7, 3)
	ctx := context.Background()

	victim := c.Rows()[0]
	if err := c.DeleteByIDs(ctx, []int64{victim.ID}); err != nil {
		t.Fatalf("DeleteByIDs failed: %v", err)
	}

	for _, row := range c.Rows() {
		if row.ID == victim.ID {
			t.Errorf("deleted row still in window")
		}
	}
	if c.TotalCount() != 6 {
		t.Errorf("total = %d, want 6", c.TotalCount())
	}
}

func TestDropAll(t *testing.T) {
	c, st := setupCache(t, 5, 3)
	ctx := context.Background()

	if err := c.DropAll(ctx); err != nil {
		t.Fatalf("DropAll failed: %v", err)
	}
	if len(c.Rows()) != 0 || c.TotalCount() != 0 {
		t.Errorf("window not cleared: %d rows, total %d", len(c.Rows()), c.TotalCount())
	}
	n, _ := st.TotalCount(ctx)
	if n != 0 {
		t.Errorf("store not cleared: %d rows", n)
	}
}

func TestFacetsCached(t *testing.T) {
	c, _ := setupCache(t, 3, 3)
	ctx := context.Background()

	tags, err := c.Tags(ctx)
	if err != nil {
		t.Fatalf("Tags failed: %v", err)
	}
	if len(tags) != 1 || tags[0] != "string" {
		t.Errorf("tags = %v", tags)
	}

	apps, err := c.Apps(ctx)
	if err != nil {
		t.Fatalf("Apps failed: %v", err)
	}
	if len(apps) != 1 || apps[0].Name != "SeedApp" {
		t.Errorf("apps = %v", apps)
	}
}

func TestEventsEmitted(t *testing.T) {
	c, _ := setupCache(t, 7, 3)
	drainEvents(c)

	c.InsertCaptured(&record.Record{ID: 50, ContentHash: "h", SearchText: "x", Type: record.TypeText})

	select {
	case ev := <-c.Events():
		if ev.Kind != EventInserted {
			t.Errorf("event kind = %v, want EventInserted", ev.Kind)
		}
	default:
		t.Error("expected an event after committed mutation")
	}
}

// hookStore lets a test interleave cache mutations with a running
// store query.
type hookStore struct {
	*memstore.MemoryStore
	onQuery func()
}

func (h *hookStore) Query(ctx context.Context, filter *store.Filter, limit, offset int) ([]*record.Record, error) {
	if h.onQuery != nil {
		h.onQuery()
	}
	return h.MemoryStore.Query(ctx, filter, limit, offset)
}

var _ store.Store = (*memstore.MemoryStore)(nil)
