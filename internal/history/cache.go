// Package history implements the in-memory, paginated, observable
// window over the persistence store. It owns the search and filter
// state of one view session and keeps page boundaries consistent with
// a live, mutating backing store. The window is a read-mostly cache:
// it may lag behind the store and is never authoritative for counts.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/clipvault/clipvault/internal/logger"
	"github.com/clipvault/clipvault/internal/record"
	"github.com/clipvault/clipvault/internal/store"
)

const (
	// DefaultPageSize is the window page length.
	DefaultPageSize = 50

	// DefaultDebounce delays search application while the user types.
	DefaultDebounce = 200 * time.Millisecond
)

// State describes the view session.
type State int

const (
	// StateIdle is the default session: no filter, newest page loaded.
	StateIdle State = iota

	// StateFiltered means a composed filter is active.
	StateFiltered

	// StateLoadingMore means a page-extension request is in flight.
	StateLoadingMore
)

// EventKind labels a committed cache mutation.
type EventKind int

const (
	// EventReset fires after a search or reset replaced the window.
	EventReset EventKind = iota

	// EventAppended fires after a page extension.
	EventAppended

	// EventInserted fires after a captured record entered the window.
	EventInserted

	// EventMoved fires after a record was promoted to the front.
	EventMoved
)

// Event notifies consumers that the window changed. Consumers
// subscribe via Events and re-read the rows they care about.
type Event struct {
	Kind EventKind
}

// Options tunes a Cache. Zero values select the defaults.
type Options struct {
	PageSize int
	Debounce time.Duration
}

// Cache is the paginated, filterable projection of the store.
type Cache struct {
	store store.Store
	log   logger.Logger

	pageSize int
	debounce time.Duration

	mu         sync.Mutex
	applied    Criteria
	rows       []*record.Record
	total      int64
	hasMore    bool
	loading    bool
	generation int64
	// windowGen advances on every structural window change so an
	// in-flight page extension can tell its offset went stale. A
	// capture that trims the window back to its old length would fool
	// a plain length check.
	windowGen int64
	timer     *time.Timer

	facetsMu    sync.Mutex
	facetTags   []string
	facetApps   []store.AppInfo
	facetsStale bool

	events chan Event
}

// NewCache creates a cache over the store and loads the first page.
func NewCache(ctx context.Context, st store.Store, log logger.Logger, opts Options) (*Cache, error) {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	c := &Cache{
		store:       st,
		log:         log,
		pageSize:    opts.PageSize,
		debounce:    opts.Debounce,
		facetsStale: true,
		events:      make(chan Event, 32),
	}

	if err := c.reload(ctx, Criteria{}); err != nil {
		return nil, err
	}
	return c, nil
}

// Events returns the notification channel. Sends never block; a slow
// consumer misses intermediate events, not final state.
func (c *Cache) Events() <-chan Event {
	return c.events
}

// State returns the current session state.
func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return StateLoadingMore
	}
	if !c.applied.IsZero() {
		return StateFiltered
	}
	return StateIdle
}

// Rows returns a copy of the current window, newest first.
func (c *Cache) Rows() []*record.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*record.Record(nil), c.rows...)
}

// TotalCount returns the last observed authoritative store count.
func (c *Cache) TotalCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// HasMore reports whether another page is expected to exist.
func (c *Cache) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// IsLoading reports whether a page extension is in flight.
func (c *Cache) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Search schedules a filtered reload after the debounce delay. A
// newer call cancels a pending one; criteria equal to the last
// applied criteria are a no-op so rapid re-typing of the same text
// never issues redundant queries.
func (c *Cache) Search(criteria Criteria) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	if c.timer != nil {
		c.timer.Stop()
	}

	// Typing back to the applied criteria needs no query, but the
	// generation bump above still cancels a pending different search.
	if criteria.Equal(c.applied) {
		return
	}

	gen := c.generation
	c.timer = time.AfterFunc(c.debounce, func() {
		c.applySearch(gen, criteria)
	})
}

// applySearch runs the query and commits its results unless a newer
// search started meanwhile. Apply is all-or-nothing: a superseded
// query's late results are discarded untouched.
func (c *Cache) applySearch(gen int64, criteria Criteria) {
	ctx := context.Background()

	rows, err := c.store.Query(ctx, criteria.filter(), c.pageSize, 0)
	if err != nil {
		c.log.Error("search query failed", logger.Error(err))
		return
	}
	total, err := c.store.TotalCount(ctx)
	if err != nil {
		c.log.Error("count query failed", logger.Error(err))
		return
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.applied = criteria
	c.rows = rows
	c.total = total
	c.hasMore = len(rows) == c.pageSize
	c.windowGen++
	c.mu.Unlock()

	c.notify(EventReset)
}

// ResetDefault cancels any pending search and synchronously restores
// the default (unfiltered) session with a fresh first page.
func (c *Cache) ResetDefault(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	if c.timer != nil {
		c.timer.Stop()
	}
	c.mu.Unlock()

	if err := c.reload(ctx, Criteria{}); err != nil {
		return err
	}
	c.notify(EventReset)
	return nil
}

// reload replaces the window with the first page for the criteria.
func (c *Cache) reload(ctx context.Context, criteria Criteria) error {
	rows, err := c.store.Query(ctx, criteria.filter(), c.pageSize, 0)
	if err != nil {
		return err
	}
	total, err := c.store.TotalCount(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.applied = criteria
	c.rows = rows
	c.total = total
	c.hasMore = len(rows) == c.pageSize
	c.windowGen++
	c.mu.Unlock()
	return nil
}

// LoadNextPage extends the window by exactly one page. It is a no-op
// while a load is in flight, when no more rows are expected, and when
// the window changed while the query ran (a stale page is discarded
// rather than appended against shifted offsets).
func (c *Cache) LoadNextPage(ctx context.Context) error {
	c.mu.Lock()
	if c.loading || !c.hasMore {
		c.mu.Unlock()
		return nil
	}
	if c.applied.IsZero() && int64(len(c.rows)) >= c.total {
		c.mu.Unlock()
		return nil
	}
	c.loading = true
	offset := len(c.rows)
	win := c.windowGen
	criteria := c.applied
	c.mu.Unlock()

	rows, err := c.store.Query(ctx, criteria.filter(), c.pageSize, offset)

	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if win != c.windowGen {
		c.mu.Unlock()
		return nil
	}
	c.rows = append(c.rows, rows...)
	c.hasMore = len(rows) == c.pageSize
	c.windowGen++
	c.mu.Unlock()

	c.notify(EventAppended)
	return nil
}

// InsertCaptured folds a freshly captured record into the window. In
// a filtered session the window is left untouched: the record may not
// match the active filter, and re-querying is deferred to the next
// reset. In the default session the record is deduplicated by content
// hash, prepended, and the window is trimmed back to one page.
func (c *Cache) InsertCaptured(rec *record.Record) {
	c.mu.Lock()
	if !c.applied.IsZero() {
		c.mu.Unlock()
		return
	}

	replaced := false
	kept := c.rows[:0]
	for _, row := range c.rows {
		if row.ContentHash == rec.ContentHash {
			replaced = true
			continue
		}
		kept = append(kept, row)
	}
	c.rows = append([]*record.Record{rec}, kept...)
	if len(c.rows) > c.pageSize {
		c.rows = c.rows[:c.pageSize]
		c.hasMore = true
	}
	// Best-effort count bump; the store count is re-read on the next
	// reload and stays authoritative.
	if !replaced {
		c.total++
	}
	c.windowGen++
	c.mu.Unlock()

	c.markFacetsStale()
	c.notify(EventInserted)
}

// MoveToFront promotes a re-pasted record to index 0, capping the
// window at one page.
func (c *Cache) MoveToFront(rec *record.Record) {
	c.mu.Lock()
	kept := c.rows[:0]
	for _, row := range c.rows {
		if row.ID != rec.ID {
			kept = append(kept, row)
		}
	}
	c.rows = append([]*record.Record{rec}, kept...)
	if len(c.rows) > c.pageSize {
		c.rows = c.rows[:c.pageSize]
		c.hasMore = true
	}
	c.windowGen++
	c.mu.Unlock()

	c.notify(EventMoved)
}

func (c *Cache) notify(kind EventKind) {
	select {
	case c.events <- Event{Kind: kind}:
	default:
	}
}

func (c *Cache) markFacetsStale() {
	c.facetsMu.Lock()
	c.facetsStale = true
	c.facetsMu.Unlock()
}
