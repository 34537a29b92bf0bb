// Package capture implements the polling clipboard watcher. It turns
// each real external clipboard change into exactly one store insert,
// suppressing the engine's own writes, ignored sources and sensitive
// content.
package capture

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/clipvault/clipvault/internal/clipboard"
	"github.com/clipvault/clipvault/internal/logger"
	"github.com/clipvault/clipvault/internal/record"
	"github.com/clipvault/clipvault/internal/store"
)

const (
	// DefaultInterval is the poll period.
	DefaultInterval = time.Second

	// DefaultMaxItemSize caps a single captured payload (10 MiB).
	DefaultMaxItemSize = 10 << 20
)

// Event is the fire-and-forget notification emitted after each
// successful capture, consumed by the presentation layer for visual
// or audio feedback.
type Event struct {
	Record *record.Record
}

// Options configures a Watcher.
type Options struct {
	// Interval between polls; DefaultInterval when zero.
	Interval time.Duration

	// MaxItemSize caps captured payload bytes; DefaultMaxItemSize
	// when zero.
	MaxItemSize int

	// IgnoreSensitive enables the sensitive-format policy.
	IgnoreSensitive bool

	// IgnoreList supplies per-application capture exclusions; may be
	// nil.
	IgnoreList IgnoreListProvider

	// Sensitive supplies the secret-manager markers; defaults to
	// DefaultSensitiveFormats when nil.
	Sensitive SensitiveFormatProvider
}

// Watcher polls the clipboard snapshot provider and persists new
// content. A single poll goroutine guarantees captures are inserted
// in clipboard-change order; persistence runs on a separate worker so
// a slow disk write never delays the next change check.
type Watcher struct {
	provider clipboard.SnapshotProvider
	writer   clipboard.Writer
	store    store.Store
	log      logger.Logger
	opts     Options

	lastCount int64
	selfWrite atomic.Bool

	jobs   chan *record.Record
	events chan Event
}

// NewWatcher creates a watcher over the given collaborators.
func NewWatcher(provider clipboard.SnapshotProvider, writer clipboard.Writer, st store.Store, log logger.Logger, opts Options) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxItemSize <= 0 {
		opts.MaxItemSize = DefaultMaxItemSize
	}
	if opts.Sensitive == nil {
		opts.Sensitive = StaticSensitiveFormats(DefaultSensitiveFormats)
	}

	return &Watcher{
		provider: provider,
		writer:   writer,
		store:    st,
		log:      log,
		opts:     opts,
		jobs:     make(chan *record.Record, 16),
		events:   make(chan Event, 16),
	}
}

// Events returns the capture feedback channel. Sends are
// fire-and-forget: if no consumer keeps up, notifications are
// dropped, never blocking the capture path.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins polling until ctx is canceled. Content already on the
// clipboard at start is not captured; only subsequent changes are.
func (w *Watcher) Start(ctx context.Context) {
	w.lastCount = w.provider.ChangeCount()

	go w.persistLoop(ctx)
	go w.pollLoop(ctx)

	w.log.Info("clipboard watcher started",
		logger.Duration("interval", w.opts.Interval))
}

func (w *Watcher) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if rec := w.snapshot(); rec != nil {
				select {
				case w.jobs <- rec:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (w *Watcher) persistLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec := <-w.jobs:
			w.persist(ctx, rec)
		}
	}
}

// PollOnce runs one synchronous poll tick: change detection, policy
// filtering, record construction and persistence. It is the
// single-step form of the loop Start drives.
func (w *Watcher) PollOnce(ctx context.Context) {
	if rec := w.snapshot(); rec != nil {
		w.persist(ctx, rec)
	}
}

// snapshot performs the change-detection state machine and returns a
// new Record to persist, or nil when this tick captures nothing.
// Failures are logged and skipped; the next tick is the retry.
func (w *Watcher) snapshot() *record.Record {
	count := w.provider.ChangeCount()
	if count == w.lastCount {
		return nil
	}
	w.lastCount = count

	// The engine's own paste: consume the flag, skip the capture.
	if w.selfWrite.CompareAndSwap(true, false) {
		return nil
	}

	formats := w.provider.Formats()

	if w.opts.IgnoreSensitive && w.hasSensitiveFormat(formats) {
		w.log.Debug("skipping sensitive clipboard content")
		return nil
	}

	app := w.provider.SourceApp()
	if w.isIgnoredSource(app) {
		w.log.Debug("skipping ignored source app",
			logger.String("app", app.Name))
		return nil
	}

	format, ok := firstSupported(formats)
	if !ok {
		return nil
	}

	data, err := w.provider.Read(format)
	if err != nil {
		w.log.Warn("failed to read clipboard",
			logger.String("format", string(format)), logger.Error(err))
		return nil
	}
	if len(data) > w.opts.MaxItemSize {
		w.log.Debug("skipping oversized clipboard content",
			logger.Int("size", len(data)))
		return nil
	}

	var appName, appPath string
	if app != nil {
		appName, appPath = app.Name, app.Path
	}

	rec, err := record.New(format, data, appName, appPath, time.Now())
	if err != nil {
		if !errors.Is(err, record.ErrWhitespaceOnly) {
			w.log.Warn("failed to build record", logger.Error(err))
		}
		return nil
	}
	return rec
}

// persist inserts a captured record and emits the feedback event.
// Errors are logged, never propagated: losing one capture is
// preferred over stopping the watcher.
func (w *Watcher) persist(ctx context.Context, rec *record.Record) {
	if _, err := w.store.Insert(ctx, rec); err != nil {
		w.log.Error("failed to persist capture", logger.Error(err))
		return
	}

	w.log.Debug("captured clipboard content",
		logger.String("tag", rec.Tag), logger.Int("length", rec.Length))

	select {
	case w.events <- Event{Record: rec}:
	default:
	}
}

// WriteToClipboard writes stored content back to the OS clipboard and
// flags the write so the next poll does not re-capture it.
func (w *Watcher) WriteToClipboard(format record.Format, data []byte) error {
	w.selfWrite.Store(true)
	if err := w.writer.Write(format, data); err != nil {
		w.selfWrite.Store(false)
		return err
	}
	return nil
}

func (w *Watcher) hasSensitiveFormat(formats []record.Format) bool {
	sensitive := w.opts.Sensitive.SensitiveFormats()
	for _, f := range formats {
		for _, s := range sensitive {
			if f == s {
				return true
			}
		}
	}
	return false
}

func (w *Watcher) isIgnoredSource(app *clipboard.SourceApp) bool {
	if w.opts.IgnoreList == nil || app == nil {
		return false
	}
	for _, entry := range w.opts.IgnoreList.Entries() {
		if entry.Matches(app) {
			return true
		}
	}
	return false
}

// firstSupported picks the first capturable format in registration
// order among those the snapshot advertises.
func firstSupported(advertised []record.Format) (record.Format, bool) {
	for _, supported := range record.SupportedFormats {
		for _, f := range advertised {
			if f == supported {
				return supported, true
			}
		}
	}
	return "", false
}
