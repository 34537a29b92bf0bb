// Package retention implements the time-based expiration sweep for
// unassigned history. The sweep runs at most once per calendar day
// and never touches records assigned to a user-defined group.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/clipvault/clipvault/internal/logger"
	"github.com/clipvault/clipvault/internal/store"
)

// UnitKind selects the retention window's unit.
type UnitKind string

const (
	KindDays    UnitKind = "days"
	KindWeeks   UnitKind = "weeks"
	KindMonths  UnitKind = "months"
	KindYear    UnitKind = "year"
	KindForever UnitKind = "forever"
)

// Unit is the configured retention window: days 1-6, weeks 1-3,
// months 1-11, one year, or forever. Forever disables expiry
// entirely; it is not a very large window.
type Unit struct {
	Kind UnitKind `yaml:"kind"`
	N    int      `yaml:"n,omitempty"`
}

// Forever returns the never-expire unit.
func Forever() Unit { return Unit{Kind: KindForever} }

// Days returns an n-day retention unit.
func Days(n int) Unit { return Unit{Kind: KindDays, N: n} }

// Weeks returns an n-week retention unit.
func Weeks(n int) Unit { return Unit{Kind: KindWeeks, N: n} }

// Months returns an n-month retention unit.
func Months(n int) Unit { return Unit{Kind: KindMonths, N: n} }

// Year returns the one-year retention unit.
func Year() Unit { return Unit{Kind: KindYear} }

// Validate checks the unit's range.
func (u Unit) Validate() error {
	switch u.Kind {
	case KindDays:
		if u.N < 1 || u.N > 6 {
			return fmt.Errorf("days must be 1-6, got %d", u.N)
		}
	case KindWeeks:
		if u.N < 1 || u.N > 3 {
			return fmt.Errorf("weeks must be 1-3, got %d", u.N)
		}
	case KindMonths:
		if u.N < 1 || u.N > 11 {
			return fmt.Errorf("months must be 1-11, got %d", u.N)
		}
	case KindYear, KindForever:
	default:
		return fmt.Errorf("unknown retention unit: %s", u.Kind)
	}
	return nil
}

// cutoff returns the expiry boundary for the unit, or false for
// forever.
func (u Unit) cutoff(now time.Time) (int64, bool) {
	switch u.Kind {
	case KindDays:
		return now.AddDate(0, 0, -u.N).Unix(), true
	case KindWeeks:
		return now.AddDate(0, 0, -7*u.N).Unix(), true
	case KindMonths:
		return now.AddDate(0, -u.N, 0).Unix(), true
	case KindYear:
		return now.AddDate(-1, 0, 0).Unix(), true
	default:
		return 0, false
	}
}

// Policy runs the daily expiration sweep against the store.
type Policy struct {
	store store.Store
	log   logger.Logger
	unit  Unit
	now   func() time.Time
}

// NewPolicy creates a retention policy for the given unit.
func NewPolicy(st store.Store, log logger.Logger, unit Unit) *Policy {
	return &Policy{
		store: st,
		log:   log,
		unit:  unit,
		now:   time.Now,
	}
}

// SetNow overrides the clock, for tests.
func (p *Policy) SetNow(now func() time.Time) { p.now = now }

// dateKey is the calendar-day granularity of the once-per-day guard.
const dateKey = "2006-01-02"

// SweepCheckInterval is how often a long-running process re-checks
// whether a new calendar day began. The once-per-day guard makes the
// extra checks cheap.
const SweepCheckInterval = time.Hour

// Run sweeps immediately and then on every tick until ctx is
// canceled, so a daemon left up across midnight keeps expiring
// history. Sweep errors are logged; the loop keeps going.
func (p *Policy) Run(ctx context.Context, interval time.Duration) {
	p.sweepLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sweepLogged(ctx)
		}
	}
}

func (p *Policy) sweepLogged(ctx context.Context) {
	if _, err := p.Sweep(ctx); err != nil && ctx.Err() == nil {
		p.log.Warn("retention sweep failed", logger.Error(err))
	}
}

// Sweep deletes expired unassigned records at most once per calendar
// day. It is intended to run on app-visibility-close events; calling
// it more often is safe and cheap. Returns the number of rows
// removed (0 when skipped).
func (p *Policy) Sweep(ctx context.Context) (int64, error) {
	if p.unit.Kind == KindForever {
		return 0, nil
	}

	today := p.now().Format(dateKey)
	last, err := p.store.GetMeta(ctx, store.MetaLastCleared)
	if err != nil {
		return 0, fmt.Errorf("failed to read last-cleared date: %w", err)
	}
	if last == today {
		return 0, nil
	}

	cutoff, ok := p.unit.cutoff(p.now())
	if !ok {
		return 0, nil
	}

	removed, err := p.store.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired records: %w", err)
	}

	if err := p.store.SetMeta(ctx, store.MetaLastCleared, today); err != nil {
		return removed, fmt.Errorf("failed to record last-cleared date: %w", err)
	}

	if removed > 0 {
		p.log.Info("expired history cleared",
			logger.Int64("removed", removed))
	}
	return removed, nil
}
