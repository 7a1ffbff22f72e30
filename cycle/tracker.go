// Package cycle tracks the bounded daily trading cycle: how many trades
// have been taken today, the running P&L, and whether another trade is
// still allowed.
package cycle

import (
	"sync"
	"time"
)

// ResetMode selects when a new trading day begins.
type ResetMode int

const (
	// ResetUTCDay starts a fresh cycle when the UTC calendar date changes.
	ResetUTCDay ResetMode = iota
	// ResetRolling24h starts a fresh cycle 24 hours after the first
	// trade of the current cycle.
	ResetRolling24h
)

type Limits struct {
	MaxTrades      int     // hard cap on trades per cycle (3)
	DailyTargetPct float64 // stop trading once daily P&L reaches this (+3.0)
	DailyLimitPct  float64 // stop trading once daily P&L falls to this (-2.0)
	Reset          ResetMode
}

func DefaultLimits() Limits {
	return Limits{
		MaxTrades:      3,
		DailyTargetPct: 3.0,
		DailyLimitPct:  -2.0,
		Reset:          ResetUTCDay,
	}
}

// Status is a consistent snapshot of the current cycle.
type Status struct {
	TradesExecuted  int
	DailyPnLPercent float64
	DailyPnLUSD     float64
	CanTrade        bool
}

// Tracker owns the cycle state. All access goes through the mutex so
// concurrent per-symbol evaluation cannot double-spend the trade budget.
type Tracker struct {
	mu sync.Mutex

	limits Limits
	now    func() time.Time

	day            time.Time // cycle anchor: UTC midnight or first-trade time
	anchored       bool      // rolling mode only: anchor set by first trade
	trades         int
	pnlPct         float64
	pnlUSD         float64
	startingEquity float64
}

func NewTracker(limits Limits) *Tracker {
	return &Tracker{limits: limits, now: time.Now}
}

// SetClock overrides the time source, for tests.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// Status returns the cycle snapshot after applying any pending
// day-boundary reset.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.maybeReset(t.now().UTC())
	return Status{
		TradesExecuted:  t.trades,
		DailyPnLPercent: t.pnlPct,
		DailyPnLUSD:     t.pnlUSD,
		CanTrade:        t.canTradeLocked(),
	}
}

// RecordTrade attributes one closed trade to the cycle. Callers must
// invoke it exactly once per filled trade; trades that never filled must
// not be recorded.
func (t *Tracker) RecordTrade(profitPct, profitUSD float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now().UTC()
	t.maybeReset(now)

	if t.limits.Reset == ResetRolling24h && !t.anchored {
		t.day = now
		t.anchored = true
	}

	t.trades++
	t.pnlPct += profitPct
	t.pnlUSD += profitUSD
}

// Reset starts a fresh cycle immediately, snapshotting equity.
func (t *Tracker) Reset(startingEquity float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked(t.now().UTC(), startingEquity)
}

// Mode reports the configured reset mode.
func (t *Tracker) Mode() ResetMode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.limits.Reset
}

// StartingEquity reports the equity captured at the last reset.
func (t *Tracker) StartingEquity() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startingEquity
}

func (t *Tracker) canTradeLocked() bool {
	if t.trades >= t.limits.MaxTrades {
		return false
	}
	if t.pnlPct <= t.limits.DailyLimitPct {
		return false
	}
	// Target reached locks in gains: no new entries even with budget left.
	if t.pnlPct >= t.limits.DailyTargetPct {
		return false
	}
	return true
}

func (t *Tracker) maybeReset(now time.Time) {
	switch t.limits.Reset {
	case ResetRolling24h:
		if t.anchored && now.Sub(t.day) >= 24*time.Hour {
			t.resetLocked(now, t.startingEquity)
		}
	default:
		midnight := now.Truncate(24 * time.Hour)
		if !midnight.Equal(t.day) {
			t.resetLocked(now, t.startingEquity)
		}
	}
}

func (t *Tracker) resetLocked(now time.Time, equity float64) {
	if t.limits.Reset == ResetRolling24h {
		t.day = time.Time{}
		t.anchored = false
	} else {
		t.day = now.Truncate(24 * time.Hour)
	}
	t.trades = 0
	t.pnlPct = 0
	t.pnlUSD = 0
	t.startingEquity = equity
}
