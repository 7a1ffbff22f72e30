package cycle

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCanTradeFreshDay(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultLimits())
	st := tr.Status()

	assert.True(t, st.CanTrade)
	assert.Zero(t, st.TradesExecuted)
	assert.Zero(t, st.DailyPnLPercent)
}

func TestCanTradeGates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		trades int
		pnlPct float64
		want   bool
	}{
		{"all_clear", 1, 0.5, true},
		{"max_trades_reached", 3, 0.5, false},
		{"target_reached", 1, 3.0, false},
		{"above_target", 1, 3.4, false},
		{"limit_hit", 1, -2.0, false},
		{"below_limit", 2, -2.7, false},
		{"near_limit_still_ok", 2, -1.9, true},
		{"near_target_still_ok", 2, 2.9, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr := NewTracker(DefaultLimits())
			tr.SetClock(fixedClock(time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)))

			pct := tt.pnlPct / float64(max(tt.trades, 1))
			for i := 0; i < tt.trades; i++ {
				tr.RecordTrade(pct, pct*100)
			}

			assert.Equal(t, tt.want, tr.Status().CanTrade)
		})
	}
}

func TestRecordTradeAccumulates(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultLimits())
	tr.SetClock(fixedClock(time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)))

	tr.RecordTrade(1.2, 120)
	tr.RecordTrade(-0.5, -50)

	st := tr.Status()
	assert.Equal(t, 2, st.TradesExecuted)
	assert.InDelta(t, 0.7, st.DailyPnLPercent, 1e-9)
	assert.InDelta(t, 70.0, st.DailyPnLUSD, 1e-9)
	assert.True(t, st.CanTrade)
}

func TestUTCDayReset(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultLimits())
	day1 := time.Date(2026, 1, 7, 22, 0, 0, 0, time.UTC)
	tr.SetClock(fixedClock(day1))

	tr.RecordTrade(-2.5, -250)
	require.False(t, tr.Status().CanTrade)

	// Crossing UTC midnight resets the cycle.
	tr.SetClock(fixedClock(day1.Add(3 * time.Hour)))
	st := tr.Status()
	assert.Zero(t, st.TradesExecuted)
	assert.Zero(t, st.DailyPnLPercent)
	assert.True(t, st.CanTrade)
}

func TestRolling24hReset(t *testing.T) {
	t.Parallel()

	limits := DefaultLimits()
	limits.Reset = ResetRolling24h
	tr := NewTracker(limits)

	first := time.Date(2026, 1, 7, 22, 0, 0, 0, time.UTC)
	tr.SetClock(fixedClock(first))
	tr.RecordTrade(1.0, 100)

	// Crossing UTC midnight does NOT reset in rolling mode.
	tr.SetClock(fixedClock(first.Add(4 * time.Hour)))
	assert.Equal(t, 1, tr.Status().TradesExecuted)

	// 24h after the first trade the cycle is fresh.
	tr.SetClock(fixedClock(first.Add(24*time.Hour + time.Minute)))
	st := tr.Status()
	assert.Zero(t, st.TradesExecuted)
	assert.True(t, st.CanTrade)
}

func TestResetSnapshotsEquity(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultLimits())
	tr.RecordTrade(0.4, 40)
	tr.Reset(10250)

	assert.Zero(t, tr.Status().TradesExecuted)
	assert.InDelta(t, 10250.0, tr.StartingEquity(), 1e-9)
}

func TestTradesNeverDecreaseWithinDay(t *testing.T) {
	t.Parallel()

	tr := NewTracker(DefaultLimits())
	tr.SetClock(fixedClock(time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)))

	prev := 0
	for i := 0; i < 5; i++ {
		tr.RecordTrade(0.1, 10)
		st := tr.Status()
		assert.GreaterOrEqual(t, st.TradesExecuted, prev)
		prev = st.TradesExecuted
	}
	assert.Equal(t, 5, prev)
	assert.False(t, tr.Status().CanTrade)
}

func TestConcurrentRecordTrade(t *testing.T) {
	t.Parallel()

	tr := NewTracker(Limits{MaxTrades: 100, DailyTargetPct: 1000, DailyLimitPct: -1000})
	tr.SetClock(fixedClock(time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.RecordTrade(0.01, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, tr.Status().TradesExecuted)
}
