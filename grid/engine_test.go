package grid

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxgrid/broker"
	"github.com/rustyeddy/fxgrid/broker/sim"
	"github.com/rustyeddy/fxgrid/market"
)

func newTestEngine(t *testing.T) (*Engine, *sim.Engine) {
	t.Helper()

	venue := sim.NewEngine(broker.Account{Equity: 10000, Currency: "USD"})
	eng := NewEngine("EUR_USD", M5, DefaultConfig(), venue)
	return eng, venue
}

// warmBands feeds alternating closes so the bands settle at
// mean 1.09, sd 0.005: upper 1.1000, lower 1.0800, width 0.02.
func warmBands(eng *Engine) {
	for i := 0; i < 20; i++ {
		px := 1.0950
		if i%2 == 1 {
			px = 1.0850
		}
		eng.OnCandle(market.Candle{Close: px})
	}
}

func losingBuy() *market.Position {
	return &market.Position{
		Ticket:    "T1",
		Symbol:    "EUR_USD",
		Side:      market.Buy,
		Lots:      0.10,
		OpenPrice: 1.1000,
		OpenTime:  time.Date(2026, 1, 7, 9, 0, 0, 0, time.UTC),
		Profit:    -50,
	}
}

func TestEvaluateFlatStaysIdle(t *testing.T) {
	t.Parallel()

	eng, _ := newTestEngine(t)

	dec, err := eng.Evaluate(context.Background(), nil, broker.Account{Equity: 10000})

	require.NoError(t, err)
	assert.False(t, dec.OpenLevel)
	assert.Equal(t, Idle, eng.State())
	assert.Empty(t, eng.Levels())
}

func TestEvaluateSeedsLevelFromOpenPosition(t *testing.T) {
	t.Parallel()

	eng, _ := newTestEngine(t)

	_, err := eng.Evaluate(context.Background(), losingBuy(), broker.Account{Equity: 10000})

	require.NoError(t, err)
	assert.Equal(t, Watching, eng.State())
	require.Len(t, eng.Levels(), 1)
	assert.InDelta(t, 1.1000, eng.Levels()[0].EntryPrice, 1e-9)
	assert.InDelta(t, 0.10, eng.Levels()[0].Lot, 1e-9)
}

func TestEvaluateWaitsForBandWarmup(t *testing.T) {
	t.Parallel()

	eng, _ := newTestEngine(t)

	dec, err := eng.Evaluate(context.Background(), losingBuy(), broker.Account{Equity: 10000})

	require.NoError(t, err)
	assert.False(t, dec.OpenLevel)
	assert.False(t, eng.Checklist().AllPassed())
}

func TestEvaluateAddsLevelWhenAllGatesPass(t *testing.T) {
	t.Parallel()

	eng, venue := newTestEngine(t)
	warmBands(eng)
	venue.SetTick(market.Tick{Symbol: "EUR_USD", Bid: 1.0800, Ask: 1.0802})

	dec, err := eng.Evaluate(context.Background(), losingBuy(), broker.Account{Equity: 10000})

	require.NoError(t, err)
	require.True(t, dec.OpenLevel)
	assert.Equal(t, market.Buy, dec.Side)
	assert.InDelta(t, 0.20, dec.Lot, 1e-9) // 0.10 + 0.1 increment
	assert.NotEmpty(t, dec.Ticket)

	assert.Equal(t, Watching, eng.State())
	require.Len(t, eng.Levels(), 2)
	assert.InDelta(t, 1.0802, eng.Levels()[1].EntryPrice, 1e-9) // filled at ask
	assert.True(t, eng.Checklist().AllPassed())
}

func TestEvaluateGateFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		pos    func() *market.Position
		tick   market.Tick
		failed string
	}{
		{
			name: "winning_position_never_escalates",
			pos: func() *market.Position {
				p := losingBuy()
				p.Profit = 80
				return p
			},
			tick:   market.Tick{Symbol: "EUR_USD", Bid: 1.0800, Ask: 1.0802},
			failed: "losing_position",
		},
		{
			name: "swap_and_commission_count_toward_net",
			pos: func() *market.Position {
				p := losingBuy()
				p.Profit = 5
				p.Swap = -2
				p.Commission = 1 // net +2, still positive
				return p
			},
			tick:   market.Tick{Symbol: "EUR_USD", Bid: 1.0800, Ask: 1.0802},
			failed: "losing_position",
		},
		{
			name: "too_close_to_entry",
			pos: func() *market.Position {
				p := losingBuy()
				p.OpenPrice = 1.08015 // ~0.2 pips from bid
				return p
			},
			tick:   market.Tick{Symbol: "EUR_USD", Bid: 1.0800, Ask: 1.0802},
			failed: "min_distance",
		},
		{
			name:   "spread_too_wide",
			pos:    losingBuy,
			tick:   market.Tick{Symbol: "EUR_USD", Bid: 1.0800, Ask: 1.0805}, // 5 pips
			failed: "max_spread",
		},
		{
			name:   "no_band_touch",
			pos:    losingBuy,
			tick:   market.Tick{Symbol: "EUR_USD", Bid: 1.0900, Ask: 1.0902}, // at middle band
			failed: "band_touch",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			eng, venue := newTestEngine(t)
			warmBands(eng)
			venue.SetTick(tt.tick)

			dec, err := eng.Evaluate(context.Background(), tt.pos(), broker.Account{Equity: 10000})

			require.NoError(t, err)
			assert.False(t, dec.OpenLevel)
			assert.Equal(t, Watching, eng.State())
			assert.Len(t, eng.Levels(), 1)
			assert.Empty(t, venue.SentOrders())

			var found bool
			for _, c := range eng.Checklist() {
				if c.Name == tt.failed {
					found = true
					assert.False(t, c.Pass, "gate %s should have failed", tt.failed)
				}
			}
			assert.True(t, found, "gate %s not evaluated", tt.failed)
		})
	}
}

func TestEvaluateBandwidthGate(t *testing.T) {
	t.Parallel()

	venue := sim.NewEngine(broker.Account{Equity: 10000})
	eng := NewEngine("EUR_USD", M5, DefaultConfig(), venue)

	// Dead market: flat candles collapse the bands.
	for i := 0; i < 20; i++ {
		eng.OnCandle(market.Candle{Close: 1.0900})
	}
	venue.SetTick(market.Tick{Symbol: "EUR_USD", Bid: 1.0800, Ask: 1.0802})

	dec, err := eng.Evaluate(context.Background(), losingBuy(), broker.Account{Equity: 10000})

	require.NoError(t, err)
	assert.False(t, dec.OpenLevel)

	var bandwidthFailed bool
	for _, c := range eng.Checklist() {
		if c.Name == "min_bandwidth" && !c.Pass {
			bandwidthFailed = true
		}
	}
	assert.True(t, bandwidthFailed)
}

func TestEvaluateSellTouchesUpperBand(t *testing.T) {
	t.Parallel()

	eng, venue := newTestEngine(t)
	warmBands(eng)
	venue.SetTick(market.Tick{Symbol: "EUR_USD", Bid: 1.0998, Ask: 1.1000})

	pos := &market.Position{
		Ticket:    "T2",
		Symbol:    "EUR_USD",
		Side:      market.Sell,
		Lots:      0.10,
		OpenPrice: 1.0800,
		Profit:    -60,
	}

	dec, err := eng.Evaluate(context.Background(), pos, broker.Account{Equity: 10000})

	require.NoError(t, err)
	require.True(t, dec.OpenLevel)
	assert.Equal(t, market.Sell, dec.Side)
	// Sells fill at bid.
	assert.InDelta(t, 1.0998, eng.Levels()[1].EntryPrice, 1e-9)
}

func TestOrderRetryOnceThenSuccess(t *testing.T) {
	t.Parallel()

	eng, venue := newTestEngine(t)
	warmBands(eng)
	venue.SetTick(market.Tick{Symbol: "EUR_USD", Bid: 1.0800, Ask: 1.0802})
	venue.ScriptRetcodes(broker.RetcodeRequote)

	dec, err := eng.Evaluate(context.Background(), losingBuy(), broker.Account{Equity: 10000})

	require.NoError(t, err)
	assert.True(t, dec.OpenLevel)
	assert.Len(t, venue.SentOrders(), 2)
	assert.Len(t, eng.Levels(), 2)
}

func TestOrderNeverRetriesTwice(t *testing.T) {
	t.Parallel()

	eng, venue := newTestEngine(t)
	warmBands(eng)
	venue.SetTick(market.Tick{Symbol: "EUR_USD", Bid: 1.0800, Ask: 1.0802})
	venue.ScriptRetcodes(broker.RetcodeRequote, broker.RetcodeRejected, broker.RetcodeRejected)

	dec, err := eng.Evaluate(context.Background(), losingBuy(), broker.Account{Equity: 10000})

	require.Error(t, err)
	assert.False(t, dec.OpenLevel)
	assert.Len(t, venue.SentOrders(), 2) // original + exactly one retry
	assert.Len(t, eng.Levels(), 1)       // rejected level not appended
	assert.Equal(t, Watching, eng.State())
}

func TestNextLotFixedIncrement(t *testing.T) {
	t.Parallel()

	eng, _ := newTestEngine(t)
	eng.levels = []Level{{Lot: 0.10}}
	eng.initialLot = 0.10

	assert.InDelta(t, 0.20, eng.nextLot(10000), 1e-9)
}

func TestNextLotLargeAccountProgression(t *testing.T) {
	t.Parallel()

	eng, _ := newTestEngine(t)
	eng.initialLot = 0.10

	// Each new lot is the sum of the two most recent, seeded by the
	// initial lot.
	eng.levels = []Level{{Lot: 0.10}}
	assert.InDelta(t, 0.20, eng.nextLot(100000), 1e-9)

	eng.levels = []Level{{Lot: 0.10}, {Lot: 0.20}}
	assert.InDelta(t, 0.30, eng.nextLot(100000), 1e-9)

	eng.levels = []Level{{Lot: 0.10}, {Lot: 0.20}, {Lot: 0.30}}
	assert.InDelta(t, 0.50, eng.nextLot(100000), 1e-9)
}

func TestPositionClosedResetsEngine(t *testing.T) {
	t.Parallel()

	eng, venue := newTestEngine(t)
	warmBands(eng)
	venue.SetTick(market.Tick{Symbol: "EUR_USD", Bid: 1.0800, Ask: 1.0802})

	_, err := eng.Evaluate(context.Background(), losingBuy(), broker.Account{Equity: 10000})
	require.NoError(t, err)
	require.NotEmpty(t, eng.Levels())

	_, err = eng.Evaluate(context.Background(), nil, broker.Account{Equity: 10000})
	require.NoError(t, err)
	assert.Equal(t, Idle, eng.State())
	assert.Empty(t, eng.Levels())
}

func TestChecklistString(t *testing.T) {
	t.Parallel()

	c := Checklist{
		{Name: "losing_position", Pass: true, Detail: "net_pl=-50.00"},
		{Name: "max_spread", Pass: false, Detail: "spread=5.0p max=3.0p"},
	}

	s := c.String()
	assert.Contains(t, s, "losing_position=ok")
	assert.Contains(t, s, "max_spread=FAIL")
	assert.False(t, c.AllPassed())
}
