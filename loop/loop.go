// Package loop drives the decision engine: a fixed-interval poll that
// re-evaluates session, cycle, sizing, and grid escalation for each
// configured symbol, with bounded timeouts on every broker call.
package loop

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rustyeddy/fxgrid/broker"
	"github.com/rustyeddy/fxgrid/cycle"
	"github.com/rustyeddy/fxgrid/grid"
	"github.com/rustyeddy/fxgrid/internal/id"
	"github.com/rustyeddy/fxgrid/journal"
	"github.com/rustyeddy/fxgrid/market"
	"github.com/rustyeddy/fxgrid/metrics"
	"github.com/rustyeddy/fxgrid/monitor"
	"github.com/rustyeddy/fxgrid/session"
	"github.com/rustyeddy/fxgrid/sizing"
)

// SignalSource is the out-of-scope detection layer's boundary: it
// reports whether a setup exists right now and the current market
// regime for a symbol.
type SignalSource interface {
	DetectSetup(ctx context.Context, symbol string) (sizing.Setup, bool, error)
	MarketSnapshot(ctx context.Context, symbol string) (market.Snapshot, error)
}

// Options wires a Loop together.
type Options struct {
	Broker     broker.Broker
	Signals    SignalSource
	Clock      *session.Clock
	Tracker    *cycle.Tracker
	Sizer      *sizing.Sizer
	Engines    map[string]*grid.Engine
	Journal    journal.Journal
	Thresholds monitor.Thresholds

	Interval      time.Duration
	BrokerTimeout time.Duration

	// OnSized is invoked with every non-halted sizing result; the
	// orchestrating caller decides what to do with it.
	OnSized func(symbol string, r sizing.Result)

	Verbose bool
}

type Loop struct {
	opts Options
	now  func() time.Time

	day        string // current UTC day, for cycle rollups
	lastStatus cycle.Status
}

func New(opts Options) (*Loop, error) {
	if opts.Broker == nil {
		return nil, fmt.Errorf("loop: Broker is required")
	}
	if opts.Signals == nil {
		return nil, fmt.Errorf("loop: Signals is required")
	}
	if opts.Tracker == nil || opts.Sizer == nil || opts.Clock == nil {
		return nil, fmt.Errorf("loop: Clock, Tracker and Sizer are required")
	}
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Second
	}
	if opts.BrokerTimeout <= 0 {
		opts.BrokerTimeout = 3 * time.Second
	}
	if opts.Journal == nil {
		opts.Journal = journal.Nop{}
	}
	return &Loop{opts: opts, now: time.Now}, nil
}

// SetClock overrides the time source, for tests.
func (l *Loop) SetClock(now func() time.Time) { l.now = now }

// RecordTrade attributes one closed trade to the daily cycle.
func (l *Loop) RecordTrade(profitPct, profitUSD float64) {
	l.opts.Tracker.RecordTrade(profitPct, profitUSD)
}

// Run polls until the context is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.opts.Interval)
	defer ticker.Stop()

	for {
		if err := l.Tick(ctx); err != nil {
			// A failed tick is logged and the loop keeps going; the
			// next interval gets a fresh look at the world.
			fmt.Fprintf(os.Stderr, "tick: %v\n", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick runs one full evaluation pass.
func (l *Loop) Tick(ctx context.Context) error {
	now := l.now().UTC()

	acct, err := l.getAccount(ctx)
	if err != nil {
		return fmt.Errorf("account: %w", err)
	}
	metrics.SetEquity(acct.Equity)

	l.rollCycleDay(now, acct)

	positions, err := l.getPositions(ctx, "")
	if err != nil {
		return fmt.Errorf("positions: %w", err)
	}

	state := monitor.Evaluate(positions, l.opts.Thresholds)
	metrics.SetRiskState(state)

	// The account monitor overrides everything: on breach or max
	// target the day is done for new risk.
	if state == monitor.RiskBreach || state == monitor.MaxTarget {
		reason := "breach"
		if state == monitor.MaxTarget {
			reason = "target"
		}
		metrics.DailyHalt(reason)
		l.logf("halt: account state %s (net=%.2f)", state, monitor.Net(positions))
		return nil
	}

	sess := l.opts.Clock.Resolve(now)
	status := l.opts.Tracker.Status()
	l.lastStatus = status

	for symbol, eng := range l.opts.Engines {
		if err := l.evalSymbol(ctx, symbol, eng, sess, status, acct, positions); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", symbol, err)
		}
	}
	return nil
}

func (l *Loop) evalSymbol(ctx context.Context, symbol string, eng *grid.Engine,
	sess session.Session, status cycle.Status, acct broker.Account,
	positions []market.Position) error {

	now := l.now().UTC()

	// Feed the band computation from the live tick; each poll acts as
	// one pseudo-candle at mid.
	tick, err := l.getTick(ctx, symbol)
	if err == nil {
		mid := tick.Mid()
		eng.OnCandle(market.Candle{Time: tick.Time, Open: mid, High: mid, Low: mid, Close: mid})
	}

	pos := findPosition(positions, symbol)

	dec, gridErr := eng.Evaluate(ctx, pos, acct)
	if gridErr != nil {
		metrics.Order("rejected")
		l.logf("%s grid: %v checklist: %s", symbol, gridErr, eng.Checklist())
	}
	if dec.OpenLevel {
		metrics.Order("filled")
		metrics.GridLevel(symbol)
		l.logf("%s grid level: %s %.2f lots ticket=%s", symbol, dec.Side, dec.Lot, dec.Ticket)
		if err := l.opts.Journal.RecordGridLevel(journal.GridLevelRecord{
			ID:         id.New(),
			Time:       now,
			Symbol:     symbol,
			Side:       dec.Side.String(),
			Lot:        dec.Lot,
			EntryPrice: lastEntry(eng),
			Ticket:     dec.Ticket,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "journal grid level: %v\n", err)
		}
	}

	// New entries are gated by the daily cycle; closes never are.
	if !status.CanTrade {
		metrics.Decision("skipped")
		return gridErr
	}

	setup, found, err := l.opts.Signals.DetectSetup(ctx, symbol)
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}
	if !found {
		return gridErr
	}

	snap, err := l.opts.Signals.MarketSnapshot(ctx, symbol)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	result := l.opts.Sizer.Size(setup, sess, status, acct, snap)

	outcome := "sized"
	if result.Emergency {
		outcome = "emergency"
	}
	metrics.Decision(outcome)
	l.logf("%s %s %s: %.2f lots risk=%.2f (%.2f%%) sl=%.0fp x%.2f",
		symbol, setup.Quality, sess.Name, result.PositionSize,
		result.RiskAmount, result.RiskPercentage, result.StopLossPips,
		result.Multipliers.Total)

	if err := l.opts.Journal.RecordDecision(journal.DecisionRecord{
		ID:              id.New(),
		Time:            now,
		Symbol:          symbol,
		Quality:         setup.Quality.String(),
		Session:         sess.Name.String(),
		Outcome:         outcome,
		PositionSize:    result.PositionSize,
		RiskAmount:      result.RiskAmount,
		RiskPct:         result.RiskPercentage,
		StopLossPips:    result.StopLossPips,
		TotalMultiplier: result.Multipliers.Total,
		Emergency:       result.Emergency,
		Checklist:       eng.Checklist().String(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "journal decision: %v\n", err)
	}

	if l.opts.OnSized != nil {
		l.opts.OnSized(symbol, result)
	}
	return gridErr
}

// rollCycleDay records the finished day's rollup and resets the
// tracker's equity snapshot when the UTC date changes.
func (l *Loop) rollCycleDay(now time.Time, acct broker.Account) {
	day := now.Format("2006-01-02")
	if l.day == "" {
		l.day = day
		return
	}
	if day == l.day {
		return
	}

	// lastStatus was captured before the tracker reset itself at the
	// day boundary, so the rollup reflects the finished day.
	st := l.lastStatus
	if err := l.opts.Journal.RecordCycle(journal.CycleRecord{
		Day:            l.day,
		Trades:         st.TradesExecuted,
		PnLPct:         st.DailyPnLPercent,
		PnLUSD:         st.DailyPnLUSD,
		StartingEquity: l.opts.Tracker.StartingEquity(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "journal cycle: %v\n", err)
	}

	// Only the utc-day mode resets at the date boundary; a rolling
	// cycle keeps its own 24h anchor and must survive midnight.
	if l.opts.Tracker.Mode() == cycle.ResetUTCDay {
		l.opts.Tracker.Reset(acct.Equity)
	}
	l.day = day
}

func (l *Loop) getAccount(ctx context.Context) (broker.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.BrokerTimeout)
	defer cancel()
	return l.opts.Broker.GetAccount(ctx)
}

func (l *Loop) getPositions(ctx context.Context, symbol string) ([]market.Position, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.BrokerTimeout)
	defer cancel()
	return l.opts.Broker.GetOpenPositions(ctx, symbol)
}

func (l *Loop) getTick(ctx context.Context, symbol string) (market.Tick, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.BrokerTimeout)
	defer cancel()
	return l.opts.Broker.GetTick(ctx, symbol)
}

func (l *Loop) logf(format string, args ...any) {
	if l.opts.Verbose {
		fmt.Printf("%s "+format+"\n", append([]any{l.now().UTC().Format(time.RFC3339)}, args...)...)
	}
}

func findPosition(positions []market.Position, symbol string) *market.Position {
	for i := range positions {
		if positions[i].Symbol == symbol {
			return &positions[i]
		}
	}
	return nil
}

func lastEntry(eng *grid.Engine) float64 {
	levels := eng.Levels()
	if len(levels) == 0 {
		return 0
	}
	return levels[len(levels)-1].EntryPrice
}
