// Package grid watches one open position per symbol and decides when a
// new averaging-down level may be added. Escalation only ever compounds
// a losing position and only when volatility, distance, spread, and
// band-touch gates all agree.
package grid

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/fxgrid/broker"
	"github.com/rustyeddy/fxgrid/indicators"
	"github.com/rustyeddy/fxgrid/market"
)

type State int

const (
	Idle State = iota
	Watching
	Evaluating
	OrderSent
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Watching:
		return "WATCHING"
	case Evaluating:
		return "EVALUATING"
	case OrderSent:
		return "ORDER_SENT"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Timeframe int

const (
	M5 Timeframe = iota
	M15
	H1
)

func (tf Timeframe) String() string {
	switch tf {
	case M5:
		return "M5"
	case M15:
		return "M15"
	case H1:
		return "H1"
	}
	return fmt.Sprintf("Timeframe(%d)", int(tf))
}

// TimeframeRule carries the per-timeframe escalation minimums: slower
// timeframes demand more distance and wider bands before adding risk.
type TimeframeRule struct {
	MinDistancePips float64 `json:"min_distance_pips" yaml:"min_distance_pips"`
	MinBandwidth    float64 `json:"min_bandwidth" yaml:"min_bandwidth"`
}

type Config struct {
	M5  TimeframeRule `json:"m5" yaml:"m5"`
	M15 TimeframeRule `json:"m15" yaml:"m15"`
	H1  TimeframeRule `json:"h1" yaml:"h1"`

	MaxSpreadPips     float64 `json:"max_spread_pips" yaml:"max_spread_pips"`
	BandTolerancePips float64 `json:"band_tolerance_pips" yaml:"band_tolerance_pips"`

	LotIncrement       float64 `json:"lot_increment" yaml:"lot_increment"`
	LargeAccountEquity float64 `json:"large_account_equity" yaml:"large_account_equity"`
	MinLot             float64 `json:"min_lot" yaml:"min_lot"`

	BollingerPeriod int     `json:"bollinger_period" yaml:"bollinger_period"`
	BollingerStdDev float64 `json:"bollinger_stddev" yaml:"bollinger_stddev"`
}

func DefaultConfig() Config {
	return Config{
		M5:                 TimeframeRule{MinDistancePips: 5, MinBandwidth: 0.0008},
		M15:                TimeframeRule{MinDistancePips: 15, MinBandwidth: 0.0012},
		H1:                 TimeframeRule{MinDistancePips: 20, MinBandwidth: 0.0015},
		MaxSpreadPips:      3.0,
		BandTolerancePips:  2.0,
		LotIncrement:       0.1,
		LargeAccountEquity: 50000,
		MinLot:             0.01,
		BollingerPeriod:    20,
		BollingerStdDev:    2.0,
	}
}

func (c Config) rule(tf Timeframe) TimeframeRule {
	switch tf {
	case M15:
		return c.M15
	case H1:
		return c.H1
	default:
		return c.M5
	}
}

// Level is one filled grid rung.
type Level struct {
	Side       market.Side
	EntryPrice float64
	Lot        float64
	OpenedAt   time.Time
}

// Decision is what an evaluation tick produced for the caller.
type Decision struct {
	OpenLevel bool
	Side      market.Side
	Lot       float64
	Ticket    string
}

// Engine is the per-symbol escalation watcher. It is not safe for
// concurrent use; run one engine per symbol.
type Engine struct {
	cfg       Config
	symbol    string
	timeframe Timeframe
	pipLoc    int

	broker broker.Broker
	bands  *indicators.Bollinger

	state      State
	levels     []Level
	initialLot float64
	checklist  Checklist
}

func NewEngine(symbol string, tf Timeframe, cfg Config, b broker.Broker) *Engine {
	meta, ok := market.Instruments[symbol]
	pipLoc := -4
	if ok {
		pipLoc = meta.PipLocation
	}
	return &Engine{
		cfg:       cfg,
		symbol:    symbol,
		timeframe: tf,
		pipLoc:    pipLoc,
		broker:    b,
		bands:     indicators.NewBollinger(cfg.BollingerPeriod, cfg.BollingerStdDev),
	}
}

func (e *Engine) Symbol() string { return e.symbol }
func (e *Engine) State() State   { return e.state }

// Levels returns a copy of the filled grid history.
func (e *Engine) Levels() []Level {
	out := make([]Level, len(e.levels))
	copy(out, e.levels)
	return out
}

// Checklist returns the gate evaluations of the most recent tick, for
// logging only; nothing downstream decides on it.
func (e *Engine) Checklist() Checklist { return e.checklist }

// OnCandle feeds a closed candle into the band computation.
func (e *Engine) OnCandle(c market.Candle) {
	e.bands.Update(c)
}

// Evaluate runs one escalation tick against the open position (nil
// slice element semantics: pass nil pos pointer when flat). It returns
// the decision taken; a zero Decision means no level was added.
func (e *Engine) Evaluate(ctx context.Context, pos *market.Position, acct broker.Account) (Decision, error) {
	e.checklist = e.checklist[:0]

	if pos == nil {
		if e.state != Idle {
			e.reset()
		}
		return Decision{}, nil
	}
	e.sync(*pos)

	if !e.bands.Ready() {
		e.check("bands_ready", false, "bollinger warmup incomplete")
		return Decision{}, nil
	}
	e.check("bands_ready", true, e.bands.Name())

	tick, err := e.broker.GetTick(ctx, e.symbol)
	if err != nil {
		e.check("tick", false, err.Error())
		return Decision{}, fmt.Errorf("grid %s: tick: %w", e.symbol, err)
	}
	e.check("tick", true, fmt.Sprintf("bid=%.5f ask=%.5f", tick.Bid, tick.Ask))

	bands := e.bands.Value()
	last := e.levels[len(e.levels)-1]

	if !e.gatesPass(*pos, last, tick, bands) {
		e.state = Watching
		return Decision{}, nil
	}
	e.state = Evaluating

	lot := e.nextLot(acct.Equity)
	return e.placeOrder(ctx, *pos, tick, lot)
}

// sync reconciles engine state with the broker's view of the position.
func (e *Engine) sync(pos market.Position) {
	if e.state == Idle || len(e.levels) == 0 {
		e.levels = append(e.levels[:0], Level{
			Side:       pos.Side,
			EntryPrice: pos.OpenPrice,
			Lot:        pos.Lots,
			OpenedAt:   pos.OpenTime,
		})
		e.initialLot = pos.Lots
		e.state = Watching
	}
}

func (e *Engine) reset() {
	e.state = Idle
	e.levels = e.levels[:0]
	e.initialLot = 0
	e.bands.Reset()
}

func (e *Engine) gatesPass(pos market.Position, last Level, tick market.Tick, bands indicators.Bands) bool {
	pip := market.PipSize(e.pipLoc)
	rule := e.cfg.rule(e.timeframe)
	price := tick.Bid
	if pos.Side == market.Sell {
		price = tick.Ask
	}

	pass := true

	netPL := pos.NetPL()
	ok := netPL < 0
	pass = e.check("losing_position", ok, fmt.Sprintf("net_pl=%.2f", netPL)) && pass

	distPips := math.Abs(price-last.EntryPrice) / pip
	ok = distPips >= rule.MinDistancePips
	pass = e.check("min_distance", ok,
		fmt.Sprintf("distance=%.1fp min=%.1fp", distPips, rule.MinDistancePips)) && pass

	ok = bands.Width() >= rule.MinBandwidth
	pass = e.check("min_bandwidth", ok,
		fmt.Sprintf("width=%.5f min=%.5f", bands.Width(), rule.MinBandwidth)) && pass

	spreadPips := tick.SpreadPips(e.pipLoc)
	ok = spreadPips <= e.cfg.MaxSpreadPips
	pass = e.check("max_spread", ok,
		fmt.Sprintf("spread=%.1fp max=%.1fp", spreadPips, e.cfg.MaxSpreadPips)) && pass

	tol := e.cfg.BandTolerancePips * pip
	var touched bool
	if pos.Side == market.Buy {
		touched = price <= bands.Lower+tol
	} else {
		touched = price >= bands.Upper-tol
	}
	pass = e.check("band_touch", touched,
		fmt.Sprintf("price=%.5f lower=%.5f upper=%.5f side=%s", price, bands.Lower, bands.Upper, pos.Side)) && pass

	return pass
}

// nextLot applies the lot progression: flat increments by default, the
// 2-term additive progression for large accounts.
func (e *Engine) nextLot(equity float64) float64 {
	last := e.levels[len(e.levels)-1].Lot

	var next float64
	if equity >= e.cfg.LargeAccountEquity && e.cfg.LargeAccountEquity > 0 {
		prev := e.initialLot
		if n := len(e.levels); n >= 2 {
			prev = e.levels[n-2].Lot
		}
		next = last + prev
	} else {
		next = last + e.cfg.LotIncrement
	}

	if next < e.cfg.MinLot {
		next = e.cfg.MinLot
	}
	return next
}

// placeOrder sends a single market order in the position's direction,
// retrying exactly once on a refreshed price if the venue rejects it.
func (e *Engine) placeOrder(ctx context.Context, pos market.Position, tick market.Tick, lot float64) (Decision, error) {
	e.state = OrderSent

	price := tick.Ask
	if pos.Side == market.Sell {
		price = tick.Bid
	}

	req := broker.OrderRequest{
		Symbol:  e.symbol,
		Side:    pos.Side,
		Lots:    lot,
		Price:   price,
		Comment: fmt.Sprintf("grid level %d", len(e.levels)+1),
	}

	res, err := e.broker.SendMarketOrder(ctx, req)
	if err == nil && res.OK() {
		return e.fill(pos, res, lot, tick.Time), nil
	}

	// One retry on a refreshed tick, never more: bounds slippage exposure.
	fresh, tickErr := e.broker.GetTick(ctx, e.symbol)
	if tickErr != nil {
		e.state = Watching
		return Decision{}, fmt.Errorf("grid %s: refresh tick for retry: %w", e.symbol, tickErr)
	}
	req.Price = fresh.Ask
	if pos.Side == market.Sell {
		req.Price = fresh.Bid
	}

	res, err = e.broker.SendMarketOrder(ctx, req)
	if err != nil {
		e.state = Watching
		return Decision{}, fmt.Errorf("grid %s: order retry: %w", e.symbol, err)
	}
	if !res.OK() {
		e.state = Watching
		return Decision{}, fmt.Errorf("grid %s: order rejected after retry: %s (%s)",
			e.symbol, res.Retcode, res.Comment)
	}
	return e.fill(pos, res, lot, fresh.Time), nil
}

func (e *Engine) fill(pos market.Position, res broker.OrderResult, lot float64, at time.Time) Decision {
	e.levels = append(e.levels, Level{
		Side:       pos.Side,
		EntryPrice: res.FillPrice,
		Lot:        lot,
		OpenedAt:   at,
	})
	e.state = Watching
	return Decision{OpenLevel: true, Side: pos.Side, Lot: lot, Ticket: res.Ticket}
}
