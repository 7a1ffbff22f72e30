// Package sim is a deterministic in-memory broker used by tests and
// the demo run mode. Order outcomes can be scripted to exercise the
// caller's retry handling.
package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/rustyeddy/fxgrid/broker"
	"github.com/rustyeddy/fxgrid/internal/id"
	"github.com/rustyeddy/fxgrid/market"
)

type Engine struct {
	mu        sync.Mutex
	acct      broker.Account
	ticks     *market.TickStore
	positions map[string][]market.Position

	scripted []broker.Retcode // consumed one per SendMarketOrder
	sent     []broker.OrderRequest
}

func NewEngine(acct broker.Account) *Engine {
	return &Engine{
		acct:      acct,
		ticks:     market.NewTickStore(),
		positions: make(map[string][]market.Position),
	}
}

func (e *Engine) SetAccount(acct broker.Account) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.acct = acct
}

func (e *Engine) SetTick(t market.Tick) {
	e.ticks.Set(t)
}

func (e *Engine) SetPositions(symbol string, ps []market.Position) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.positions[symbol] = ps
}

// ScriptRetcodes queues order outcomes; once drained, orders fill.
func (e *Engine) ScriptRetcodes(codes ...broker.Retcode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scripted = append(e.scripted, codes...)
}

// SentOrders returns every order request received, in order.
func (e *Engine) SentOrders() []broker.OrderRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]broker.OrderRequest, len(e.sent))
	copy(out, e.sent)
	return out
}

func (e *Engine) GetTick(ctx context.Context, symbol string) (market.Tick, error) {
	if err := ctx.Err(); err != nil {
		return market.Tick{}, err
	}
	return e.ticks.Get(symbol)
}

func (e *Engine) GetOpenPositions(ctx context.Context, symbol string) ([]market.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if symbol != "" {
		ps := e.positions[symbol]
		out := make([]market.Position, len(ps))
		copy(out, ps)
		return out, nil
	}
	var out []market.Position
	for _, ps := range e.positions {
		out = append(out, ps...)
	}
	return out, nil
}

func (e *Engine) GetAccount(ctx context.Context) (broker.Account, error) {
	if err := ctx.Err(); err != nil {
		return broker.Account{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.acct, nil
}

func (e *Engine) SendMarketOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderResult, error) {
	if err := ctx.Err(); err != nil {
		return broker.OrderResult{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sent = append(e.sent, req)

	code := broker.RetcodeDone
	if len(e.scripted) > 0 {
		code = e.scripted[0]
		e.scripted = e.scripted[1:]
	}
	if code != broker.RetcodeDone {
		return broker.OrderResult{
			Retcode: code,
			Comment: fmt.Sprintf("scripted %s", code),
		}, nil
	}

	tick, err := e.ticks.Get(req.Symbol)
	if err != nil {
		return broker.OrderResult{Retcode: broker.RetcodeRejected, Comment: "no price"}, nil
	}
	fill := tick.Ask
	if req.Side == market.Sell {
		fill = tick.Bid
	}

	return broker.OrderResult{
		Retcode:   broker.RetcodeDone,
		Ticket:    id.New(),
		FillPrice: fill,
		Comment:   "filled",
	}, nil
}
