// Package broker defines the narrow port the decision engine uses to
// talk to a trading venue. The core never depends on a concrete broker
// library; adapters implement this interface.
package broker

import (
	"context"

	"github.com/rustyeddy/fxgrid/market"
)

type Broker interface {
	GetTick(ctx context.Context, symbol string) (market.Tick, error)
	GetOpenPositions(ctx context.Context, symbol string) ([]market.Position, error)
	GetAccount(ctx context.Context) (Account, error)
	SendMarketOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
}

// Account is the per-decision snapshot of account state.
type Account struct {
	ID           string
	Currency     string
	Equity       float64
	Balance      float64
	FreeMargin   float64
	MarginPerLot float64
}

type OrderRequest struct {
	Symbol  string
	Side    market.Side
	Lots    float64
	Price   float64 // best price at send time; venue may fill at market
	Comment string
}

// Retcode mirrors the venue's order return status.
type Retcode int

const (
	RetcodeDone Retcode = iota
	RetcodeRequote
	RetcodeRejected
	RetcodeTimeout
)

func (r Retcode) String() string {
	switch r {
	case RetcodeDone:
		return "DONE"
	case RetcodeRequote:
		return "REQUOTE"
	case RetcodeRejected:
		return "REJECTED"
	case RetcodeTimeout:
		return "TIMEOUT"
	}
	return "UNKNOWN"
}

type OrderResult struct {
	Retcode   Retcode
	Ticket    string
	FillPrice float64
	Comment   string
}

// OK reports whether the order was accepted and filled.
func (r OrderResult) OK() bool { return r.Retcode == RetcodeDone }
