package market

import "time"

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "SELL"
	}
	return "BUY"
}

// Position is an open trade as reported by the broker.
type Position struct {
	Ticket     string
	Symbol     string
	Side       Side
	Lots       float64
	OpenPrice  float64
	OpenTime   time.Time
	Profit     float64
	Swap       float64
	Commission float64
}

// NetPL is profit plus swap minus commission, the figure grid
// escalation and the account monitor gate on.
func (p Position) NetPL() float64 {
	return p.Profit + p.Swap - p.Commission
}
