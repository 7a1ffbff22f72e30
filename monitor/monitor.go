// Package monitor classifies overall account exposure from a snapshot
// of open positions. It holds no state; every call evaluates fresh.
package monitor

import (
	"fmt"
	"math"

	"github.com/rustyeddy/fxgrid/market"
)

// State is the coarse account risk classification.
type State int

const (
	OK State = iota
	PartialTarget
	MaxTarget
	RiskBreach
)

func (s State) String() string {
	switch s {
	case OK:
		return "OK"
	case PartialTarget:
		return "PARTIAL_TARGET"
	case MaxTarget:
		return "MAX_TARGET"
	case RiskBreach:
		return "RISK_BREACH"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Thresholds are the static limits Evaluate classifies against.
// RiskPercent scales PartialTarget into a loss floor: the breach
// threshold is |PartialTarget * RiskPercent / 100| below zero.
type Thresholds struct {
	PartialTarget float64 `json:"partial_target" yaml:"partial_target"`
	MaxTarget     float64 `json:"max_target" yaml:"max_target"`
	RiskPercent   float64 `json:"risk_percent" yaml:"risk_percent"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{PartialTarget: 300, MaxTarget: 600, RiskPercent: 70}
}

// Net sums profit minus commission across positions. No positions
// means net zero.
func Net(positions []market.Position) float64 {
	net := 0.0
	for _, p := range positions {
		net += p.Profit - p.Commission
	}
	return net
}

// Evaluate classifies the account. Comparisons are non-strict: hitting
// a threshold exactly triggers the state.
func Evaluate(positions []market.Position, th Thresholds) State {
	net := Net(positions)

	switch {
	case net >= th.MaxTarget:
		return MaxTarget
	case net >= th.PartialTarget:
		return PartialTarget
	case net <= -math.Abs(th.PartialTarget*th.RiskPercent/100):
		return RiskBreach
	default:
		return OK
	}
}
