// Package journal persists the engine's decisions for later review:
// every sizing decision, every grid level placed, and the daily cycle
// rollup. The decision core never reads the journal back.
package journal

import "time"

// DecisionRecord is one sizing decision as it was made.
type DecisionRecord struct {
	ID              string
	Time            time.Time
	Symbol          string
	Quality         string
	Session         string
	Outcome         string // sized | skipped | emergency
	PositionSize    float64
	RiskAmount      float64
	RiskPct         float64
	StopLossPips    float64
	TotalMultiplier float64
	Emergency       bool
	Checklist       string // rendered gate checklist, logging only
}

// GridLevelRecord is one filled escalation level.
type GridLevelRecord struct {
	ID         string
	Time       time.Time
	Symbol     string
	Side       string
	Lot        float64
	EntryPrice float64
	Ticket     string
}

// CycleRecord is the end-of-day cycle rollup.
type CycleRecord struct {
	Day            string // YYYY-MM-DD
	Trades         int
	PnLPct         float64
	PnLUSD         float64
	StartingEquity float64
}

type Journal interface {
	RecordDecision(DecisionRecord) error
	RecordGridLevel(GridLevelRecord) error
	RecordCycle(CycleRecord) error
	Close() error
}

// Nop discards everything; used when journaling is disabled.
type Nop struct{}

func (Nop) RecordDecision(DecisionRecord) error   { return nil }
func (Nop) RecordGridLevel(GridLevelRecord) error { return nil }
func (Nop) RecordCycle(CycleRecord) error         { return nil }
func (Nop) Close() error                          { return nil }
