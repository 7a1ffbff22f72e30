// Package sizing turns a detected setup plus session, cycle, and market
// context into a clamped lot size and risk figure. Size never fails:
// bad inputs degrade to a minimal emergency result so the trading loop
// keeps running.
package sizing

import (
	"math"

	"github.com/rustyeddy/fxgrid/broker"
	"github.com/rustyeddy/fxgrid/cycle"
	"github.com/rustyeddy/fxgrid/market"
	"github.com/rustyeddy/fxgrid/session"
)

// Quality is the categorical confidence score the detection layer
// assigns to a setup.
type Quality int

const (
	Premium Quality = iota
	High
	Medium
	Low
	Poor
)

func (q Quality) String() string {
	switch q {
	case Premium:
		return "PREMIUM"
	case High:
		return "HIGH"
	case Medium:
		return "MEDIUM"
	case Low:
		return "LOW"
	case Poor:
		return "POOR"
	}
	return "UNKNOWN"
}

// Setup describes one detected trading opportunity.
type Setup struct {
	Quality  Quality
	SizePips float64
}

// QualityMultipliers scales risk by setup confidence.
type QualityMultipliers struct {
	Premium float64 `json:"premium" yaml:"premium"`
	High    float64 `json:"high" yaml:"high"`
	Medium  float64 `json:"medium" yaml:"medium"`
	Low     float64 `json:"low" yaml:"low"`
	Poor    float64 `json:"poor" yaml:"poor"`
}

// VolatilityMultipliers scales risk down as volatility regime rises.
type VolatilityMultipliers struct {
	Low     float64 `json:"low" yaml:"low"`
	Normal  float64 `json:"normal" yaml:"normal"`
	High    float64 `json:"high" yaml:"high"`
	Extreme float64 `json:"extreme" yaml:"extreme"`
}

// CycleRules drives the cycle multiplier priority chain.
type CycleRules struct {
	NearTargetPct        float64 `json:"near_target_pct" yaml:"near_target_pct"`   // 2.4
	NearLimitPct         float64 `json:"near_limit_pct" yaml:"near_limit_pct"`     // -1.6
	NearTargetMultiplier float64 `json:"near_target_mult" yaml:"near_target_mult"` // 0.7
	NearLimitMultiplier  float64 `json:"near_limit_mult" yaml:"near_limit_mult"`   // 0.5
	LateCycleMultiplier  float64 `json:"late_cycle_mult" yaml:"late_cycle_mult"`   // 0.8
	LateCycleTrades      int     `json:"late_cycle_trades" yaml:"late_cycle_trades"`
}

type Config struct {
	BaseRiskPct float64 `json:"base_risk_pct" yaml:"base_risk_pct"` // 1.0 (% of equity)
	MaxRiskPct  float64 `json:"max_risk_pct" yaml:"max_risk_pct"`   // 2.5 ceiling

	MinLot float64 `json:"min_lot" yaml:"min_lot"` // 0.01
	MaxLot float64 `json:"max_lot" yaml:"max_lot"` // 2.0

	StopFactor  float64 `json:"stop_factor" yaml:"stop_factor"`     // 1.5 x setup size
	MinStopPips float64 `json:"min_stop_pips" yaml:"min_stop_pips"` // 15
	MaxStopPips float64 `json:"max_stop_pips" yaml:"max_stop_pips"` // 50

	// Extra caution once the cycle has used most of its trade budget.
	LateCycleDampening float64 `json:"late_cycle_dampening" yaml:"late_cycle_dampening"` // 0.8

	EmergencyRiskPct  float64 `json:"emergency_risk_pct" yaml:"emergency_risk_pct"`   // 0.5
	EmergencyStopPips float64 `json:"emergency_stop_pips" yaml:"emergency_stop_pips"` // 20

	Quality    QualityMultipliers    `json:"quality" yaml:"quality"`
	Volatility VolatilityMultipliers `json:"volatility" yaml:"volatility"`
	Cycle      CycleRules            `json:"cycle" yaml:"cycle"`
}

func DefaultConfig() Config {
	return Config{
		BaseRiskPct:        1.0,
		MaxRiskPct:         2.5,
		MinLot:             0.01,
		MaxLot:             2.0,
		StopFactor:         1.5,
		MinStopPips:        15,
		MaxStopPips:        50,
		LateCycleDampening: 0.8,
		EmergencyRiskPct:   0.5,
		EmergencyStopPips:  20,
		Quality: QualityMultipliers{
			Premium: 1.5, High: 1.2, Medium: 1.0, Low: 0.7, Poor: 0.5,
		},
		Volatility: VolatilityMultipliers{
			Low: 1.2, Normal: 1.0, High: 0.8, Extreme: 0.6,
		},
		Cycle: CycleRules{
			NearTargetPct:        2.4,
			NearLimitPct:         -1.6,
			NearTargetMultiplier: 0.7,
			NearLimitMultiplier:  0.5,
			LateCycleMultiplier:  0.8,
			LateCycleTrades:      2,
		},
	}
}

// Multipliers records each factor that went into a sizing decision.
type Multipliers struct {
	Quality    float64
	Session    float64
	Cycle      float64
	Volatility float64
	Total      float64
}

// Result is one sizing decision. Emergency marks the degraded path.
type Result struct {
	PositionSize     float64 // lots, clamped and rounded
	RiskAmount       float64 // account currency
	RiskPercentage   float64
	StopLossPips     float64
	ExpectedSLAmount float64 // loss if the stop is hit at this size
	Multipliers      Multipliers
	Emergency        bool
}

type Sizer struct {
	cfg Config
}

func NewSizer(cfg Config) *Sizer {
	return &Sizer{cfg: cfg}
}

// Size computes the lot size for one setup. It is pure and never
// returns an error: any invalid input yields the emergency result.
func (s *Sizer) Size(setup Setup, sess session.Session, cy cycle.Status, acct broker.Account, mkt market.Snapshot) Result {
	cfg := s.cfg

	if acct.Equity <= 0 || setup.SizePips <= 0 || mkt.PipValue <= 0 {
		return s.emergency(acct.Equity)
	}

	qm, ok := qualityMultiplier(cfg.Quality, setup.Quality)
	if !ok {
		return s.emergency(acct.Equity)
	}
	vm, ok := volatilityMultiplier(cfg.Volatility, mkt.Volatility)
	if !ok {
		return s.emergency(acct.Equity)
	}
	sm := sess.RiskMultiplier
	if sm <= 0 {
		return s.emergency(acct.Equity)
	}
	cm := cfg.Cycle.multiplier(cy)

	total := qm * sm * cm * vm

	baseRisk := acct.Equity * cfg.BaseRiskPct / 100
	adjustedRisk := baseRisk * total

	// Hard ceiling on risked equity regardless of how the factors stack.
	if maxRisk := acct.Equity * cfg.MaxRiskPct / 100; adjustedRisk > maxRisk {
		adjustedRisk = maxRisk
	}

	stopPips := clamp(setup.SizePips*cfg.StopFactor, cfg.MinStopPips, cfg.MaxStopPips)

	lots := adjustedRisk / (stopPips * mkt.PipValue)
	if math.IsNaN(lots) || math.IsInf(lots, 0) {
		return s.emergency(acct.Equity)
	}
	lots = clamp(lots, cfg.MinLot, cfg.MaxLot)

	// Late in the cycle the clamped size is dampened once more, then
	// held at the floor.
	if cy.TradesExecuted >= cfg.Cycle.LateCycleTrades {
		lots *= cfg.LateCycleDampening
		if lots < cfg.MinLot {
			lots = cfg.MinLot
		}
	}

	lots = round2(lots)

	return Result{
		PositionSize:     lots,
		RiskAmount:       adjustedRisk,
		RiskPercentage:   adjustedRisk / acct.Equity * 100,
		StopLossPips:     stopPips,
		ExpectedSLAmount: lots * stopPips * mkt.PipValue,
		Multipliers: Multipliers{
			Quality:    qm,
			Session:    sm,
			Cycle:      cm,
			Volatility: vm,
			Total:      total,
		},
	}
}

// emergency is the total fallback: minimal size, half-percent nominal
// risk, flat multipliers. Valid even at zero equity.
func (s *Sizer) emergency(equity float64) Result {
	if equity < 0 || math.IsNaN(equity) || math.IsInf(equity, 0) {
		equity = 0
	}
	riskAmount := equity * s.cfg.EmergencyRiskPct / 100
	riskPct := 0.0
	if equity > 0 {
		riskPct = riskAmount / equity * 100
	}
	return Result{
		PositionSize:   s.cfg.MinLot,
		RiskAmount:     riskAmount,
		RiskPercentage: riskPct,
		StopLossPips:   s.cfg.EmergencyStopPips,
		Multipliers: Multipliers{
			Quality: 1.0, Session: 1.0, Cycle: 1.0, Volatility: 1.0, Total: 1.0,
		},
		Emergency: true,
	}
}

// multiplier walks the cycle priority chain; first match wins.
func (r CycleRules) multiplier(cy cycle.Status) float64 {
	switch {
	case cy.TradesExecuted == 0:
		return 1.0
	case cy.DailyPnLPercent > r.NearTargetPct:
		return r.NearTargetMultiplier
	case cy.DailyPnLPercent < r.NearLimitPct:
		return r.NearLimitMultiplier
	case cy.TradesExecuted >= r.LateCycleTrades:
		return r.LateCycleMultiplier
	default:
		return 1.0
	}
}

func qualityMultiplier(m QualityMultipliers, q Quality) (float64, bool) {
	var v float64
	switch q {
	case Premium:
		v = m.Premium
	case High:
		v = m.High
	case Medium:
		v = m.Medium
	case Low:
		v = m.Low
	case Poor:
		v = m.Poor
	default:
		return 0, false
	}
	return v, v > 0
}

func volatilityMultiplier(m VolatilityMultipliers, v market.Volatility) (float64, bool) {
	var f float64
	switch v {
	case market.VolLow:
		f = m.Low
	case market.VolNormal:
		f = m.Normal
	case market.VolHigh:
		f = m.High
	case market.VolExtreme:
		f = m.Extreme
	default:
		return 0, false
	}
	return f, f > 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
