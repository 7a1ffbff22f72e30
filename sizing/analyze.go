package sizing

import (
	"fmt"
	"math"
)

// Insight is a read-only diagnostic view over a sizing result. Nothing
// here feeds back into sizing; it exists for operators and the journal.
type Insight struct {
	SizeCategory      string
	RiskLevel         string
	DominantFactor    string
	OptimizationScore float64 // 0..100, how close the result sits to a "clean" 1.0-multiplier decision
	Recommendations   []string
}

// Analyze categorizes a sizing result and flags the factor that moved
// it furthest from neutral.
func (s *Sizer) Analyze(r Result) Insight {
	in := Insight{
		SizeCategory:   sizeCategory(r.PositionSize, s.cfg),
		RiskLevel:      riskLevel(r.RiskPercentage, s.cfg),
		DominantFactor: dominantFactor(r.Multipliers),
	}

	// Score starts perfect and loses points for deviation from neutral
	// sizing and for nearing the risk ceiling.
	score := 100.0
	score -= math.Abs(r.Multipliers.Total-1.0) * 20
	if s.cfg.MaxRiskPct > 0 {
		score -= (r.RiskPercentage / s.cfg.MaxRiskPct) * 25
	}
	if r.Emergency {
		score = 0
	}
	in.OptimizationScore = clamp(score, 0, 100)

	if r.Emergency {
		in.Recommendations = append(in.Recommendations,
			"emergency sizing active: inputs were invalid or equity unavailable")
	}
	if r.RiskPercentage >= s.cfg.MaxRiskPct*0.9 {
		in.Recommendations = append(in.Recommendations,
			fmt.Sprintf("risk %.2f%% is within 10%% of the %.2f%% ceiling", r.RiskPercentage, s.cfg.MaxRiskPct))
	}
	if r.Multipliers.Total >= 1.8 {
		in.Recommendations = append(in.Recommendations,
			fmt.Sprintf("stacked multipliers (%.2fx) are aggressive; consider reducing base risk", r.Multipliers.Total))
	}
	if r.PositionSize <= s.cfg.MinLot {
		in.Recommendations = append(in.Recommendations,
			"position pinned at minimum lot; signal quality or conditions are poor")
	}
	if r.PositionSize >= s.cfg.MaxLot {
		in.Recommendations = append(in.Recommendations,
			"position clamped at maximum lot; sizing ceiling reached")
	}

	return in
}

func sizeCategory(lots float64, cfg Config) string {
	span := cfg.MaxLot - cfg.MinLot
	if span <= 0 {
		return "minimal"
	}
	switch frac := (lots - cfg.MinLot) / span; {
	case frac <= 0.05:
		return "minimal"
	case frac <= 0.25:
		return "small"
	case frac <= 0.6:
		return "standard"
	default:
		return "large"
	}
}

func riskLevel(pct float64, cfg Config) string {
	switch {
	case pct < cfg.BaseRiskPct*0.75:
		return "conservative"
	case pct <= cfg.BaseRiskPct*1.5:
		return "moderate"
	case pct <= cfg.MaxRiskPct:
		return "aggressive"
	default:
		return "excessive"
	}
}

// dominantFactor names the multiplier furthest from 1.0.
func dominantFactor(m Multipliers) string {
	factors := []struct {
		name string
		v    float64
	}{
		{"quality", m.Quality},
		{"session", m.Session},
		{"cycle", m.Cycle},
		{"volatility", m.Volatility},
	}

	best := "none"
	bestDev := 0.0
	for _, f := range factors {
		if dev := math.Abs(f.v - 1.0); dev > bestDev {
			bestDev = dev
			best = f.name
		}
	}
	return best
}
