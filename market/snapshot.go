package market

import "fmt"

// Volatility is a coarse market volatility regime.
type Volatility int

const (
	VolLow Volatility = iota
	VolNormal
	VolHigh
	VolExtreme
)

func (v Volatility) String() string {
	switch v {
	case VolLow:
		return "LOW"
	case VolNormal:
		return "NORMAL"
	case VolHigh:
		return "HIGH"
	case VolExtreme:
		return "EXTREME"
	}
	return fmt.Sprintf("Volatility(%d)", int(v))
}

// Snapshot is the per-decision view of market conditions consumed by
// the sizer. PipValue is the account-currency value of one pip per lot.
type Snapshot struct {
	Volatility Volatility
	PipValue   float64
}

