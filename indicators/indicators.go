// Package indicators provides streaming technical indicators consumed
// by the grid engine. They are deterministic and safe to use in live,
// replay, and simulated runs.
package indicators

import "github.com/rustyeddy/fxgrid/market"

// Indicator computes a single streaming value from closed candles.
type Indicator interface {
	// Name returns a stable identifier like "SMA(20)" or "BB(20,2.0)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* candle.
	Update(c market.Candle)

	// Ready reports whether the value is meaningful (warmup completed).
	Ready() bool
}
