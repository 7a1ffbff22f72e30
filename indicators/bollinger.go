package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/fxgrid/market"
)

// Bands is one Bollinger band snapshot.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Width is the upper-lower band distance, the grid engine's measure of
// whether the market is alive enough to escalate into.
func (b Bands) Width() float64 {
	return b.Upper - b.Lower
}

// Bollinger is a streaming Bollinger band indicator: an SMA middle band
// with upper/lower bands k standard deviations away.
type Bollinger struct {
	period int
	k      float64
	closes []float64
}

func NewBollinger(period int, k float64) *Bollinger {
	return &Bollinger{
		period: period,
		k:      k,
		closes: make([]float64, 0, period),
	}
}

func (b *Bollinger) Name() string {
	return fmt.Sprintf("BB(%d,%.1f)", b.period, b.k)
}

func (b *Bollinger) Warmup() int {
	return b.period
}

func (b *Bollinger) Reset() {
	b.closes = b.closes[:0]
}

func (b *Bollinger) Update(c market.Candle) {
	b.closes = append(b.closes, c.Close)
	if len(b.closes) > b.period {
		b.closes = b.closes[1:]
	}
}

func (b *Bollinger) Ready() bool {
	return len(b.closes) >= b.period
}

// Value returns the current band snapshot. Callers should check Ready().
func (b *Bollinger) Value() Bands {
	if !b.Ready() {
		return Bands{}
	}

	n := float64(len(b.closes))
	mean := 0.0
	for _, c := range b.closes {
		mean += c
	}
	mean /= n

	variance := 0.0
	for _, c := range b.closes {
		d := c - mean
		variance += d * d
	}
	sd := math.Sqrt(variance / n)

	return Bands{
		Upper:  mean + b.k*sd,
		Middle: mean,
		Lower:  mean - b.k*sd,
	}
}
