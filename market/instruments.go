package market

import "math"

type InstrumentMeta struct {
	Name          string
	BaseCurrency  string
	QuoteCurrency string
	PipLocation   int
	MinLot        float64
	LotStep       float64
}

var Instruments = map[string]InstrumentMeta{
	"EUR_USD": {
		Name:          "EUR_USD",
		BaseCurrency:  "EUR",
		QuoteCurrency: "USD",
		PipLocation:   -4,
		MinLot:        0.01,
		LotStep:       0.01,
	},
	"GBP_USD": {
		Name:          "GBP_USD",
		BaseCurrency:  "GBP",
		QuoteCurrency: "USD",
		PipLocation:   -4,
		MinLot:        0.01,
		LotStep:       0.01,
	},
	"USD_JPY": {
		Name:          "USD_JPY",
		BaseCurrency:  "USD",
		QuoteCurrency: "JPY",
		PipLocation:   -2,
		MinLot:        0.01,
		LotStep:       0.01,
	},
}

// PipSize returns the price increment of one pip for a pip location,
// e.g. -4 -> 0.0001 for EUR_USD, -2 -> 0.01 for USD_JPY.
func PipSize(loc int) float64 {
	return math.Pow(10, float64(loc))
}
