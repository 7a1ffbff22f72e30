// Package metrics exposes the engine's Prometheus metrics:
//
//	fxgrid_decisions_total{outcome}    – sizing decisions by outcome (sized|skipped|emergency)
//	fxgrid_orders_total{result}        – grid orders by result (filled|rejected)
//	fxgrid_grid_levels_total{symbol}   – grid levels added per symbol
//	fxgrid_daily_halts_total{reason}   – daily halts by reason (target|limit|breach)
//	fxgrid_equity                      – current equity snapshot (gauge)
//	fxgrid_account_risk_state          – monitor state (0=OK 1=PARTIAL 2=MAX 3=BREACH)
//
// Registered in init() and served by the HTTP handler the run command
// starts at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rustyeddy/fxgrid/monitor"
)

var (
	decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxgrid_decisions_total",
			Help: "Sizing decisions by outcome",
		},
		[]string{"outcome"},
	)

	orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxgrid_orders_total",
			Help: "Grid escalation orders by result",
		},
		[]string{"result"},
	)

	gridLevels = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxgrid_grid_levels_total",
			Help: "Grid levels added",
		},
		[]string{"symbol"},
	)

	dailyHalts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fxgrid_daily_halts_total",
			Help: "Trading halts by reason",
		},
		[]string{"reason"},
	)

	equity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fxgrid_equity",
			Help: "Equity in account currency",
		},
	)

	riskState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fxgrid_account_risk_state",
			Help: "Account risk state (0=OK 1=PARTIAL_TARGET 2=MAX_TARGET 3=RISK_BREACH)",
		},
	)
)

func init() {
	prometheus.MustRegister(decisions, orders, gridLevels, dailyHalts, equity, riskState)
}

func Decision(outcome string) { decisions.WithLabelValues(outcome).Inc() }

func Order(result string) { orders.WithLabelValues(result).Inc() }

func GridLevel(symbol string) { gridLevels.WithLabelValues(symbol).Inc() }

func DailyHalt(reason string) { dailyHalts.WithLabelValues(reason).Inc() }

func SetEquity(v float64) { equity.Set(v) }

func SetRiskState(s monitor.State) { riskState.Set(float64(s)) }

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
