package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fxgrid/cycle"
	"github.com/rustyeddy/fxgrid/grid"
	"github.com/rustyeddy/fxgrid/session"
)

func TestDefaultValidates(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Default().Validate())
}

func TestSaveAndLoadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fxgrid.yaml")
	cfg := Default()
	cfg.Cycle.Reset = "rolling-24h"
	require.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "EUR_USD", got.Symbols[0].Symbol)
	assert.InDelta(t, 1.0, got.Sizing.BaseRiskPct, 1e-9)
	assert.InDelta(t, 1.5, got.Sizing.Quality.Premium, 1e-9)

	limits, err := got.Cycle.Limits()
	require.NoError(t, err)
	assert.Equal(t, cycle.ResetRolling24h, limits.Reset)
}

func TestSaveAndLoadJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fxgrid.json")
	require.NoError(t, Default().SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, got.Sizing.MaxRiskPct, 1e-9)
	assert.InDelta(t, 3.0, got.Grid.MaxSpreadPips, 1e-9)
}

func TestLoadRejectsGarbage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{{not config"), 0644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestValidateFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no_currency", func(c *Config) { c.Account.Currency = "" }},
		{"no_symbols", func(c *Config) { c.Symbols = nil }},
		{"unknown_symbol", func(c *Config) { c.Symbols[0].Symbol = "DOGE_MOON" }},
		{"bad_timeframe", func(c *Config) { c.Symbols[0].Timeframe = "W1" }},
		{"zero_base_risk", func(c *Config) { c.Sizing.BaseRiskPct = 0 }},
		{"base_over_max_risk", func(c *Config) { c.Sizing.BaseRiskPct = 5 }},
		{"inverted_lots", func(c *Config) { c.Sizing.MaxLot = 0.001 }},
		{"inverted_stops", func(c *Config) { c.Sizing.MaxStopPips = 1 }},
		{"zero_max_trades", func(c *Config) { c.Cycle.MaxTrades = 0 }},
		{"positive_loss_limit", func(c *Config) { c.Cycle.DailyLimitPct = 1.0 }},
		{"bad_reset_mode", func(c *Config) { c.Cycle.Reset = "lunar-month" }},
		{"zero_spread", func(c *Config) { c.Grid.MaxSpreadPips = 0 }},
		{"tiny_bollinger", func(c *Config) { c.Grid.BollingerPeriod = 1 }},
		{"inverted_targets", func(c *Config) { c.Monitor.MaxTarget = 100 }},
		{"bad_interval", func(c *Config) { c.Loop.Interval = "soon" }},
		{"bad_journal_type", func(c *Config) { c.Journal.Type = "parquet" }},
		{"sqlite_without_path", func(c *Config) { c.Journal.DBPath = "" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseTimeframe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want grid.Timeframe
	}{
		{"M5", grid.M5},
		{"m15", grid.M15},
		{"H1", grid.H1},
		{"", grid.M5},
	}

	for _, tt := range tests {
		got, err := SymbolConfig{Timeframe: tt.in}.ParseTimeframe()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestSessionConfigRoundTrip(t *testing.T) {
	t.Parallel()

	row, err := SessionConfig{
		Name: "LONDON", Start: "08:00", End: "16:30",
		RiskMultiplier: 1.3, MaxTrades: 3,
	}.Session()

	require.NoError(t, err)
	assert.Equal(t, session.London, row.Name)
	assert.Equal(t, 8*60, row.Window.Start)
	assert.Equal(t, 16*60+30, row.Window.End)
}

func TestCustomSessionClock(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Sessions = []SessionConfig{
		{Name: "LONDON", Start: "07:00", End: "15:00", RiskMultiplier: 1.2, MaxTrades: 2},
		{Name: "OFF_HOURS", RiskMultiplier: 0.5, MaxTrades: 1},
	}

	clock, err := cfg.SessionClock()
	require.NoError(t, err)

	got := clock.Resolve(time.Date(2026, 1, 7, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, session.London, got.Name)
	assert.InDelta(t, 1.2, got.RiskMultiplier, 1e-9)

	off := clock.Resolve(time.Date(2026, 1, 7, 20, 0, 0, 0, time.UTC))
	assert.Equal(t, session.OffHours, off.Name)
	assert.InDelta(t, 0.5, off.RiskMultiplier, 1e-9)
}

func TestLoopDefaults(t *testing.T) {
	t.Parallel()

	var l LoopConfig
	iv, err := l.ParseInterval()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, iv)

	to, err := l.ParseBrokerTimeout()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, to)
}
