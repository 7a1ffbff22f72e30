// Package config loads and validates the engine configuration. Files
// may be YAML or JSON; all tables are typed structs with named fields.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/fxgrid/cycle"
	"github.com/rustyeddy/fxgrid/grid"
	"github.com/rustyeddy/fxgrid/market"
	"github.com/rustyeddy/fxgrid/monitor"
	"github.com/rustyeddy/fxgrid/session"
	"github.com/rustyeddy/fxgrid/sizing"
)

type Config struct {
	Account  AccountConfig      `json:"account" yaml:"account"`
	Symbols  []SymbolConfig     `json:"symbols" yaml:"symbols"`
	Sizing   sizing.Config      `json:"sizing" yaml:"sizing"`
	Grid     grid.Config        `json:"grid" yaml:"grid"`
	Cycle    CycleConfig        `json:"cycle" yaml:"cycle"`
	Monitor  monitor.Thresholds `json:"monitor" yaml:"monitor"`
	Sessions []SessionConfig    `json:"sessions,omitempty" yaml:"sessions,omitempty"`
	Loop     LoopConfig         `json:"loop" yaml:"loop"`
	Journal  JournalConfig      `json:"journal" yaml:"journal"`
	Metrics  MetricsConfig      `json:"metrics" yaml:"metrics"`
}

type AccountConfig struct {
	ID       string `json:"id" yaml:"id"`
	Currency string `json:"currency" yaml:"currency"`
}

type SymbolConfig struct {
	Symbol    string `json:"symbol" yaml:"symbol"`
	Timeframe string `json:"timeframe" yaml:"timeframe"` // M5, M15, H1
}

// ParseTimeframe maps the config string onto a grid timeframe.
func (s SymbolConfig) ParseTimeframe() (grid.Timeframe, error) {
	switch strings.ToUpper(strings.TrimSpace(s.Timeframe)) {
	case "M5", "":
		return grid.M5, nil
	case "M15":
		return grid.M15, nil
	case "H1":
		return grid.H1, nil
	}
	return grid.M5, fmt.Errorf("unknown timeframe %q (supported: M5, M15, H1)", s.Timeframe)
}

type CycleConfig struct {
	MaxTrades      int     `json:"max_trades" yaml:"max_trades"`
	DailyTargetPct float64 `json:"daily_target_pct" yaml:"daily_target_pct"`
	DailyLimitPct  float64 `json:"daily_limit_pct" yaml:"daily_limit_pct"`
	Reset          string  `json:"reset" yaml:"reset"` // utc-day | rolling-24h
}

// Limits converts the serializable form into cycle limits.
func (c CycleConfig) Limits() (cycle.Limits, error) {
	l := cycle.Limits{
		MaxTrades:      c.MaxTrades,
		DailyTargetPct: c.DailyTargetPct,
		DailyLimitPct:  c.DailyLimitPct,
	}
	switch strings.ToLower(strings.TrimSpace(c.Reset)) {
	case "utc-day", "":
		l.Reset = cycle.ResetUTCDay
	case "rolling-24h":
		l.Reset = cycle.ResetRolling24h
	default:
		return l, fmt.Errorf("unknown cycle reset %q (supported: utc-day, rolling-24h)", c.Reset)
	}
	return l, nil
}

// SessionConfig is one session table row with "HH:MM" UTC bounds.
type SessionConfig struct {
	Name           string  `json:"name" yaml:"name"`
	Start          string  `json:"start" yaml:"start"`
	End            string  `json:"end" yaml:"end"`
	RiskMultiplier float64 `json:"risk_multiplier" yaml:"risk_multiplier"`
	MaxTrades      int     `json:"max_trades" yaml:"max_trades"`
}

func (s SessionConfig) Session() (session.Session, error) {
	name, err := parseSessionName(s.Name)
	if err != nil {
		return session.Session{}, err
	}

	out := session.Session{
		Name:            name,
		RiskMultiplier:  s.RiskMultiplier,
		MaxTradesInSess: s.MaxTrades,
	}
	if name == session.OffHours {
		return out, nil
	}

	start, err := parseMinutes(s.Start)
	if err != nil {
		return session.Session{}, fmt.Errorf("session %s start: %w", s.Name, err)
	}
	end, err := parseMinutes(s.End)
	if err != nil {
		return session.Session{}, fmt.Errorf("session %s end: %w", s.Name, err)
	}
	out.Window = session.Window{Start: start, End: end}
	return out, nil
}

type LoopConfig struct {
	Interval      string `json:"interval" yaml:"interval"`             // e.g. "10s"
	BrokerTimeout string `json:"broker_timeout" yaml:"broker_timeout"` // per-call bound, e.g. "3s"
}

func (l LoopConfig) ParseInterval() (time.Duration, error) {
	if l.Interval == "" {
		return 10 * time.Second, nil
	}
	return time.ParseDuration(l.Interval)
}

func (l LoopConfig) ParseBrokerTimeout() (time.Duration, error) {
	if l.BrokerTimeout == "" {
		return 3 * time.Second, nil
	}
	return time.ParseDuration(l.BrokerTimeout)
}

type JournalConfig struct {
	Type          string `json:"type" yaml:"type"` // "sqlite", "csv" or "none"
	DBPath        string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	DecisionsFile string `json:"decisions_file,omitempty" yaml:"decisions_file,omitempty"`
	LevelsFile    string `json:"levels_file,omitempty" yaml:"levels_file,omitempty"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes the configuration; .yaml/.yml get YAML, else JSON.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}
	for _, s := range c.Symbols {
		if _, ok := market.Instruments[s.Symbol]; !ok {
			return fmt.Errorf("unknown symbol: %s", s.Symbol)
		}
		if _, err := s.ParseTimeframe(); err != nil {
			return err
		}
	}
	if c.Sizing.BaseRiskPct <= 0 || c.Sizing.BaseRiskPct > c.Sizing.MaxRiskPct {
		return fmt.Errorf("sizing.base_risk_pct must be positive and <= max_risk_pct")
	}
	if c.Sizing.MinLot <= 0 || c.Sizing.MaxLot < c.Sizing.MinLot {
		return fmt.Errorf("sizing lot bounds are invalid")
	}
	if c.Sizing.MinStopPips <= 0 || c.Sizing.MaxStopPips < c.Sizing.MinStopPips {
		return fmt.Errorf("sizing stop-loss bounds are invalid")
	}
	if c.Cycle.MaxTrades <= 0 {
		return fmt.Errorf("cycle.max_trades must be positive")
	}
	if c.Cycle.DailyLimitPct >= 0 {
		return fmt.Errorf("cycle.daily_limit_pct must be negative")
	}
	if c.Cycle.DailyTargetPct <= 0 {
		return fmt.Errorf("cycle.daily_target_pct must be positive")
	}
	if _, err := c.Cycle.Limits(); err != nil {
		return err
	}
	if c.Grid.MaxSpreadPips <= 0 {
		return fmt.Errorf("grid.max_spread_pips must be positive")
	}
	if c.Grid.BollingerPeriod < 2 {
		return fmt.Errorf("grid.bollinger_period must be at least 2")
	}
	if c.Monitor.PartialTarget <= 0 || c.Monitor.MaxTarget < c.Monitor.PartialTarget {
		return fmt.Errorf("monitor targets are invalid")
	}
	for _, s := range c.Sessions {
		if _, err := s.Session(); err != nil {
			return err
		}
	}
	if _, err := c.Loop.ParseInterval(); err != nil {
		return fmt.Errorf("loop.interval: %w", err)
	}
	if _, err := c.Loop.ParseBrokerTimeout(); err != nil {
		return fmt.Errorf("loop.broker_timeout: %w", err)
	}
	switch c.Journal.Type {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite type")
		}
	case "csv":
		if c.Journal.DecisionsFile == "" || c.Journal.LevelsFile == "" {
			return fmt.Errorf("journal decisions_file and levels_file required for csv type")
		}
	case "none", "":
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv' or 'none'")
	}
	return nil
}

// SessionClock builds the session table, falling back to the standard
// FX sessions when none are configured.
func (c *Config) SessionClock() (*session.Clock, error) {
	if len(c.Sessions) == 0 {
		return session.DefaultClock(), nil
	}
	rows := make([]session.Session, 0, len(c.Sessions))
	for _, s := range c.Sessions {
		row, err := s.Session()
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return session.NewClock(rows), nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:       "FXG-001",
			Currency: "USD",
		},
		Symbols: []SymbolConfig{
			{Symbol: "EUR_USD", Timeframe: "M15"},
		},
		Sizing: sizing.DefaultConfig(),
		Grid:   grid.DefaultConfig(),
		Cycle: CycleConfig{
			MaxTrades:      3,
			DailyTargetPct: 3.0,
			DailyLimitPct:  -2.0,
			Reset:          "utc-day",
		},
		Monitor: monitor.DefaultThresholds(),
		Loop: LoopConfig{
			Interval:      "10s",
			BrokerTimeout: "3s",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./fxgrid.sqlite",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9185",
		},
	}
}

func parseSessionName(name string) (session.Name, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ASIA":
		return session.Asia, nil
	case "LONDON":
		return session.London, nil
	case "NY", "NEW_YORK":
		return session.NewYork, nil
	case "LONDON_NY_OVERLAP", "OVERLAP":
		return session.LondonNYOverlap, nil
	case "OFF_HOURS":
		return session.OffHours, nil
	}
	return session.OffHours, fmt.Errorf("unknown session name %q", name)
}

func parseMinutes(hhmm string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(hhmm))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
