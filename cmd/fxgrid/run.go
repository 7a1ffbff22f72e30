package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxgrid/broker"
	"github.com/rustyeddy/fxgrid/broker/sim"
	"github.com/rustyeddy/fxgrid/config"
	"github.com/rustyeddy/fxgrid/cycle"
	"github.com/rustyeddy/fxgrid/grid"
	"github.com/rustyeddy/fxgrid/journal"
	"github.com/rustyeddy/fxgrid/loop"
	"github.com/rustyeddy/fxgrid/market"
	"github.com/rustyeddy/fxgrid/metrics"
	"github.com/rustyeddy/fxgrid/sizing"
)

func newRunCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the polling decision loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop(verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every decision")
	return cmd
}

func runLoop(verbose bool) error {
	// Broker credentials live in the environment; .env is optional.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: .env: %v\n", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	j, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer j.Close()

	b := newBroker(cfg)

	clock, err := cfg.SessionClock()
	if err != nil {
		return err
	}
	limits, err := cfg.Cycle.Limits()
	if err != nil {
		return err
	}

	engines := make(map[string]*grid.Engine, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		tf, err := s.ParseTimeframe()
		if err != nil {
			return err
		}
		engines[s.Symbol] = grid.NewEngine(s.Symbol, tf, cfg.Grid, b)
	}

	interval, err := cfg.Loop.ParseInterval()
	if err != nil {
		return err
	}
	timeout, err := cfg.Loop.ParseBrokerTimeout()
	if err != nil {
		return err
	}

	l, err := loop.New(loop.Options{
		Broker:        b,
		Signals:       &idleSignals{},
		Clock:         clock,
		Tracker:       cycle.NewTracker(limits),
		Sizer:         sizing.NewSizer(cfg.Sizing),
		Engines:       engines,
		Journal:       j,
		Thresholds:    cfg.Monitor,
		Interval:      interval,
		BrokerTimeout: timeout,
		Verbose:       verbose,
	})
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		addr := cfg.Metrics.Addr
		if addr == "" {
			addr = ":9185"
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			if err := http.ListenAndServe(addr, mux); err != nil {
				fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
			}
		}()
		fmt.Printf("metrics on %s/metrics\n", addr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("fxgrid: polling every %s (%d symbols)\n", interval, len(engines))
	if err := l.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	fmt.Println("fxgrid: stopped")
	return nil
}

func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(cfgPath)
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	case "csv":
		return journal.NewCSV(cfg.Journal.DecisionsFile, cfg.Journal.LevelsFile)
	default:
		return journal.Nop{}, nil
	}
}

// newBroker returns the trading venue. Without live credentials the
// run falls back to the sim engine seeded from the environment.
func newBroker(cfg *config.Config) broker.Broker {
	equity := 10000.0
	venue := sim.NewEngine(broker.Account{
		ID:       cfg.Account.ID,
		Currency: cfg.Account.Currency,
		Equity:   equity,
		Balance:  equity,
	})
	for _, s := range cfg.Symbols {
		venue.SetTick(market.Tick{Symbol: s.Symbol, Bid: 1.0849, Ask: 1.0851})
	}
	return venue
}

// idleSignals is the placeholder detection layer: it never reports a
// setup. Wire a real detector here when one exists.
type idleSignals struct{}

func (idleSignals) DetectSetup(ctx context.Context, symbol string) (sizing.Setup, bool, error) {
	return sizing.Setup{}, false, nil
}

func (idleSignals) MarketSnapshot(ctx context.Context, symbol string) (market.Snapshot, error) {
	return market.Snapshot{Volatility: market.VolNormal, PipValue: 10}, nil
}
