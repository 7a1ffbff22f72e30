package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxgrid/journal"
)

func newJournalCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Query the decision journal",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "./fxgrid.sqlite", "path to SQLite journal DB")

	today := &cobra.Command{
		Use:   "today",
		Short: "Show today's sizing decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printDay(dbPath, time.Now().UTC().Format("2006-01-02"))
		},
	}

	day := &cobra.Command{
		Use:   "day YYYY-MM-DD",
		Short: "Show one day's sizing decisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printDay(dbPath, args[0])
		},
	}

	levels := &cobra.Command{
		Use:   "levels SYMBOL",
		Short: "Show grid levels placed for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printLevels(dbPath, args[0])
		},
	}

	cmd.AddCommand(today, day, levels)
	return cmd
}

func printDay(dbPath, day string) error {
	j, err := journal.NewSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	start, err := time.Parse("2006-01-02", day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	recs, err := j.ListDecisionsBetween(start, start.Add(24*time.Hour))
	if err != nil {
		return fmt.Errorf("query decisions: %w", err)
	}

	if len(recs) == 0 {
		fmt.Printf("no decisions on %s\n", day)
		return nil
	}
	for _, d := range recs {
		flag := ""
		if d.Emergency {
			flag = " EMERGENCY"
		}
		fmt.Printf("%s %s %-8s %-7s %-18s %.2f lots risk=%.2f (%.2f%%) sl=%.0fp x%.2f%s\n",
			d.Time.Format("15:04:05"), d.ID, d.Symbol, d.Quality, d.Session,
			d.PositionSize, d.RiskAmount, d.RiskPct, d.StopLossPips,
			d.TotalMultiplier, flag)
	}

	if cyc, err := j.GetCycle(day); err == nil {
		fmt.Printf("cycle: %d trades, %.2f%% (%.2f USD)\n", cyc.Trades, cyc.PnLPct, cyc.PnLUSD)
	}
	return nil
}

func printLevels(dbPath, symbol string) error {
	j, err := journal.NewSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	levels, err := j.ListGridLevels(symbol)
	if err != nil {
		return fmt.Errorf("query levels: %w", err)
	}
	if len(levels) == 0 {
		fmt.Printf("no grid levels for %s\n", symbol)
		return nil
	}
	for _, g := range levels {
		fmt.Printf("%s %s %-4s %.2f lots @ %.5f ticket=%s\n",
			g.Time.Format(time.RFC3339), g.Symbol, g.Side, g.Lot, g.EntryPrice, g.Ticket)
	}
	return nil
}
