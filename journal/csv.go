package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSVJournal struct {
	decisions *csv.Writer
	levels    *csv.Writer
	df, lf    *os.File
}

func NewCSV(decisionsPath, levelsPath string) (*CSVJournal, error) {
	df, err := os.Create(decisionsPath)
	if err != nil {
		return nil, err
	}
	lf, err := os.Create(levelsPath)
	if err != nil {
		df.Close()
		return nil, err
	}

	dw := csv.NewWriter(df)
	lw := csv.NewWriter(lf)

	if err := dw.Write([]string{"id", "time", "symbol", "quality", "session", "outcome",
		"position_size", "risk_amount", "risk_pct", "stop_loss_pips",
		"total_multiplier", "emergency", "checklist"}); err != nil {
		return nil, err
	}
	if err := lw.Write([]string{"id", "time", "symbol", "side", "lot", "entry_price", "ticket"}); err != nil {
		return nil, err
	}

	dw.Flush()
	if err := dw.Error(); err != nil {
		return nil, err
	}
	lw.Flush()
	if err := lw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{decisions: dw, levels: lw, df: df, lf: lf}, nil
}

func (j *CSVJournal) RecordDecision(d DecisionRecord) error {
	err := j.decisions.Write([]string{
		d.ID,
		d.Time.Format(time.RFC3339),
		d.Symbol,
		d.Quality,
		d.Session,
		d.Outcome,
		f(d.PositionSize),
		f(d.RiskAmount),
		f(d.RiskPct),
		f(d.StopLossPips),
		f(d.TotalMultiplier),
		strconv.FormatBool(d.Emergency),
		d.Checklist,
	})
	if err != nil {
		return err
	}
	j.decisions.Flush()
	return j.decisions.Error()
}

func (j *CSVJournal) RecordGridLevel(g GridLevelRecord) error {
	err := j.levels.Write([]string{
		g.ID,
		g.Time.Format(time.RFC3339),
		g.Symbol,
		g.Side,
		f(g.Lot),
		f(g.EntryPrice),
		g.Ticket,
	})
	if err != nil {
		return err
	}
	j.levels.Flush()
	return j.levels.Error()
}

// RecordCycle is a no-op for CSV; cycle rollups only go to SQLite.
func (j *CSVJournal) RecordCycle(CycleRecord) error { return nil }

func (j *CSVJournal) Close() error {
	j.decisions.Flush()
	j.levels.Flush()
	if err := j.df.Close(); err != nil {
		j.lf.Close()
		return err
	}
	return j.lf.Close()
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
