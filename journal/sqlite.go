package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordDecision(d DecisionRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO decisions
		(id, time, symbol, quality, session, outcome, position_size, risk_amount,
		 risk_pct, stop_loss_pips, total_multiplier, emergency, checklist)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Time, d.Symbol, d.Quality, d.Session, d.Outcome, d.PositionSize,
		d.RiskAmount, d.RiskPct, d.StopLossPips, d.TotalMultiplier, d.Emergency, d.Checklist,
	)
	return err
}

func (j *SQLiteJournal) RecordGridLevel(g GridLevelRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO grid_levels
		(id, time, symbol, side, lot, entry_price, ticket)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Time, g.Symbol, g.Side, g.Lot, g.EntryPrice, g.Ticket,
	)
	return err
}

func (j *SQLiteJournal) RecordCycle(c CycleRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO cycles (day, trades, pnl_pct, pnl_usd, starting_equity)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			trades = excluded.trades,
			pnl_pct = excluded.pnl_pct,
			pnl_usd = excluded.pnl_usd,
			starting_equity = excluded.starting_equity`,
		c.Day, c.Trades, c.PnLPct, c.PnLUSD, c.StartingEquity,
	)
	return err
}

func (j *SQLiteJournal) GetDecision(id string) (DecisionRecord, error) {
	row := j.db.QueryRow(`
		SELECT id, time, symbol, quality, session, outcome, position_size, risk_amount,
		       risk_pct, stop_loss_pips, total_multiplier, emergency, checklist
		FROM decisions WHERE id = ?`, id)

	var d DecisionRecord
	err := row.Scan(&d.ID, &d.Time, &d.Symbol, &d.Quality, &d.Session, &d.Outcome,
		&d.PositionSize, &d.RiskAmount, &d.RiskPct, &d.StopLossPips,
		&d.TotalMultiplier, &d.Emergency, &d.Checklist)
	if err == sql.ErrNoRows {
		return d, fmt.Errorf("decision %q not found", id)
	}
	return d, err
}

func (j *SQLiteJournal) ListDecisionsBetween(start, end time.Time) ([]DecisionRecord, error) {
	rows, err := j.db.Query(`
		SELECT id, time, symbol, quality, session, outcome, position_size, risk_amount,
		       risk_pct, stop_loss_pips, total_multiplier, emergency, checklist
		FROM decisions
		WHERE time >= ? AND time < ?
		ORDER BY time`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DecisionRecord
	for rows.Next() {
		var d DecisionRecord
		if err := rows.Scan(&d.ID, &d.Time, &d.Symbol, &d.Quality, &d.Session, &d.Outcome,
			&d.PositionSize, &d.RiskAmount, &d.RiskPct, &d.StopLossPips,
			&d.TotalMultiplier, &d.Emergency, &d.Checklist); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) ListGridLevels(symbol string) ([]GridLevelRecord, error) {
	rows, err := j.db.Query(`
		SELECT id, time, symbol, side, lot, entry_price, ticket
		FROM grid_levels WHERE symbol = ? ORDER BY time`, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GridLevelRecord
	for rows.Next() {
		var g GridLevelRecord
		if err := rows.Scan(&g.ID, &g.Time, &g.Symbol, &g.Side, &g.Lot, &g.EntryPrice, &g.Ticket); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) GetCycle(day string) (CycleRecord, error) {
	row := j.db.QueryRow(`
		SELECT day, trades, pnl_pct, pnl_usd, starting_equity
		FROM cycles WHERE day = ?`, day)

	var c CycleRecord
	err := row.Scan(&c.Day, &c.Trades, &c.PnLPct, &c.PnLUSD, &c.StartingEquity)
	if err == sql.ErrNoRows {
		return c, fmt.Errorf("cycle %q not found", day)
	}
	return c, err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
