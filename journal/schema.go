package journal

const Schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	quality TEXT NOT NULL,
	session TEXT NOT NULL,
	outcome TEXT NOT NULL,
	position_size REAL NOT NULL,
	risk_amount REAL NOT NULL,
	risk_pct REAL NOT NULL,
	stop_loss_pips REAL NOT NULL,
	total_multiplier REAL NOT NULL,
	emergency INTEGER NOT NULL,
	checklist TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_time ON decisions(time);
CREATE INDEX IF NOT EXISTS idx_decisions_symbol ON decisions(symbol);

CREATE TABLE IF NOT EXISTS grid_levels (
	id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	lot REAL NOT NULL,
	entry_price REAL NOT NULL,
	ticket TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_grid_levels_symbol ON grid_levels(symbol);

CREATE TABLE IF NOT EXISTS cycles (
	day TEXT PRIMARY KEY,
	trades INTEGER NOT NULL,
	pnl_pct REAL NOT NULL,
	pnl_usd REAL NOT NULL,
	starting_equity REAL NOT NULL
);
`
