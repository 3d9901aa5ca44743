package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	date DATETIME NOT NULL,
	ticker TEXT NOT NULL,
	action TEXT NOT NULL,
	shares INTEGER NOT NULL,
	price REAL NOT NULL,
	amount REAL NOT NULL,
	cash_remaining REAL NOT NULL,
	note TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS equity (
	run_id TEXT NOT NULL,
	date DATETIME NOT NULL,
	net_worth REAL NOT NULL,
	cash REAL NOT NULL,
	benchmark REAL,
	PRIMARY KEY (run_id, date)
);

CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	name TEXT NOT NULL,
	strategy TEXT NOT NULL,
	tickers TEXT NOT NULL,
	benchmark TEXT NOT NULL,
	config BLOB,
	start_date DATETIME NOT NULL,
	end_date DATETIME NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	start_balance REAL NOT NULL,
	end_balance REAL NOT NULL,
	net_pl REAL NOT NULL,
	return_pct REAL NOT NULL,
	win_rate REAL NOT NULL,
	max_dd_pct REAL NOT NULL,
	sharpe REAL NOT NULL,
	skipped INTEGER NOT NULL,
	org_path TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_equity_date ON equity(date);
CREATE INDEX IF NOT EXISTS idx_trades_date ON trades(date);
`
