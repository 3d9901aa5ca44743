package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

var _ Journal = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, seq, date, ticker, action, shares, price, amount, cash_remaining, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.Seq, t.Date, t.Ticker, t.Action,
		t.Shares, t.Price, t.Amount, t.CashRemaining, t.Note,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, date, net_worth, cash, benchmark)
		VALUES (?, ?, ?, ?, ?)`,
		e.RunID, e.Date, e.NetWorth, e.Cash, e.Benchmark,
	)
	return err
}

func (j *SQLite) RecordBacktest(ctx context.Context, r BacktestRun) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
		(run_id, created, name, strategy, tickers, benchmark, config, start_date, end_date,
		 trades, wins, losses, start_balance, end_balance, net_pl, return_pct,
		 win_rate, max_dd_pct, sharpe, skipped, org_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Name, r.Strategy, strings.Join(r.Tickers, ","), r.Benchmark, r.Config,
		r.Start, r.End, r.Trades, r.Wins, r.Losses, r.StartBalance, r.EndBalance,
		r.NetPL, r.ReturnPct, r.WinRate, r.MaxDDPct, r.Sharpe, r.Skipped, r.OrgPath,
	)
	return err
}

func (j *SQLite) GetBacktestRun(ctx context.Context, runID string) (BacktestRun, error) {
	var (
		r       BacktestRun
		tickers string
	)
	err := j.db.QueryRowContext(ctx, `
		SELECT run_id, created, name, strategy, tickers, benchmark, config, start_date, end_date,
		       trades, wins, losses, start_balance, end_balance, net_pl, return_pct,
		       win_rate, max_dd_pct, sharpe, skipped, org_path
		FROM runs WHERE run_id = ?`, runID).Scan(
		&r.RunID, &r.Created, &r.Name, &r.Strategy, &tickers, &r.Benchmark, &r.Config,
		&r.Start, &r.End, &r.Trades, &r.Wins, &r.Losses, &r.StartBalance, &r.EndBalance,
		&r.NetPL, &r.ReturnPct, &r.WinRate, &r.MaxDDPct, &r.Sharpe, &r.Skipped, &r.OrgPath,
	)
	if err == sql.ErrNoRows {
		return BacktestRun{}, fmt.Errorf("backtest run %q not found", runID)
	}
	if err != nil {
		return BacktestRun{}, err
	}
	if tickers != "" {
		r.Tickers = strings.Split(tickers, ",")
	}
	return r, nil
}

func (j *SQLite) ListTradesByRunID(ctx context.Context, runID string) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, seq, date, ticker, action, shares, price, amount, cash_remaining, note
		FROM trades
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrades(rows)
}

// ListTradesBetween returns trades of every run dated within [start, end).
func (j *SQLite) ListTradesBetween(ctx context.Context, start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, seq, date, ticker, action, shares, price, amount, cash_remaining, note
		FROM trades
		WHERE date >= ? AND date < ?
		ORDER BY date ASC, run_id ASC, seq ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrades(rows)
}

func scanTrades(rows *sql.Rows) ([]TradeRecord, error) {
	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.RunID,
			&rec.Seq,
			&rec.Date,
			&rec.Ticker,
			&rec.Action,
			&rec.Shares,
			&rec.Price,
			&rec.Amount,
			&rec.CashRemaining,
			&rec.Note,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLite) ListEquityByRunID(ctx context.Context, runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, date, net_worth, cash, benchmark
		FROM equity
		WHERE run_id = ?
		ORDER BY date ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var (
			rec   EquitySnapshot
			bench sql.NullFloat64
		)
		if err := rows.Scan(&rec.RunID, &rec.Date, &rec.NetWorth, &rec.Cash, &bench); err != nil {
			return nil, err
		}
		if bench.Valid {
			v := bench.Float64
			rec.Benchmark = &v
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ExportBacktestOrg loads a stored run and renders its org report.
func (j *SQLite) ExportBacktestOrg(ctx context.Context, runID string) (string, error) {
	r, err := j.GetBacktestRun(ctx, runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRunID(ctx, runID)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := r.RenderOrg(&b); err != nil {
		return "", err
	}
	for _, t := range trades {
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String(), nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
