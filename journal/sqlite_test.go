package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('trades','equity','runs')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["trades"])
	assert.True(t, found["equity"])
	assert.True(t, found["runs"])
}

func TestSQLiteTradesRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })
	ctx := context.Background()

	buy := TradeRecord{RunID: "r1", Seq: 1, Date: day(2), Ticker: "AAPL", Action: "BUY",
		Shares: 100, Price: 50, Amount: 5000, CashRemaining: 95000, Note: "Strategy Signal"}
	sell := TradeRecord{RunID: "r1", Seq: 2, Date: day(5), Ticker: "AAPL", Action: "SELL",
		Shares: 100, Price: 55, Amount: 5500, CashRemaining: 100500, Note: "Trailing Stop Triggered"}
	other := TradeRecord{RunID: "r2", Seq: 1, Date: day(3), Ticker: "MSFT", Action: "BUY",
		Shares: 1, Price: 10, Amount: 10, CashRemaining: 90, Note: "Strategy Signal"}

	for _, rec := range []TradeRecord{buy, sell, other} {
		require.NoError(t, j.RecordTrade(rec))
	}

	got, err := j.ListTradesByRunID(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "AAPL", got[0].Ticker)
	assert.Equal(t, int64(100), got[0].Shares)
	assert.True(t, got[0].Date.Equal(day(2)))
	assert.Equal(t, "Trailing Stop Triggered", got[1].Note)
	assert.Equal(t, 100500.0, got[1].CashRemaining)

	between, err := j.ListTradesBetween(ctx, day(3), day(5))
	require.NoError(t, err)
	require.Len(t, between, 1)
	assert.Equal(t, "r2", between[0].RunID)

	assert.Error(t, j.RecordTrade(buy), "duplicate run_id+seq")
}

func TestSQLiteEquity(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	bench := 101.5
	require.NoError(t, j.RecordEquity(EquitySnapshot{RunID: "r1", Date: day(2), NetWorth: 100000, Cash: 100000}))
	require.NoError(t, j.RecordEquity(EquitySnapshot{RunID: "r1", Date: day(3), NetWorth: 100250, Cash: 95000, Benchmark: &bench}))

	got, err := j.ListEquityByRunID(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].Benchmark)
	require.NotNil(t, got[1].Benchmark)
	assert.Equal(t, 101.5, *got[1].Benchmark)
	assert.Equal(t, 100250.0, got[1].NetWorth)
}

func TestSQLiteBacktestRun(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })
	ctx := context.Background()

	run := BacktestRun{
		RunID:        "r1",
		Created:      time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
		Name:         "demo",
		Strategy:     "momentum",
		Tickers:      []string{"AAPL", "MSFT"},
		Benchmark:    "SPY",
		Config:       []byte("strategy: momentum\n"),
		Start:        day(2),
		End:          day(31),
		Trades:       4,
		Wins:         1,
		Losses:       1,
		StartBalance: 100000,
		EndBalance:   100500,
		NetPL:        500,
		ReturnPct:    0.5,
		WinRate:      0.5,
		MaxDDPct:     2.5,
		Sharpe:       1.1,
	}
	require.NoError(t, j.RecordBacktest(ctx, run))
	require.NoError(t, j.RecordTrade(TradeRecord{RunID: "r1", Seq: 1, Date: day(2), Ticker: "AAPL", Action: "BUY",
		Shares: 10, Price: 50, Amount: 500, CashRemaining: 99500, Note: "Strategy Signal"}))

	got, err := j.GetBacktestRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "momentum", got.Strategy)
	assert.Equal(t, []string{"AAPL", "MSFT"}, got.Tickers)
	assert.Equal(t, 4, got.Trades)
	assert.True(t, got.End.Equal(day(31)))
	assert.Equal(t, "strategy: momentum\n", string(got.Config))

	_, err = j.GetBacktestRun(ctx, "missing")
	assert.Error(t, err)

	org, err := j.ExportBacktestOrg(ctx, "r1")
	require.NoError(t, err)
	assert.Contains(t, org, ":RUN_ID:      r1")
	assert.Contains(t, org, ":TICKERS:     AAPL,MSFT")
	assert.Contains(t, org, "** BUY 10 AAPL @ 50.00 (2024-01-02)")
}
