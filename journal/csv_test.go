package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVJournal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)

	bench := 470.25
	require.NoError(t, j.RecordTrade(TradeRecord{RunID: "r1", Seq: 1, Date: day(2), Ticker: "AAPL", Action: "BUY",
		Shares: 100, Price: 50, Amount: 5000, CashRemaining: 95000, Note: "Strategy Signal"}))
	require.NoError(t, j.RecordEquity(EquitySnapshot{RunID: "r1", Date: day(2), NetWorth: 100000, Cash: 95000, Benchmark: &bench}))
	require.NoError(t, j.RecordEquity(EquitySnapshot{RunID: "r1", Date: day(3), NetWorth: 100100, Cash: 95000}))
	require.NoError(t, j.Close())

	f, err := os.Open(tradesPath)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"run_id", "seq", "date", "ticker", "action", "shares", "price",
		"cost_or_revenue", "cash_remaining", "note"}, records[0])
	assert.Equal(t, "2024-01-02", records[1][2])
	assert.Equal(t, "BUY", records[1][4])

	trades, err := ReadTradesCSV(tradesPath)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Date.Equal(day(2)))
	assert.Equal(t, int64(100), trades[0].Shares)
	assert.Equal(t, "Strategy Signal", trades[0].Note)

	equity, err := ReadEquityCSV(equityPath)
	require.NoError(t, err)
	require.Len(t, equity, 2)
	require.NotNil(t, equity[0].Benchmark)
	assert.Equal(t, 470.25, *equity[0].Benchmark)
	assert.Nil(t, equity[1].Benchmark)
	assert.Equal(t, 100100.0, equity[1].NetWorth)
}

func TestNewCSVBadPath(t *testing.T) {
	t.Parallel()

	_, err := NewCSV(filepath.Join(t.TempDir(), "missing", "t.csv"), "e.csv")
	assert.Error(t, err)
}
