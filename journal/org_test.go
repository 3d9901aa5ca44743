package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	out := FormatTradeOrg(TradeRecord{
		RunID:         "r1",
		Seq:           3,
		Date:          day(15),
		Ticker:        "AAPL",
		Action:        "SELL",
		Shares:        100,
		Price:         113,
		Amount:        11300,
		CashRemaining: 100300,
		Note:          "Trailing Stop Triggered",
	})

	assert.True(t, strings.HasPrefix(out, "** SELL 100 AAPL @ 113.00 (2024-01-15)\n"))
	assert.Contains(t, out, ":SEQ: 3\n")
	assert.Contains(t, out, ":AMOUNT: 11300.00\n")
	assert.Contains(t, out, ":NOTE: Trailing Stop Triggered\n")
	assert.True(t, strings.HasSuffix(out, ":END:\n"))
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	assert.Empty(t, FormatTradesOrg(nil))

	out := FormatTradesOrg([]TradeRecord{
		{Seq: 1, Date: day(2), Ticker: "A", Action: "BUY", Shares: 1},
		{Seq: 2, Date: day(3), Ticker: "A", Action: "SELL", Shares: 1},
	})
	assert.Equal(t, 2, strings.Count(out, ":PROPERTIES:"))
	assert.Contains(t, out, ":END:\n\n** SELL")
}

func TestWriteBacktestOrg(t *testing.T) {
	t.Parallel()

	run := BacktestRun{RunID: "r9", Strategy: "momentum", Tickers: []string{"AAPL"}, Start: day(2), End: day(9),
		WinRate: 0.5, Notes: []string{"flat January"}}

	assert.Error(t, run.WriteBacktestOrg(), "no path")

	run.OrgPath = filepath.Join(t.TempDir(), "run.org")
	require.NoError(t, run.WriteBacktestOrg())

	data, err := os.ReadFile(run.OrgPath)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, "* BACKTEST: momentum AAPL")
	assert.Contains(t, s, ":BENCHMARK:   (none)")
	assert.Contains(t, s, "- Win Rate:         *50.00%*")
	assert.Contains(t, s, "- flat January")
}
