package backtest

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rohitashwachaks/traderplusplus/journal"
)

func pct(x float64) string { return fmt.Sprintf("%.2f%%", 100*x) }

// PrintSummary renders the headline numbers of a run as a table.
func PrintSummary(w io.Writer, r *Result) {
	s := r.Summary
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	rows := [][]string{
		{"Run", r.RunID},
		{"Strategy", r.Strategy},
		{"Tickers", strings.Join(r.Tickers, ",")},
		{"Period", fmt.Sprintf("%s .. %s", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))},
		{"Starting Cash", r.StartingCash.StringFixed(2)},
		{"Final Net Worth", fmt.Sprintf("%.2f", s.EndValue)},
		{"Total Return", pct(s.TotalReturn)},
		{"CAGR", pct(s.CAGR)},
		{"Sharpe", fmt.Sprintf("%.2f", s.Sharpe)},
		{"Max Drawdown", pct(s.MaxDrawdown)},
		{"Trades", fmt.Sprintf("%d", s.Trades)},
		{"Win Rate", fmt.Sprintf("%s (%d/%d)", pct(s.WinRate), s.Wins, s.Wins+s.Losses)},
	}
	if r.Benchmark != "" {
		rows = append(rows,
			[]string{"Benchmark " + r.Benchmark, pct(s.BenchmarkReturn)},
			[]string{"Alpha", fmt.Sprintf("%.4f", s.Alpha)},
			[]string{"Beta", fmt.Sprintf("%.2f", s.Beta)},
		)
	}
	if len(r.Skipped) > 0 {
		rows = append(rows, []string{"Skipped Dates", fmt.Sprintf("%d", len(r.Skipped))})
	}
	table.AppendBulk(rows)
	table.Render()
}

// PrintTrades renders the trade log.
func PrintTrades(w io.Writer, r *Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Date", "Ticker", "Action", "Shares", "Price", "Amount", "Cash", "Note"})
	for _, t := range r.Trades {
		table.Append([]string{
			fmt.Sprintf("%d", t.Seq),
			t.Date.Format("2006-01-02"),
			t.Ticker,
			string(t.Action),
			fmt.Sprintf("%d", t.Shares),
			t.Price.StringFixed(2),
			t.Amount.StringFixed(2),
			t.CashRemaining.StringFixed(2),
			t.Note,
		})
	}
	table.Render()
}

// PrintSkipped lists the dates whose step failed.
func PrintSkipped(w io.Writer, r *Result) {
	if len(r.Skipped) == 0 {
		return
	}
	fmt.Fprintf(w, "WARNING: %d date(s) skipped, equity curve has gaps\n", len(r.Skipped))
	for _, s := range r.Skipped {
		fmt.Fprintf(w, "  %s: %v\n", s.Date.Format("2006-01-02"), s.Err)
	}
}

// Journal converts a result into the persisted run summary.
func (r *Result) Journal(config []byte) journal.BacktestRun {
	s := r.Summary
	start, _ := r.StartingCash.Float64()
	return journal.BacktestRun{
		RunID:        r.RunID,
		Created:      time.Now().UTC(),
		Name:         r.Name,
		Strategy:     r.Strategy,
		Tickers:      r.Tickers,
		Benchmark:    r.Benchmark,
		Config:       config,
		Start:        r.Start,
		End:          r.End,
		Trades:       s.Trades,
		Wins:         s.Wins,
		Losses:       s.Losses,
		StartBalance: start,
		EndBalance:   s.EndValue,
		NetPL:        s.EndValue - start,
		ReturnPct:    100 * s.TotalReturn,
		WinRate:      s.WinRate,
		MaxDDPct:     100 * s.MaxDrawdown,
		Sharpe:       s.Sharpe,
		Skipped:      len(r.Skipped),
	}
}

// PrintComparison renders one row per run, in the order given.
func PrintComparison(w io.Writer, results []*Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Strategy", "Final", "Return", "CAGR", "Sharpe", "Max DD", "Trades", "Win Rate", "Skipped"})
	for _, r := range results {
		s := r.Summary
		table.Append([]string{
			r.Strategy,
			fmt.Sprintf("%.2f", s.EndValue),
			pct(s.TotalReturn),
			pct(s.CAGR),
			fmt.Sprintf("%.2f", s.Sharpe),
			pct(s.MaxDrawdown),
			fmt.Sprintf("%d", s.Trades),
			pct(s.WinRate),
			fmt.Sprintf("%d", len(r.Skipped)),
		})
	}
	table.Render()
}
