package journal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
)

const dateLayout = "2006-01-02"

type tradeRow struct {
	RunID         string  `csv:"run_id"`
	Seq           int     `csv:"seq"`
	Date          string  `csv:"date"`
	Ticker        string  `csv:"ticker"`
	Action        string  `csv:"action"`
	Shares        int64   `csv:"shares"`
	Price         float64 `csv:"price"`
	Amount        float64 `csv:"cost_or_revenue"`
	CashRemaining float64 `csv:"cash_remaining"`
	Note          string  `csv:"note"`
}

type equityRow struct {
	RunID     string  `csv:"run_id"`
	Date      string  `csv:"date"`
	NetWorth  float64 `csv:"net_worth"`
	Cash      float64 `csv:"cash"`
	Benchmark string  `csv:"benchmark"`
}

// CSV buffers records and writes both files on Close.
type CSV struct {
	tradesPath string
	equityPath string
	trades     []*tradeRow
	equity     []*equityRow
}

var _ Journal = (*CSV)(nil)

// NewCSV checks both paths are writable up front so a bad path fails before
// a run starts.
func NewCSV(tradesPath, equityPath string) (*CSV, error) {
	for _, p := range []string{tradesPath, equityPath} {
		f, err := os.Create(p)
		if err != nil {
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
	}
	return &CSV{tradesPath: tradesPath, equityPath: equityPath}, nil
}

func (j *CSV) RecordTrade(t TradeRecord) error {
	j.trades = append(j.trades, &tradeRow{
		RunID:         t.RunID,
		Seq:           t.Seq,
		Date:          t.Date.Format(dateLayout),
		Ticker:        t.Ticker,
		Action:        t.Action,
		Shares:        t.Shares,
		Price:         t.Price,
		Amount:        t.Amount,
		CashRemaining: t.CashRemaining,
		Note:          t.Note,
	})
	return nil
}

func (j *CSV) RecordEquity(e EquitySnapshot) error {
	row := &equityRow{
		RunID:    e.RunID,
		Date:     e.Date.Format(dateLayout),
		NetWorth: e.NetWorth,
		Cash:     e.Cash,
	}
	if e.Benchmark != nil {
		row.Benchmark = strconv.FormatFloat(*e.Benchmark, 'f', -1, 64)
	}
	j.equity = append(j.equity, row)
	return nil
}

func (j *CSV) Close() error {
	if err := writeRows(j.tradesPath, &j.trades); err != nil {
		return fmt.Errorf("write trades: %w", err)
	}
	if err := writeRows(j.equityPath, &j.equity); err != nil {
		return fmt.Errorf("write equity: %w", err)
	}
	return nil
}

func writeRows(path string, rows any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gocsv.MarshalFile(rows, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadTradesCSV loads a trade log written by CSV.
func ReadTradesCSV(path string) ([]TradeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []*tradeRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, err
	}
	out := make([]TradeRecord, 0, len(rows))
	for _, r := range rows {
		d, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("trade %d: %w", r.Seq, err)
		}
		out = append(out, TradeRecord{
			RunID:         r.RunID,
			Seq:           r.Seq,
			Date:          d,
			Ticker:        r.Ticker,
			Action:        r.Action,
			Shares:        r.Shares,
			Price:         r.Price,
			Amount:        r.Amount,
			CashRemaining: r.CashRemaining,
			Note:          r.Note,
		})
	}
	return out, nil
}

// ReadEquityCSV loads an equity curve written by CSV.
func ReadEquityCSV(path string) ([]EquitySnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []*equityRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, err
	}
	out := make([]EquitySnapshot, 0, len(rows))
	for _, r := range rows {
		d, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return nil, err
		}
		e := EquitySnapshot{RunID: r.RunID, Date: d, NetWorth: r.NetWorth, Cash: r.Cash}
		if r.Benchmark != "" {
			v, err := strconv.ParseFloat(r.Benchmark, 64)
			if err != nil {
				return nil, fmt.Errorf("benchmark on %s: %w", r.Date, err)
			}
			e.Benchmark = &v
		}
		out = append(out, e)
	}
	return out, nil
}
