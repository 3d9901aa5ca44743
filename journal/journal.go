package journal

import (
	"errors"
	"sync"
	"time"
)

// TradeRecord is one executed trade as persisted.
type TradeRecord struct {
	RunID         string
	Seq           int
	Date          time.Time
	Ticker        string
	Action        string
	Shares        int64
	Price         float64
	Amount        float64
	CashRemaining float64
	Note          string
}

// EquitySnapshot is one point of the equity curve.
type EquitySnapshot struct {
	RunID     string
	Date      time.Time
	NetWorth  float64
	Cash      float64
	Benchmark *float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Memory keeps records in memory. It is safe for concurrent use.
type Memory struct {
	mu     sync.Mutex
	trades []TradeRecord
	equity []EquitySnapshot
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) RecordTrade(t TradeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, t)
	return nil
}

func (m *Memory) RecordEquity(e EquitySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.equity = append(m.equity, e)
	return nil
}

func (m *Memory) Trades() []TradeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TradeRecord(nil), m.trades...)
}

func (m *Memory) Equity() []EquitySnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]EquitySnapshot(nil), m.equity...)
}

func (m *Memory) Close() error { return nil }

// Multi fans every record out to several journals.
type Multi []Journal

func (m Multi) RecordTrade(t TradeRecord) error {
	var errs []error
	for _, j := range m {
		if err := j.RecordTrade(t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) RecordEquity(e EquitySnapshot) error {
	var errs []error
	for _, j := range m {
		if err := j.RecordEquity(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, j := range m {
		if err := j.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error     { return nil }
func (Nop) RecordEquity(EquitySnapshot) error { return nil }
func (Nop) Close() error                      { return nil }
