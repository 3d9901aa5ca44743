package portfolio

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// ParseSide accepts "buy"/"sell" in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSide, s)
}

const DefaultNote = "Strategy Signal"

// TradeRecord is one executed trade. CashRemaining is the cash balance after
// the trade was applied.
type TradeRecord struct {
	Seq           int
	Date          time.Time
	Ticker        string
	Action        Side
	Shares        int64
	Price         decimal.Decimal
	Amount        decimal.Decimal // cost for buys, revenue for sells
	CashRemaining decimal.Decimal
	Note          string
}

// Portfolio couples a cash ledger with per-ticker share ledgers and an
// append-only trade log. It is not safe for concurrent use; one run owns one
// portfolio.
type Portfolio struct {
	Name      string
	Tickers   []string
	Benchmark string

	startingCash decimal.Decimal
	cash         *CashLedger
	positions    map[string]*Asset
	trades       []TradeRecord
}

func New(name string, tickers []string, benchmark string, startingCash decimal.Decimal) (*Portfolio, error) {
	cash, err := NewCashLedger(startingCash)
	if err != nil {
		return nil, err
	}
	return &Portfolio{
		Name:         name,
		Tickers:      append([]string(nil), tickers...),
		Benchmark:    benchmark,
		startingCash: startingCash,
		cash:         cash,
		positions:    make(map[string]*Asset),
	}, nil
}

func (p *Portfolio) Cash() decimal.Decimal { return p.cash.Balance() }

func (p *Portfolio) StartingCash() decimal.Decimal { return p.startingCash }

// Position returns the shares held for ticker, 0 if never traded.
func (p *Portfolio) Position(ticker string) int64 {
	if a, ok := p.positions[ticker]; ok {
		return a.Shares()
	}
	return 0
}

// Positions returns a copy of all non-zero holdings.
func (p *Portfolio) Positions() map[string]int64 {
	out := make(map[string]int64, len(p.positions))
	for t, a := range p.positions {
		out[t] = a.Shares()
	}
	return out
}

// Held returns the tickers currently held, sorted.
func (p *Portfolio) Held() []string {
	out := make([]string, 0, len(p.positions))
	for t := range p.positions {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// TradeLog returns a copy of the trade log in execution order.
func (p *Portfolio) TradeLog() []TradeRecord {
	return append([]TradeRecord(nil), p.trades...)
}

// ExecuteTrade applies a single trade atomically. All checks run before any
// ledger is touched, so a failed trade leaves no trace.
func (p *Portfolio) ExecuteTrade(date time.Time, ticker string, side Side, shares int64, price decimal.Decimal, note string) (TradeRecord, error) {
	if shares <= 0 {
		return TradeRecord{}, &InvalidAmountError{What: "shares", Value: strconv.FormatInt(shares, 10)}
	}
	if !price.IsPositive() {
		return TradeRecord{}, &InvalidAmountError{What: "price", Value: price.String()}
	}
	if note == "" {
		note = DefaultNote
	}

	amount := price.Mul(decimal.NewFromInt(shares))

	switch side {
	case Buy:
		if p.cash.Balance().LessThan(amount) {
			return TradeRecord{}, &InsufficientCashError{Ticker: ticker, Need: amount, Have: p.cash.Balance()}
		}
		if err := p.cash.Withdraw(amount); err != nil {
			return TradeRecord{}, err
		}
		a, ok := p.positions[ticker]
		if !ok {
			a = NewAsset(ticker)
			p.positions[ticker] = a
		}
		if err := a.Buy(shares); err != nil {
			return TradeRecord{}, err
		}

	case Sell:
		held := p.Position(ticker)
		if held < shares {
			return TradeRecord{}, &InsufficientSharesError{Ticker: ticker, Held: held, Want: shares}
		}
		a := p.positions[ticker]
		if err := a.Sell(shares); err != nil {
			return TradeRecord{}, err
		}
		if err := p.cash.Deposit(amount); err != nil {
			return TradeRecord{}, err
		}
		if a.IsEmpty() {
			delete(p.positions, ticker)
		}

	default:
		return TradeRecord{}, fmt.Errorf("%w: %q", ErrUnknownSide, side)
	}

	rec := TradeRecord{
		Seq:           len(p.trades) + 1,
		Date:          date,
		Ticker:        ticker,
		Action:        side,
		Shares:        shares,
		Price:         price,
		Amount:        amount,
		CashRemaining: p.cash.Balance(),
		Note:          note,
	}
	p.trades = append(p.trades, rec)
	return rec, nil
}

// NetWorth is cash plus the market value of every holding. A held ticker
// without a price fails with MissingPriceError.
func (p *Portfolio) NetWorth(prices map[string]float64) (decimal.Decimal, error) {
	total := p.cash.Balance()
	for _, t := range p.Held() {
		px, ok := prices[t]
		if !ok {
			return decimal.Zero, &MissingPriceError{Ticker: t}
		}
		total = total.Add(decimal.NewFromFloat(px).Mul(decimal.NewFromInt(p.positions[t].Shares())))
	}
	return total, nil
}

// NetWorthZeroFill values holdings without a price at zero and reports which
// tickers were missing.
func (p *Portfolio) NetWorthZeroFill(prices map[string]float64) (decimal.Decimal, []string) {
	total := p.cash.Balance()
	var missing []string
	for _, t := range p.Held() {
		px, ok := prices[t]
		if !ok {
			missing = append(missing, t)
			continue
		}
		total = total.Add(decimal.NewFromFloat(px).Mul(decimal.NewFromInt(p.positions[t].Shares())))
	}
	return total, missing
}
