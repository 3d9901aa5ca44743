package portfolio

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Asset is a whole-share equity position. Shares never go negative.
type Asset struct {
	Symbol string
	shares int64
}

func NewAsset(symbol string) *Asset {
	return &Asset{Symbol: symbol}
}

func (a *Asset) Shares() int64 { return a.shares }

func (a *Asset) IsEmpty() bool { return a.shares == 0 }

func (a *Asset) Buy(qty int64) error {
	if qty <= 0 {
		return &InvalidAmountError{What: "quantity", Value: strconv.FormatInt(qty, 10)}
	}
	a.shares += qty
	return nil
}

func (a *Asset) Sell(qty int64) error {
	if qty <= 0 {
		return &InvalidAmountError{What: "quantity", Value: strconv.FormatInt(qty, 10)}
	}
	if qty > a.shares {
		return &InsufficientHoldingsError{Symbol: a.Symbol, Held: a.shares, Want: qty}
	}
	a.shares -= qty
	return nil
}

// CashLedger holds the portfolio's cash balance. The balance never goes
// negative.
type CashLedger struct {
	balance decimal.Decimal
}

func NewCashLedger(initial decimal.Decimal) (*CashLedger, error) {
	if initial.IsNegative() {
		return nil, &InvalidAmountError{What: "starting cash", Value: initial.String()}
	}
	return &CashLedger{balance: initial}, nil
}

func (c *CashLedger) Balance() decimal.Decimal { return c.balance }

func (c *CashLedger) Deposit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return &InvalidAmountError{What: "deposit", Value: amount.String()}
	}
	c.balance = c.balance.Add(amount)
	return nil
}

func (c *CashLedger) Withdraw(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return &InvalidAmountError{What: "withdrawal", Value: amount.String()}
	}
	if amount.GreaterThan(c.balance) {
		return &InsufficientCashError{Need: amount, Have: c.balance}
	}
	c.balance = c.balance.Sub(amount)
	return nil
}
