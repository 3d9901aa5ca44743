package portfolio

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount       = errors.New("portfolio: invalid amount")
	ErrInsufficientCash    = errors.New("portfolio: insufficient cash")
	ErrInsufficientShares  = errors.New("portfolio: insufficient shares")
	ErrInsufficientHolding = errors.New("portfolio: insufficient holdings")
	ErrMissingPrice        = errors.New("portfolio: missing price")
	ErrUnknownSide         = errors.New("portfolio: unknown side")
)

// InvalidAmountError is returned for zero or negative quantities, prices or
// cash amounts.
type InvalidAmountError struct {
	What  string
	Value string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("portfolio: invalid %s %s", e.What, e.Value)
}

func (e *InvalidAmountError) Is(target error) bool { return target == ErrInvalidAmount }

// InsufficientHoldingsError is raised by the asset ledger itself.
type InsufficientHoldingsError struct {
	Symbol string
	Held   int64
	Want   int64
}

func (e *InsufficientHoldingsError) Error() string {
	return fmt.Sprintf("portfolio: %s holds %d shares, cannot remove %d", e.Symbol, e.Held, e.Want)
}

func (e *InsufficientHoldingsError) Is(target error) bool { return target == ErrInsufficientHolding }

type InsufficientCashError struct {
	Ticker string
	Need   decimal.Decimal
	Have   decimal.Decimal
}

func (e *InsufficientCashError) Error() string {
	if e.Ticker == "" {
		return fmt.Sprintf("portfolio: insufficient cash: need %s, have %s", e.Need.StringFixed(2), e.Have.StringFixed(2))
	}
	return fmt.Sprintf("portfolio: insufficient cash to buy %s: need %s, have %s",
		e.Ticker, e.Need.StringFixed(2), e.Have.StringFixed(2))
}

func (e *InsufficientCashError) Is(target error) bool { return target == ErrInsufficientCash }

type InsufficientSharesError struct {
	Ticker string
	Held   int64
	Want   int64
}

func (e *InsufficientSharesError) Error() string {
	return fmt.Sprintf("portfolio: insufficient shares of %s: want %d, held %d", e.Ticker, e.Want, e.Held)
}

func (e *InsufficientSharesError) Is(target error) bool { return target == ErrInsufficientShares }

// MissingPriceError means a held ticker could not be valued on a date.
type MissingPriceError struct {
	Ticker string
	Date   time.Time
}

func (e *MissingPriceError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("portfolio: missing price for %s", e.Ticker)
	}
	return fmt.Sprintf("portfolio: missing price for %s on %s", e.Ticker, e.Date.Format("2006-01-02"))
}

func (e *MissingPriceError) Is(target error) bool { return target == ErrMissingPrice }
