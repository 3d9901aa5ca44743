package broker

import (
	"errors"
	"fmt"
	"time"

	"github.com/rohitashwachaks/traderplusplus/portfolio"
)

type OrderType string

const (
	Market    OrderType = "MARKET"
	Limit     OrderType = "LIMIT"
	Stop      OrderType = "STOP"
	StopLimit OrderType = "STOP_LIMIT"
)

type TimeInForce string

const (
	Day TimeInForce = "DAY"
	GTC TimeInForce = "GTC"
	IOC TimeInForce = "IOC"
	FOK TimeInForce = "FOK"
)

type Status string

const (
	StatusNew             Status = "NEW"
	StatusSubmitted       Status = "SUBMITTED"
	StatusPartiallyFilled Status = "PARTIALLY_FILLED"
	StatusFilled          Status = "FILLED"
	StatusCancelled       Status = "CANCELLED"
	StatusRejected        Status = "REJECTED"
	StatusExpired         Status = "EXPIRED"
)

var transitions = map[Status][]Status{
	StatusNew:             {StatusSubmitted, StatusRejected, StatusCancelled},
	StatusSubmitted:       {StatusPartiallyFilled, StatusFilled, StatusRejected, StatusCancelled, StatusExpired},
	StatusPartiallyFilled: {StatusPartiallyFilled, StatusFilled, StatusCancelled, StatusExpired},
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	_, ok := transitions[s]
	return !ok
}

func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

var (
	ErrInvalidOrder      = errors.New("broker: invalid order")
	ErrOrderNotFound     = errors.New("broker: order not found")
	ErrIllegalTransition = errors.New("broker: illegal status transition")
	ErrUnsupportedBroker = errors.New("broker: unsupported broker")
)

type Order struct {
	ID            string
	ClientOrderID string
	Ticker        string
	Side          portfolio.Side
	Quantity      int64
	Type          OrderType
	LimitPrice    *float64
	StopPrice     *float64
	TimeInForce   TimeInForce
	Status        Status
	CreatedAt     time.Time
	Note          string
}

// NewMarketOrder builds a DAY market order in status NEW.
func NewMarketOrder(ticker string, side portfolio.Side, qty int64) Order {
	return Order{
		Ticker:      ticker,
		Side:        side,
		Quantity:    qty,
		Type:        Market,
		TimeInForce: Day,
		Status:      StatusNew,
	}
}

func (o Order) Validate() error {
	if o.Ticker == "" {
		return fmt.Errorf("%w: ticker is required", ErrInvalidOrder)
	}
	if o.Side != portfolio.Buy && o.Side != portfolio.Sell {
		return fmt.Errorf("%w: side %q", ErrInvalidOrder, o.Side)
	}
	if o.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidOrder, o.Quantity)
	}
	switch o.Type {
	case Market:
	case Limit:
		if o.LimitPrice == nil || *o.LimitPrice <= 0 {
			return fmt.Errorf("%w: limit order needs a positive limit price", ErrInvalidOrder)
		}
	case Stop:
		if o.StopPrice == nil || *o.StopPrice <= 0 {
			return fmt.Errorf("%w: stop order needs a positive stop price", ErrInvalidOrder)
		}
	case StopLimit:
		if o.LimitPrice == nil || o.StopPrice == nil || *o.LimitPrice <= 0 || *o.StopPrice <= 0 {
			return fmt.Errorf("%w: stop-limit order needs stop and limit prices", ErrInvalidOrder)
		}
	default:
		return fmt.Errorf("%w: order type %q", ErrInvalidOrder, o.Type)
	}
	return nil
}

// Transition moves the order to status to, refusing illegal moves.
func (o *Order) Transition(to Status) error {
	if !o.Status.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s (order %s)", ErrIllegalTransition, o.Status, to, o.ID)
	}
	o.Status = to
	return nil
}

// Marketable reports whether the order would fill in full at price.
func (o Order) Marketable(price float64) bool {
	buy := o.Side == portfolio.Buy
	stopHit := func() bool {
		if buy {
			return price >= *o.StopPrice
		}
		return price <= *o.StopPrice
	}
	limitOK := func() bool {
		if buy {
			return price <= *o.LimitPrice
		}
		return price >= *o.LimitPrice
	}

	switch o.Type {
	case Limit:
		return limitOK()
	case Stop:
		return stopHit()
	case StopLimit:
		return stopHit() && limitOK()
	}
	return true
}

type OrderResult struct {
	OrderID        string
	Ticker         string
	Side           portfolio.Side
	Status         Status
	FilledQuantity int64
	AvgFillPrice   float64
	FilledAt       time.Time
	Message        string
}
