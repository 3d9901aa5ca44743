// Package alpaca adapts the Alpaca trading API to broker.Broker.
package alpaca

import (
	"context"
	"fmt"
	"strings"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/rohitashwachaks/traderplusplus/broker"
	"github.com/rohitashwachaks/traderplusplus/portfolio"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const Name = "alpaca"

// tradingClient is the subset of *alpaca.Client the adapter needs.
type tradingClient interface {
	PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error)
	CancelOrder(orderID string) error
	GetOrder(orderID string) (*alpaca.Order, error)
	GetPositions() ([]alpaca.Position, error)
}

type Broker struct {
	client tradingClient
	log    *log.Entry
}

var _ broker.Broker = (*Broker)(nil)

// New connects to the Alpaca trading API. An empty BaseURL selects the
// SDK default (paper trading unless overridden by APCA_API_BASE_URL).
func New(s broker.Settings) (broker.Broker, error) {
	if s.APIKey == "" || s.APISecret == "" {
		return nil, fmt.Errorf("alpaca: api key and secret are required")
	}
	c := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    s.APIKey,
		APISecret: s.APISecret,
		BaseURL:   s.BaseURL,
	})
	return newBroker(c), nil
}

func newBroker(c tradingClient) *Broker {
	return &Broker{client: c, log: log.WithField("broker", Name)}
}

// Register adds the adapter to r.
func Register(r *broker.Registry) {
	r.Register(Name, New)
}

func (b *Broker) Name() string { return Name }

func (b *Broker) SubmitOrder(ctx context.Context, o broker.Order) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := o.Validate(); err != nil {
		return "", err
	}
	req, err := toPlaceOrderRequest(o)
	if err != nil {
		return "", err
	}
	placed, err := b.client.PlaceOrder(req)
	if err != nil {
		return "", fmt.Errorf("alpaca: place order %s %d %s: %w", o.Side, o.Quantity, o.Ticker, err)
	}
	b.log.WithField("order_id", placed.ID).Infof("submitted %s %d %s", o.Side, o.Quantity, o.Ticker)
	return placed.ID, nil
}

func (b *Broker) CancelOrder(ctx context.Context, orderID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.client.CancelOrder(orderID); err != nil {
		return fmt.Errorf("alpaca: cancel %s: %w", orderID, err)
	}
	return nil
}

func (b *Broker) GetOrderStatus(ctx context.Context, orderID string) (broker.Status, error) {
	res, err := b.GetFillInfo(ctx, orderID)
	if err != nil {
		return "", err
	}
	return res.Status, nil
}

func (b *Broker) GetPositions(ctx context.Context) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	positions, err := b.client.GetPositions()
	if err != nil {
		return nil, fmt.Errorf("alpaca: positions: %w", err)
	}
	out := make(map[string]int64, len(positions))
	for _, p := range positions {
		out[strings.ToUpper(p.Symbol)] = p.Qty.IntPart()
	}
	return out, nil
}

func (b *Broker) GetFillInfo(ctx context.Context, orderID string) (broker.OrderResult, error) {
	if err := ctx.Err(); err != nil {
		return broker.OrderResult{}, err
	}
	o, err := b.client.GetOrder(orderID)
	if err != nil {
		return broker.OrderResult{}, fmt.Errorf("alpaca: get order %s: %w", orderID, err)
	}
	return fromAlpacaOrder(o), nil
}

func toPlaceOrderRequest(o broker.Order) (alpaca.PlaceOrderRequest, error) {
	qty := decimal.NewFromInt(o.Quantity)
	req := alpaca.PlaceOrderRequest{
		Symbol:        o.Ticker,
		Qty:           &qty,
		ClientOrderID: o.ClientOrderID,
	}

	switch o.Side {
	case portfolio.Buy:
		req.Side = alpaca.Buy
	case portfolio.Sell:
		req.Side = alpaca.Sell
	default:
		return req, fmt.Errorf("%w: side %q", broker.ErrInvalidOrder, o.Side)
	}

	switch o.Type {
	case broker.Market:
		req.Type = alpaca.Market
	case broker.Limit:
		req.Type = alpaca.Limit
	case broker.Stop:
		req.Type = alpaca.Stop
	case broker.StopLimit:
		req.Type = alpaca.StopLimit
	default:
		return req, fmt.Errorf("%w: order type %q", broker.ErrInvalidOrder, o.Type)
	}
	if o.LimitPrice != nil {
		lp := decimal.NewFromFloat(*o.LimitPrice)
		req.LimitPrice = &lp
	}
	if o.StopPrice != nil {
		sp := decimal.NewFromFloat(*o.StopPrice)
		req.StopPrice = &sp
	}

	switch o.TimeInForce {
	case broker.Day, "":
		req.TimeInForce = alpaca.Day
	case broker.GTC:
		req.TimeInForce = alpaca.GTC
	case broker.IOC:
		req.TimeInForce = alpaca.IOC
	case broker.FOK:
		req.TimeInForce = alpaca.FOK
	default:
		return req, fmt.Errorf("%w: time in force %q", broker.ErrInvalidOrder, o.TimeInForce)
	}
	return req, nil
}

func fromAlpacaOrder(o *alpaca.Order) broker.OrderResult {
	res := broker.OrderResult{
		OrderID:        o.ID,
		Ticker:         o.Symbol,
		Status:         mapStatus(o.Status),
		FilledQuantity: o.FilledQty.IntPart(),
	}
	switch o.Side {
	case alpaca.Buy:
		res.Side = portfolio.Buy
	case alpaca.Sell:
		res.Side = portfolio.Sell
	}
	if o.FilledAvgPrice != nil {
		res.AvgFillPrice = o.FilledAvgPrice.InexactFloat64()
	}
	if o.FilledAt != nil {
		res.FilledAt = *o.FilledAt
	}
	if res.Status == broker.StatusRejected {
		res.Message = "rejected by alpaca"
	}
	return res
}

func mapStatus(s string) broker.Status {
	switch strings.ToLower(s) {
	case "new", "accepted", "pending_new", "accepted_for_bidding", "pending_replace", "replaced", "calculated":
		return broker.StatusSubmitted
	case "partially_filled":
		return broker.StatusPartiallyFilled
	case "filled":
		return broker.StatusFilled
	case "canceled", "pending_cancel", "stopped":
		return broker.StatusCancelled
	case "expired", "done_for_day":
		return broker.StatusExpired
	case "rejected", "suspended":
		return broker.StatusRejected
	}
	return broker.StatusNew
}
