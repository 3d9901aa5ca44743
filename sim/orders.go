package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rohitashwachaks/traderplusplus/broker"
	log "github.com/sirupsen/logrus"
)

func (e *Executor) Name() string { return "backtest" }

// SubmitOrder queues o for the next Step. The order id is the client order
// id when given, a fresh uuid otherwise.
func (e *Executor) SubmitOrder(ctx context.Context, o broker.Order) (string, error) {
	if err := o.Validate(); err != nil {
		return "", err
	}
	if o.TimeInForce == "" {
		o.TimeInForce = broker.Day
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	o.ID = o.ClientOrderID
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if _, dup := e.orders[o.ID]; dup {
		return "", fmt.Errorf("%w: duplicate order id %q", broker.ErrInvalidOrder, o.ID)
	}
	if o.Note == "" {
		o.Note = NoteBacktestFill
	}
	o.Status = broker.StatusNew
	o.CreatedAt = time.Now().UTC()
	if err := o.Transition(broker.StatusSubmitted); err != nil {
		return "", err
	}

	e.orders[o.ID] = &o
	e.pending = append(e.pending, o.ID)
	e.log.WithFields(log.Fields{"order": o.ID, "ticker": o.Ticker, "side": o.Side, "qty": o.Quantity}).
		Debug("order submitted")
	return o.ID, nil
}

// CancelOrder cancels an order that has not filled yet.
func (e *Executor) CancelOrder(ctx context.Context, orderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.orders[orderID]
	if !ok {
		return fmt.Errorf("%w: %s", broker.ErrOrderNotFound, orderID)
	}
	if err := o.Transition(broker.StatusCancelled); err != nil {
		return err
	}
	for i, id := range e.pending {
		if id == orderID {
			e.pending = append(e.pending[:i], e.pending[i+1:]...)
			break
		}
	}
	e.results[orderID] = broker.OrderResult{
		OrderID: orderID,
		Ticker:  o.Ticker,
		Side:    o.Side,
		Status:  o.Status,
		Message: "cancelled",
	}
	return nil
}

func (e *Executor) GetOrderStatus(ctx context.Context, orderID string) (broker.Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.orders[orderID]
	if !ok {
		return "", fmt.Errorf("%w: %s", broker.ErrOrderNotFound, orderID)
	}
	return o.Status, nil
}

func (e *Executor) GetPositions(ctx context.Context) (map[string]int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.portfolio.Positions(), nil
}

// GetFillInfo reports the outcome of an order. Orders still waiting for a
// step come back with status SUBMITTED and nothing filled.
func (e *Executor) GetFillInfo(ctx context.Context, orderID string) (broker.OrderResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if res, ok := e.results[orderID]; ok {
		return res, nil
	}
	o, ok := e.orders[orderID]
	if !ok {
		return broker.OrderResult{}, fmt.Errorf("%w: %s", broker.ErrOrderNotFound, orderID)
	}
	return broker.OrderResult{OrderID: o.ID, Ticker: o.Ticker, Side: o.Side, Status: o.Status}, nil
}
