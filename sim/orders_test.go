package sim

import (
	"context"
	"testing"

	"github.com/rohitashwachaks/traderplusplus/broker"
	"github.com/rohitashwachaks/traderplusplus/guardrail"
	"github.com/rohitashwachaks/traderplusplus/portfolio"
	"github.com/rohitashwachaks/traderplusplus/strategies"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmittedOrderFillsOnNextStep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newCursor(t, map[string][]float64{"AAA": {10, 12}})
	e := newExecutor(t, 1000, c, strategies.NoopStrategy{}, nil, Options{})

	id, err := e.SubmitOrder(ctx, broker.NewMarketOrder("AAA", portfolio.Buy, 5))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	st, err := e.GetOrderStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, broker.StatusSubmitted, st)

	res, err := e.GetFillInfo(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.FilledQuantity)

	run(t, e, 1)

	res, err = e.GetFillInfo(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, broker.StatusFilled, res.Status)
	assert.Equal(t, int64(5), res.FilledQuantity)
	assert.Equal(t, 10.0, res.AvgFillPrice)

	pos, err := e.GetPositions(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"AAA": 5}, pos)
	assert.Equal(t, NoteBacktestFill, e.Portfolio().TradeLog()[0].Note)

	assert.ErrorIs(t, e.CancelOrder(ctx, id), broker.ErrIllegalTransition)
}

func TestCancelPendingOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newCursor(t, map[string][]float64{"AAA": {10}})
	e := newExecutor(t, 1000, c, strategies.NoopStrategy{}, nil, Options{})

	o := broker.NewMarketOrder("AAA", portfolio.Buy, 5)
	o.ClientOrderID = "mine-1"
	id, err := e.SubmitOrder(ctx, o)
	require.NoError(t, err)
	assert.Equal(t, "mine-1", id)

	_, err = e.SubmitOrder(ctx, o)
	assert.ErrorIs(t, err, broker.ErrInvalidOrder, "duplicate client id")

	require.NoError(t, e.CancelOrder(ctx, id))
	reps := run(t, e, 1)
	assert.Empty(t, reps[0].Orders)
	assert.Empty(t, e.Portfolio().TradeLog())

	st, err := e.GetOrderStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, broker.StatusCancelled, st)
}

func TestLimitOrderMustBeMarketable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newCursor(t, map[string][]float64{"AAA": {10}})
	e := newExecutor(t, 1000, c, strategies.NoopStrategy{}, nil, Options{})

	low := 9.0
	o := broker.NewMarketOrder("AAA", portfolio.Buy, 1)
	o.Type = broker.Limit
	o.LimitPrice = &low
	id, err := e.SubmitOrder(ctx, o)
	require.NoError(t, err)

	high := 11.0
	o2 := broker.NewMarketOrder("AAA", portfolio.Buy, 1)
	o2.Type = broker.Limit
	o2.LimitPrice = &high
	id2, err := e.SubmitOrder(ctx, o2)
	require.NoError(t, err)

	run(t, e, 1)

	res, err := e.GetFillInfo(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, broker.StatusRejected, res.Status)
	assert.Contains(t, res.Message, "not marketable")

	res, err = e.GetFillInfo(ctx, id2)
	require.NoError(t, err)
	assert.Equal(t, broker.StatusFilled, res.Status)
	assert.Equal(t, 10.0, res.AvgFillPrice)
}

func TestOrderAPIErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newCursor(t, map[string][]float64{"AAA": {10}})
	e := newExecutor(t, 1000, c, strategies.NoopStrategy{}, nil, Options{})

	_, err := e.SubmitOrder(ctx, broker.NewMarketOrder("AAA", portfolio.Buy, 0))
	assert.ErrorIs(t, err, broker.ErrInvalidOrder)

	_, err = e.GetOrderStatus(ctx, "nope")
	assert.ErrorIs(t, err, broker.ErrOrderNotFound)
	_, err = e.GetFillInfo(ctx, "nope")
	assert.ErrorIs(t, err, broker.ErrOrderNotFound)
	assert.ErrorIs(t, e.CancelOrder(ctx, "nope"), broker.ErrOrderNotFound)

	assert.Equal(t, "backtest", e.Name())
}

func TestGuardrailExitRejectsPendingBuy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newCursor(t, map[string][]float64{"AAA": {100, 120, 113}})
	ts, err := guardrail.NewTrailingStop(0.05)
	require.NoError(t, err)
	s := &scripted{plan: map[int]strategies.Signals{1: {"AAA": 100}}}
	e := newExecutor(t, 100000, c, s, []guardrail.Guardrail{ts}, Options{})

	run(t, e, 1, 2)
	id, err := e.SubmitOrder(ctx, broker.NewMarketOrder("AAA", portfolio.Buy, 10))
	require.NoError(t, err)
	reps := run(t, e, 3)

	require.Len(t, reps[0].Orders, 2)
	res, err := e.GetFillInfo(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, broker.StatusRejected, res.Status)
	assert.Contains(t, res.Message, guardrail.ReasonTrailingStop)
	assert.Equal(t, int64(0), res.FilledQuantity)

	assert.Equal(t, int64(0), e.Portfolio().Position("AAA"))
	log := e.Portfolio().TradeLog()
	require.Len(t, log, 2)
	assert.Equal(t, portfolio.Buy, log[0].Action)
	assert.Equal(t, portfolio.Sell, log[1].Action)
	assert.Equal(t, int64(100), log[1].Shares)

	_, tracked := ts.HighWaterMark("AAA")
	assert.False(t, tracked)
}

func TestPendingSellStillQueuesOnExit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newCursor(t, map[string][]float64{"AAA": {100, 120, 113}})
	ts, err := guardrail.NewTrailingStop(0.05)
	require.NoError(t, err)
	s := &scripted{plan: map[int]strategies.Signals{1: {"AAA": 100}}}
	e := newExecutor(t, 100000, c, s, []guardrail.Guardrail{ts}, Options{})

	run(t, e, 1, 2)
	id, err := e.SubmitOrder(ctx, broker.NewMarketOrder("AAA", portfolio.Sell, 10))
	require.NoError(t, err)
	run(t, e, 3)

	res, err := e.GetFillInfo(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, broker.StatusRejected, res.Status, "nothing left after the forced exit")
	assert.NotContains(t, res.Message, "guardrail exit")
	assert.Equal(t, int64(0), e.Portfolio().Position("AAA"))
}

func TestStrategyOrdersAreNotRetained(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newCursor(t, map[string][]float64{"AAA": {10, 11, 12}})
	s := &scripted{plan: map[int]strategies.Signals{1: {"AAA": 5}, 2: {"AAA": -5}}}
	e := newExecutor(t, 1000, c, s, nil, Options{})

	reps := run(t, e, 1, 2)
	require.Len(t, reps[0].Orders, 1)
	assert.Equal(t, broker.StatusFilled, reps[0].Orders[0].Status)
	assert.Empty(t, e.orders)
	assert.Empty(t, e.results)

	_, err := e.GetFillInfo(ctx, reps[0].Orders[0].OrderID)
	assert.ErrorIs(t, err, broker.ErrOrderNotFound)

	id, err := e.SubmitOrder(ctx, broker.NewMarketOrder("AAA", portfolio.Buy, 1))
	require.NoError(t, err)
	run(t, e, 3)
	assert.Len(t, e.orders, 1)
	res, err := e.GetFillInfo(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, broker.StatusFilled, res.Status)
}
