package sim

import (
	"context"
	"testing"
	"time"

	"github.com/rohitashwachaks/traderplusplus/broker"
	"github.com/rohitashwachaks/traderplusplus/guardrail"
	"github.com/rohitashwachaks/traderplusplus/journal"
	"github.com/rohitashwachaks/traderplusplus/market"
	"github.com/rohitashwachaks/traderplusplus/portfolio"
	"github.com/rohitashwachaks/traderplusplus/risk"
	"github.com/rohitashwachaks/traderplusplus/strategies"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

// scripted emits fixed signals per date.
type scripted struct {
	plan map[int]strategies.Signals
	seen []strategies.Context
}

func (s *scripted) Name() string  { return "scripted" }
func (s *scripted) Lookback() int { return 0 }

func (s *scripted) GenerateSignals(ctx strategies.Context) (strategies.Signals, error) {
	s.seen = append(s.seen, ctx)
	return s.plan[ctx.Date.Day()], nil
}

func newCursor(t *testing.T, closes map[string][]float64) *market.Cursor {
	t.Helper()
	frames := map[string][]market.Bar{}
	for ticker, cs := range closes {
		for i, c := range cs {
			frames[ticker] = append(frames[ticker], market.Bar{
				Date: day(i + 1), Open: c, High: c, Low: c, Close: c, Volume: 100,
			})
		}
	}
	c, err := market.NewCursor(frames)
	require.NoError(t, err)
	return c
}

func newExecutor(t *testing.T, cash int64, c *market.Cursor, s strategies.Strategy, guards []guardrail.Guardrail, opts Options) *Executor {
	t.Helper()
	p, err := portfolio.New("test", c.Tickers(), "", decimal.NewFromInt(cash))
	require.NoError(t, err)
	e, err := New(p, c, s, guards, opts)
	require.NoError(t, err)
	return e
}

func run(t *testing.T, e *Executor, days ...int) []StepReport {
	t.Helper()
	var out []StepReport
	for _, d := range days {
		rep, err := e.Step(context.Background(), day(d))
		require.NoError(t, err)
		out = append(out, rep)
	}
	return out
}

func TestGuardrailExitBeatsBuySignal(t *testing.T) {
	t.Parallel()

	c := newCursor(t, map[string][]float64{"AAA": {100, 120, 113}})
	ts, err := guardrail.NewTrailingStop(0.05)
	require.NoError(t, err)
	s := &scripted{plan: map[int]strategies.Signals{
		1: {"AAA": 100},
		3: {"AAA": 10},
	}}
	e := newExecutor(t, 100000, c, s, []guardrail.Guardrail{ts}, Options{})

	reps := run(t, e, 1, 2, 3)

	last := reps[2]
	assert.Equal(t, guardrail.ReasonTrailingStop, last.Exits["AAA"])
	require.Len(t, last.Orders, 1)
	assert.Equal(t, portfolio.Sell, last.Orders[0].Side)
	assert.Equal(t, broker.StatusFilled, last.Orders[0].Status)
	assert.Equal(t, int64(100), last.Orders[0].FilledQuantity)

	assert.Equal(t, int64(0), e.Portfolio().Position("AAA"))
	assert.True(t, e.Portfolio().Cash().Equal(decimal.NewFromInt(101300)))

	log := e.Portfolio().TradeLog()
	require.Len(t, log, 2)
	assert.Equal(t, portfolio.DefaultNote, log[0].Note)
	assert.Equal(t, guardrail.ReasonTrailingStop, log[1].Note)

	_, tracked := ts.HighWaterMark("AAA")
	assert.False(t, tracked)
}

func TestSellPolicy(t *testing.T) {
	t.Parallel()

	c := newCursor(t, map[string][]float64{"AAA": {10, 10}})
	plan := map[int]strategies.Signals{1: {"AAA": 10}, 2: {"AAA": -25}}

	clamp := newExecutor(t, 1000, c, &scripted{plan: plan}, nil, Options{})
	reps := run(t, clamp, 1, 2)
	assert.Equal(t, broker.StatusFilled, reps[1].Orders[0].Status)
	assert.Equal(t, int64(10), reps[1].Orders[0].FilledQuantity)
	assert.Equal(t, int64(0), clamp.Portfolio().Position("AAA"))

	reject := newExecutor(t, 1000, c, &scripted{plan: plan}, nil, Options{SellPolicy: SellReject})
	reps = run(t, reject, 1, 2)
	assert.Equal(t, broker.StatusRejected, reps[1].Orders[0].Status)
	assert.Contains(t, reps[1].Orders[0].Message, "insufficient shares")
	assert.Equal(t, int64(10), reject.Portfolio().Position("AAA"))
}

func TestSellWithoutPositionIsRejected(t *testing.T) {
	t.Parallel()

	c := newCursor(t, map[string][]float64{"AAA": {10}})
	e := newExecutor(t, 1000, c, &scripted{plan: map[int]strategies.Signals{1: {"AAA": -5}}}, nil, Options{})

	reps := run(t, e, 1)
	assert.Equal(t, broker.StatusRejected, reps[0].Orders[0].Status)
	assert.Empty(t, e.Portfolio().TradeLog())
	assert.True(t, reps[0].Equity.NetWorth.Equal(decimal.NewFromInt(1000)))
}

func TestRejectedOrderDoesNotStopStep(t *testing.T) {
	t.Parallel()

	c := newCursor(t, map[string][]float64{"AAA": {100}, "BBB": {50}})
	s := &scripted{plan: map[int]strategies.Signals{1: {"AAA": 1000, "BBB": 2}}}
	e := newExecutor(t, 1000, c, s, nil, Options{})

	reps := run(t, e, 1)
	require.Len(t, reps[0].Orders, 2)
	assert.Equal(t, "AAA", reps[0].Orders[0].Ticker)
	assert.Equal(t, broker.StatusRejected, reps[0].Orders[0].Status)
	assert.Equal(t, broker.StatusFilled, reps[0].Orders[1].Status)
	assert.Equal(t, int64(2), e.Portfolio().Position("BBB"))
	assert.True(t, e.Portfolio().Cash().Equal(decimal.NewFromInt(900)))
}

func TestSellsFillBeforeBuys(t *testing.T) {
	t.Parallel()

	c := newCursor(t, map[string][]float64{"AAA": {100, 100}, "BBB": {100, 100}})
	s := &scripted{plan: map[int]strategies.Signals{
		1: {"BBB": 10},
		2: {"AAA": 10, "BBB": -10},
	}}
	e := newExecutor(t, 1000, c, s, nil, Options{})

	reps := run(t, e, 1, 2)
	require.Len(t, reps[1].Orders, 2)
	assert.Equal(t, portfolio.Sell, reps[1].Orders[0].Side)
	assert.Equal(t, broker.StatusFilled, reps[1].Orders[1].Status, "buy funded by the sell")
	assert.Equal(t, int64(10), e.Portfolio().Position("AAA"))
}

func TestOneEquityPointPerDate(t *testing.T) {
	t.Parallel()

	c := newCursor(t, map[string][]float64{"AAA": {10, 11, 12}, "SPY": {400, 401, 402}})
	mem := journal.NewMemory()
	e := newExecutor(t, 1000, c, &scripted{plan: map[int]strategies.Signals{1: {"AAA": 10}}}, nil,
		Options{Benchmark: "SPY", Journal: mem, RunID: "r1"})

	run(t, e, 1, 2, 3)

	_, err := e.Step(context.Background(), day(3))
	assert.ErrorIs(t, err, ErrStepOutOfOrder)
	_, err = e.Step(context.Background(), day(2))
	assert.ErrorIs(t, err, ErrStepOutOfOrder)

	eq := e.Equity()
	require.Len(t, eq, 3)
	for i, pt := range eq {
		assert.Equal(t, day(i+1), pt.Date)
	}
	assert.True(t, eq[2].NetWorth.Equal(decimal.NewFromInt(1020)))
	require.NotNil(t, eq[2].Benchmark)
	assert.Equal(t, 402.0, *eq[2].Benchmark)

	assert.Len(t, mem.Equity(), 3)
	require.Len(t, mem.Trades(), 1)
	assert.Equal(t, "r1", mem.Trades()[0].RunID)
	assert.Equal(t, "BUY", mem.Trades()[0].Action)
}

func TestStepOnUnknownDate(t *testing.T) {
	t.Parallel()

	c := newCursor(t, map[string][]float64{"AAA": {10}})
	e := newExecutor(t, 1000, c, strategies.NoopStrategy{}, nil, Options{})

	_, err := e.Step(context.Background(), day(20))
	assert.ErrorIs(t, err, market.ErrOutOfRange)
	assert.Empty(t, e.Equity())
}

func TestMissingPricePolicy(t *testing.T) {
	t.Parallel()

	c := newCursor(t, map[string][]float64{"AAA": {10}})

	strict := newExecutor(t, 1000, c, strategies.NoopStrategy{}, nil, Options{})
	_, err := strict.Portfolio().ExecuteTrade(day(1), "ZZZ", portfolio.Buy, 1, decimal.NewFromInt(100), "")
	require.NoError(t, err)
	_, err = strict.Step(context.Background(), day(1))
	assert.ErrorIs(t, err, portfolio.ErrMissingPrice)
	assert.Empty(t, strict.Equity())

	lenient := newExecutor(t, 1000, c, strategies.NoopStrategy{}, nil, Options{MissingPrice: MissingPriceZero})
	_, err = lenient.Portfolio().ExecuteTrade(day(1), "ZZZ", portfolio.Buy, 1, decimal.NewFromInt(100), "")
	require.NoError(t, err)
	reps := run(t, lenient, 1)
	assert.Equal(t, []string{"ZZZ"}, reps[0].ZeroFilled)
	assert.True(t, reps[0].Equity.NetWorth.Equal(decimal.NewFromInt(900)))
}

func TestSlippage(t *testing.T) {
	t.Parallel()

	c := newCursor(t, map[string][]float64{"AAA": {100, 100}})
	s := &scripted{plan: map[int]strategies.Signals{1: {"AAA": 4}, 2: {"AAA": -4}}}
	e := newExecutor(t, 1000, c, s, nil, Options{Slippage: 0.25})

	reps := run(t, e, 1, 2)
	assert.Equal(t, 125.0, reps[0].Orders[0].AvgFillPrice)
	assert.Equal(t, 75.0, reps[1].Orders[0].AvgFillPrice)
	assert.True(t, e.Portfolio().Cash().Equal(decimal.NewFromInt(800)))
}

func TestRiskPolicyRejectsBuy(t *testing.T) {
	t.Parallel()

	c := newCursor(t, map[string][]float64{"AAA": {100}, "BBB": {100}})
	s := &scripted{plan: map[int]strategies.Signals{1: {"AAA": 200, "BBB": 50}}}
	e := newExecutor(t, 100000, c, s, nil, Options{Risk: risk.Policy{MaxPositionPct: 0.1}})

	reps := run(t, e, 1)
	assert.Equal(t, broker.StatusRejected, reps[0].Orders[0].Status)
	assert.Contains(t, reps[0].Orders[0].Message, "exceeds max")
	assert.Equal(t, broker.StatusFilled, reps[0].Orders[1].Status)
}

func TestStrategySeesOnlyPastData(t *testing.T) {
	t.Parallel()

	c := newCursor(t, map[string][]float64{"AAA": {1, 2, 3, 4}})
	s := &scripted{}
	e := newExecutor(t, 1000, c, s, nil, Options{})

	run(t, e, 1, 2, 3, 4)
	require.Len(t, s.seen, 4)
	for i, ctx := range s.seen {
		closes := ctx.Window.Closes("AAA")
		assert.Len(t, closes, i+1)
		assert.Equal(t, float64(i+1), closes[len(closes)-1])
	}
}

func TestNewValidatesOptions(t *testing.T) {
	t.Parallel()

	c := newCursor(t, map[string][]float64{"AAA": {10}})
	p, err := portfolio.New("x", []string{"AAA"}, "", decimal.NewFromInt(1))
	require.NoError(t, err)

	_, err = New(p, c, strategies.NoopStrategy{}, nil, Options{SellPolicy: "maybe"})
	assert.Error(t, err)
	_, err = New(p, c, strategies.NoopStrategy{}, nil, Options{Slippage: 1.5})
	assert.Error(t, err)
	_, err = New(nil, c, strategies.NoopStrategy{}, nil, Options{})
	assert.Error(t, err)
}

// meddler scribbles over the holdings it is handed.
type meddler struct{}

func (meddler) Name() string  { return "meddler" }
func (meddler) Lookback() int { return 0 }

func (meddler) GenerateSignals(ctx strategies.Context) (strategies.Signals, error) {
	if ctx.Date.Day() == 1 {
		return strategies.Signals{"AAA": 100}, nil
	}
	for t := range ctx.Positions {
		ctx.Positions[t] = 1000
	}
	return nil, nil
}

func TestStrategyCannotResizeForcedExit(t *testing.T) {
	t.Parallel()

	c := newCursor(t, map[string][]float64{"AAA": {100, 120, 113}})
	ts, err := guardrail.NewTrailingStop(0.05)
	require.NoError(t, err)
	e := newExecutor(t, 100000, c, meddler{}, []guardrail.Guardrail{ts}, Options{SellPolicy: SellReject})

	reps := run(t, e, 1, 2, 3)

	last := reps[2]
	require.Len(t, last.Orders, 1)
	assert.Equal(t, broker.StatusFilled, last.Orders[0].Status)
	assert.Equal(t, int64(100), last.Orders[0].FilledQuantity)
	assert.Equal(t, int64(-100), last.Signals["AAA"])
	assert.Equal(t, int64(0), e.Portfolio().Position("AAA"))
}
