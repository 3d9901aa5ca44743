package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rohitashwachaks/traderplusplus/broker"
	"github.com/rohitashwachaks/traderplusplus/guardrail"
	"github.com/rohitashwachaks/traderplusplus/journal"
	"github.com/rohitashwachaks/traderplusplus/market"
	"github.com/rohitashwachaks/traderplusplus/portfolio"
	"github.com/rohitashwachaks/traderplusplus/risk"
	"github.com/rohitashwachaks/traderplusplus/strategies"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrStepOutOfOrder = errors.New("sim: step date not after last recorded date")

// NoteBacktestFill marks trades from orders submitted through the broker API.
const NoteBacktestFill = "Backtest Fill"

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Date      time.Time
	NetWorth  decimal.Decimal
	Cash      decimal.Decimal
	Benchmark *float64
}

// StepReport describes what happened on one simulated date.
type StepReport struct {
	Date    time.Time
	Signals strategies.Signals
	Exits   guardrail.Exits
	Orders  []broker.OrderResult

	// Tickers with a signal but no price on Date.
	Unpriced []string

	// Held tickers valued at zero under MissingPriceZero.
	ZeroFilled []string

	Equity EquityPoint
}

// Executor advances a portfolio one date at a time. It is also a
// broker.Broker whose orders fill on the next Step.
type Executor struct {
	mu sync.Mutex

	portfolio  *portfolio.Portfolio
	cursor     *market.Cursor
	strategy   strategies.Strategy
	guardrails []guardrail.Guardrail
	opts       Options
	log        *log.Entry

	orders  map[string]*broker.Order
	results map[string]broker.OrderResult
	pending []string

	equity []EquityPoint
}

var _ broker.Broker = (*Executor)(nil)

func New(p *portfolio.Portfolio, c *market.Cursor, s strategies.Strategy, guards []guardrail.Guardrail, opts Options) (*Executor, error) {
	if p == nil || c == nil || s == nil {
		return nil, fmt.Errorf("sim: portfolio, cursor and strategy are required")
	}
	if err := opts.defaults(); err != nil {
		return nil, err
	}
	if opts.Universe == nil {
		opts.Universe = p.Tickers
	}
	return &Executor{
		portfolio:  p,
		cursor:     c,
		strategy:   s,
		guardrails: guards,
		opts:       opts,
		log:        opts.Log,
		orders:     make(map[string]*broker.Order),
		results:    make(map[string]broker.OrderResult),
	}, nil
}

func (e *Executor) Portfolio() *portfolio.Portfolio { return e.portfolio }

// Equity returns a copy of the equity curve.
func (e *Executor) Equity() []EquityPoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]EquityPoint(nil), e.equity...)
}

// Step runs one simulated date: strategy signals, guardrail exits, order
// fills and one equity sample. A failed order never fails the step.
func (e *Executor) Step(ctx context.Context, date time.Time) (StepReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rep := StepReport{Date: date}

	if n := len(e.equity); n > 0 && !date.After(e.equity[n-1].Date) {
		return rep, fmt.Errorf("%w: %s <= %s", ErrStepOutOfOrder,
			date.Format("2006-01-02"), e.equity[n-1].Date.Format("2006-01-02"))
	}
	prices := e.cursor.Prices(date)
	if len(prices) == 0 {
		return rep, &market.OutOfRangeError{Date: date, Reason: "not a trading date"}
	}
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	// 1. strategy, on its own copy of the holdings
	signals, err := e.strategy.GenerateSignals(strategies.Context{
		Window:    e.cursor.Window(date, e.strategy.Lookback(), e.opts.Universe),
		Date:      date,
		Positions: e.portfolio.Positions(),
		Cash:      e.portfolio.Cash(),
	})
	if err != nil {
		return rep, fmt.Errorf("sim: %s signals: %w", e.strategy.Name(), err)
	}
	merged := strategies.Signals{}
	for t, n := range signals {
		merged.Set(t, n)
	}

	// 2. guardrails
	positions := e.portfolio.Positions()
	exits := guardrail.Exits{}
	for _, g := range e.guardrails {
		exits.Merge(g.Evaluate(positions, prices))
	}

	// 3. forced exits override the strategy
	for _, t := range exits.Tickers() {
		if held := positions[t]; held > 0 {
			merged[t] = -held
		} else {
			delete(merged, t)
		}
		e.unregister(t)
		e.log.WithFields(log.Fields{"date": date.Format("2006-01-02"), "ticker": t, "reason": exits[t]}).
			Info("guardrail exit")
	}
	rep.Signals = merged
	rep.Exits = exits

	// 4. orders from signals, priced at the reference close. They live
	// only for this step; submitted orders stay queryable.
	var queue []*broker.Order
	var transient []string
	for _, t := range sortedKeys(merged) {
		n := merged[t]
		if _, ok := prices[t]; !ok {
			rep.Unpriced = append(rep.Unpriced, t)
			e.log.WithFields(log.Fields{"date": date.Format("2006-01-02"), "ticker": t}).
				Debug("no price, signal skipped")
			continue
		}
		side, qty := portfolio.Buy, n
		if n < 0 {
			side, qty = portfolio.Sell, -n
		}
		o := broker.NewMarketOrder(t, side, qty)
		o.ID = uuid.NewString()
		o.CreatedAt = date
		o.Note = portfolio.DefaultNote
		if reason, ok := exits[t]; ok {
			o.Note = reason
		}
		if err := o.Transition(broker.StatusSubmitted); err != nil {
			return rep, err
		}
		transient = append(transient, o.ID)
		queue = append(queue, &o)
	}
	for _, id := range e.pending {
		o := e.orders[id]
		if reason, ok := exits[o.Ticker]; ok && o.Side == portfolio.Buy {
			rep.Orders = append(rep.Orders, e.reject(date, o, "guardrail exit on "+o.Ticker+": "+reason))
			continue
		}
		queue = append(queue, o)
	}
	e.pending = nil

	// 5. sells before buys, tickers in order
	sort.SliceStable(queue, func(i, j int) bool {
		if queue[i].Side != queue[j].Side {
			return queue[i].Side == portfolio.Sell
		}
		return queue[i].Ticker < queue[j].Ticker
	})
	for _, o := range queue {
		rep.Orders = append(rep.Orders, e.fill(date, o, prices))
	}
	for _, id := range transient {
		delete(e.results, id)
	}

	// 6. equity sample
	pt, missing, err := e.sample(date, prices)
	if err != nil {
		return rep, err
	}
	rep.ZeroFilled = missing
	rep.Equity = pt
	e.equity = append(e.equity, pt)

	nw, _ := pt.NetWorth.Float64()
	cash, _ := pt.Cash.Float64()
	if err := e.opts.Journal.RecordEquity(journal.EquitySnapshot{
		RunID:     e.opts.RunID,
		Date:      date,
		NetWorth:  nw,
		Cash:      cash,
		Benchmark: pt.Benchmark,
	}); err != nil {
		e.log.WithError(err).Warn("journal equity write failed")
	}
	return rep, nil
}

func (e *Executor) fill(date time.Time, o *broker.Order, prices map[string]float64) broker.OrderResult {
	res := broker.OrderResult{OrderID: o.ID, Ticker: o.Ticker, Side: o.Side}
	reject := func(msg string) broker.OrderResult { return e.reject(date, o, msg) }

	ref, ok := prices[o.Ticker]
	if !ok {
		return reject("no price on " + date.Format("2006-01-02"))
	}
	if !o.Marketable(ref) {
		return reject(fmt.Sprintf("%s order not marketable at %.4f", o.Type, ref))
	}

	qty := o.Quantity
	px := ref
	switch o.Side {
	case portfolio.Sell:
		px = ref * (1 - e.opts.Slippage)
		held := e.portfolio.Position(o.Ticker)
		if qty > held {
			if e.opts.SellPolicy == SellReject || held == 0 {
				return reject((&portfolio.InsufficientSharesError{Ticker: o.Ticker, Held: held, Want: qty}).Error())
			}
			qty = held
		}
	case portfolio.Buy:
		px = ref * (1 + e.opts.Slippage)
		if e.opts.Risk.Enabled() {
			if d := e.checkRisk(o.Ticker, qty, px, prices); !d.Allowed {
				return reject(d.Reason())
			}
		}
	}

	rec, err := e.portfolio.ExecuteTrade(date, o.Ticker, o.Side, qty, decimal.NewFromFloat(px), o.Note)
	if err != nil {
		return reject(err.Error())
	}
	if err := o.Transition(broker.StatusFilled); err != nil {
		return reject(err.Error())
	}

	if o.Side == portfolio.Buy {
		for _, g := range e.guardrails {
			if tr, ok := g.(guardrail.EntryTracker); ok {
				tr.RegisterEntry(o.Ticker, px)
			}
		}
	}

	res.Status = o.Status
	res.FilledQuantity = qty
	res.AvgFillPrice = px
	res.FilledAt = date
	e.results[o.ID] = res

	price, _ := rec.Price.Float64()
	amount, _ := rec.Amount.Float64()
	cash, _ := rec.CashRemaining.Float64()
	if err := e.opts.Journal.RecordTrade(journal.TradeRecord{
		RunID:         e.opts.RunID,
		Seq:           rec.Seq,
		Date:          rec.Date,
		Ticker:        rec.Ticker,
		Action:        string(rec.Action),
		Shares:        rec.Shares,
		Price:         price,
		Amount:        amount,
		CashRemaining: cash,
		Note:          rec.Note,
	}); err != nil {
		e.log.WithError(err).Warn("journal trade write failed")
	}
	return res
}

func (e *Executor) reject(date time.Time, o *broker.Order, msg string) broker.OrderResult {
	_ = o.Transition(broker.StatusRejected)
	res := broker.OrderResult{OrderID: o.ID, Ticker: o.Ticker, Side: o.Side, Status: o.Status, Message: msg}
	e.results[o.ID] = res
	e.log.WithFields(log.Fields{
		"date":   date.Format("2006-01-02"),
		"order":  o.ID,
		"ticker": o.Ticker,
		"side":   o.Side,
		"qty":    o.Quantity,
	}).Info("order rejected: " + msg)
	return res
}

func (e *Executor) checkRisk(ticker string, qty int64, px float64, prices map[string]float64) risk.Decision {
	nw, _ := e.portfolio.NetWorthZeroFill(prices)
	netWorth, _ := nw.Float64()
	held := e.portfolio.Position(ticker)
	return risk.Evaluate(e.opts.Risk,
		risk.TradeIntent{Ticker: ticker, Shares: qty, Price: px},
		risk.AccountSnapshot{
			NetWorth:      netWorth,
			PositionValue: float64(held) * prices[ticker],
			OpenPositions: len(e.portfolio.Held()),
			HoldsTicker:   held > 0,
		})
}

func (e *Executor) sample(date time.Time, prices map[string]float64) (EquityPoint, []string, error) {
	pt := EquityPoint{Date: date, Cash: e.portfolio.Cash()}
	var missing []string
	switch e.opts.MissingPrice {
	case MissingPriceZero:
		pt.NetWorth, missing = e.portfolio.NetWorthZeroFill(prices)
		if len(missing) > 0 {
			e.log.WithFields(log.Fields{"date": date.Format("2006-01-02"), "tickers": missing}).
				Warn("holdings valued at zero")
		}
	default:
		nw, err := e.portfolio.NetWorth(prices)
		if err != nil {
			var mp *portfolio.MissingPriceError
			if errors.As(err, &mp) {
				mp.Date = date
			}
			return pt, nil, err
		}
		pt.NetWorth = nw
	}
	if e.opts.Benchmark != "" {
		if px, ok := e.cursor.Price(e.opts.Benchmark, date, market.Close); ok {
			pt.Benchmark = &px
		}
	}
	return pt, missing, nil
}

func (e *Executor) unregister(ticker string) {
	for _, g := range e.guardrails {
		if tr, ok := g.(guardrail.EntryTracker); ok {
			tr.Unregister(ticker)
		}
	}
}

func sortedKeys(s strategies.Signals) []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
