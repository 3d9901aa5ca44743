// Package backtest drives an Executor across a calendar of trading dates.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rohitashwachaks/traderplusplus/analytics"
	"github.com/rohitashwachaks/traderplusplus/datafeed"
	"github.com/rohitashwachaks/traderplusplus/guardrail"
	"github.com/rohitashwachaks/traderplusplus/market"
	"github.com/rohitashwachaks/traderplusplus/pkg/id"
	"github.com/rohitashwachaks/traderplusplus/portfolio"
	"github.com/rohitashwachaks/traderplusplus/sim"
	"github.com/rohitashwachaks/traderplusplus/strategies"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNoTradingDates      = errors.New("backtest: no common trading dates in range")
	ErrInsufficientHistory = errors.New("backtest: not enough history for the strategy look-back")
)

// Options configures one run.
type Options struct {
	Name         string
	RunID        string
	StartingCash decimal.Decimal
	Benchmark    string
	Interval     string

	Exec sim.Options
}

// Backtester wires a data provider, a strategy and guardrails into a run.
type Backtester struct {
	Provider   datafeed.Provider
	Strategy   strategies.Strategy
	Guardrails []guardrail.Guardrail
	Options    Options

	Log *log.Entry
}

// SkippedDate is a date whose step failed and left no equity sample.
type SkippedDate struct {
	Date time.Time
	Err  error
}

type Result struct {
	RunID     string
	Name      string
	Strategy  string
	Tickers   []string
	Benchmark string
	Start     time.Time
	End       time.Time

	StartingCash decimal.Decimal
	FinalCash    decimal.Decimal
	Positions    map[string]int64

	Equity  []sim.EquityPoint
	Trades  []portfolio.TradeRecord
	Skipped []SkippedDate
	Summary analytics.Summary
}

// Curve converts the equity curve for analytics.
func (r *Result) Curve() []analytics.Point {
	out := make([]analytics.Point, len(r.Equity))
	for i, p := range r.Equity {
		v, _ := p.NetWorth.Float64()
		out[i] = analytics.Point{Date: p.Date, Value: v, Benchmark: p.Benchmark}
	}
	return out
}

func (b *Backtester) logger() *log.Entry {
	if b.Log != nil {
		return b.Log
	}
	return log.WithField("component", "backtest")
}

// Run loads history for tickers (and the benchmark) early enough to cover
// the strategy look-back, then simulates every common date in [start, end].
func (b *Backtester) Run(ctx context.Context, tickers []string, start, end time.Time) (*Result, error) {
	if b.Provider == nil || b.Strategy == nil {
		return nil, errors.New("backtest: provider and strategy are required")
	}
	if len(tickers) == 0 {
		return nil, errors.New("backtest: no tickers")
	}
	if end.Before(start) {
		return nil, fmt.Errorf("backtest: end %s before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	dataStart := start.AddDate(0, 0, -(b.Strategy.Lookback() + 1))
	load := append([]string(nil), tickers...)
	if bm := b.Options.Benchmark; bm != "" && !contains(load, bm) {
		load = append(load, bm)
	}

	l := b.logger().WithFields(log.Fields{
		"strategy": b.Strategy.Name(),
		"provider": b.Provider.Name(),
		"from":     dataStart.Format("2006-01-02"),
		"to":       end.Format("2006-01-02"),
	})
	l.WithField("tickers", load).Info("loading price history")

	loader := &datafeed.Loader{Provider: b.Provider, Log: l}
	frames, err := loader.LoadAll(ctx, load, dataStart, end, b.Options.Interval)
	if err != nil {
		return nil, err
	}

	cursor, err := market.NewCursor(frames)
	if err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}
	cursor.SetStart(start)
	return b.Simulate(ctx, cursor, tickers, start)
}

// Simulate runs on a prepared cursor. The cursor is only read, so several
// Simulate calls may share it.
func (b *Backtester) Simulate(ctx context.Context, cursor *market.Cursor, tickers []string, start time.Time) (*Result, error) {
	if b.Strategy == nil {
		return nil, errors.New("backtest: strategy is required")
	}
	for _, t := range tickers {
		if !cursor.Has(t) {
			return nil, &market.OutOfRangeError{Ticker: t, Date: start, Reason: "ticker not loaded"}
		}
	}

	dates := cursor.DatesFrom(start)
	if len(dates) == 0 {
		return nil, ErrNoTradingDates
	}
	if lb := b.Strategy.Lookback(); lb > 0 {
		last := dates[len(dates)-1]
		if _, err := cursor.History(tickers[0], last, lb); err != nil {
			return nil, fmt.Errorf("%w: %s needs %d days before %s: %v",
				ErrInsufficientHistory, b.Strategy.Name(), lb, last.Format("2006-01-02"), err)
		}
	}

	o := b.Options
	if o.RunID == "" {
		o.RunID = id.New()
	}
	if o.StartingCash.IsZero() {
		o.StartingCash = decimal.NewFromInt(100000)
	}
	l := b.logger().WithFields(log.Fields{"run": o.RunID, "strategy": b.Strategy.Name()})

	p, err := portfolio.New(o.Name, tickers, o.Benchmark, o.StartingCash)
	if err != nil {
		return nil, err
	}
	execOpts := o.Exec
	execOpts.Universe = tickers
	execOpts.Benchmark = o.Benchmark
	execOpts.RunID = o.RunID
	if execOpts.Log == nil {
		execOpts.Log = l.WithField("component", "executor")
	}
	exec, err := sim.New(p, cursor, b.Strategy, b.Guardrails, execOpts)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:        o.RunID,
		Name:         o.Name,
		Strategy:     b.Strategy.Name(),
		Tickers:      append([]string(nil), tickers...),
		Benchmark:    o.Benchmark,
		Start:        dates[0],
		End:          dates[len(dates)-1],
		StartingCash: o.StartingCash,
	}

	l.WithField("dates", len(dates)).Info("simulating")
	for _, d := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := step(ctx, exec, d); err != nil {
			l.WithError(err).WithField("date", d.Format("2006-01-02")).Warn("step failed, date skipped")
			res.Skipped = append(res.Skipped, SkippedDate{Date: d, Err: err})
		}
	}
	if n := len(res.Skipped); n > 0 {
		l.WithField("skipped", n).Warn("equity curve is missing dates")
	}

	res.Equity = exec.Equity()
	res.Trades = p.TradeLog()
	res.FinalCash = p.Cash()
	res.Positions = p.Positions()
	res.Summary = analytics.Summarize(res.Curve(), res.Trades)
	l.WithFields(log.Fields{
		"trades": len(res.Trades),
		"return": fmt.Sprintf("%.2f%%", 100*res.Summary.TotalReturn),
	}).Info("run complete")
	return res, nil
}

// step isolates a panicking strategy to the date it failed on.
func step(ctx context.Context, e *sim.Executor, d time.Time) (rep sim.StepReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.Step(ctx, d)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
