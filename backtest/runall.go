package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/rohitashwachaks/traderplusplus/guardrail"
	"github.com/rohitashwachaks/traderplusplus/market"
	"github.com/rohitashwachaks/traderplusplus/strategies"
	"golang.org/x/sync/errgroup"
)

// Job is one independent run. Strategy and guardrails are built fresh per
// job so no state is shared between runs.
type Job struct {
	Strategy   func() (strategies.Strategy, error)
	Guardrails func() ([]guardrail.Guardrail, error)
	Options    Options
}

// RunAll simulates jobs concurrently on a shared cursor, at most limit at a
// time. Results are in job order.
func RunAll(ctx context.Context, cursor *market.Cursor, tickers []string, start time.Time, jobs []Job, limit int) ([]*Result, error) {
	if limit <= 0 {
		limit = 4
	}
	out := make([]*Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			s, err := job.Strategy()
			if err != nil {
				return fmt.Errorf("backtest: job %d: %w", i, err)
			}
			var guards []guardrail.Guardrail
			if job.Guardrails != nil {
				if guards, err = job.Guardrails(); err != nil {
					return fmt.Errorf("backtest: job %d: %w", i, err)
				}
			}
			bt := &Backtester{Strategy: s, Guardrails: guards, Options: job.Options}
			res, err := bt.Simulate(gctx, cursor, tickers, start)
			if err != nil {
				return fmt.Errorf("backtest: job %d (%s): %w", i, s.Name(), err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
