package datafeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rohitashwachaks/traderplusplus/market"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Retry calls fn up to maxAttempts times with exponential backoff starting
// at baseDelay. It honours ctx between attempts.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var err error
	delay := baseDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		if attempt < maxAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return err
}

// Loader fetches several tickers concurrently before a run starts.
type Loader struct {
	Provider Provider

	Attempts    int           // 3
	BaseDelay   time.Duration // 500ms
	Concurrency int           // 4

	Log *log.Entry
}

// LoadAll returns one non-empty bar series per ticker or the first error.
func (l *Loader) LoadAll(ctx context.Context, tickers []string, start, end time.Time, interval string) (map[string][]market.Bar, error) {
	attempts := l.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := l.BaseDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	limit := l.Concurrency
	if limit <= 0 {
		limit = 4
	}
	lg := l.Log
	if lg == nil {
		lg = log.WithField("component", "datafeed")
	}

	var (
		mu  sync.Mutex
		out = make(map[string][]market.Bar, len(tickers))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, t := range tickers {
		t := t
		g.Go(func() error {
			var bars []market.Bar
			try := 0
			err := Retry(gctx, attempts, delay, func() error {
				try++
				var err error
				bars, err = l.Provider.Fetch(gctx, t, start, end, interval)
				if err != nil && try < attempts {
					lg.WithError(err).WithFields(log.Fields{"ticker": t, "attempt": try}).Warn("fetch failed, retrying")
				}
				return err
			})
			if err != nil {
				return fmt.Errorf("datafeed: load %s: %w", t, err)
			}
			if len(bars) == 0 {
				return fmt.Errorf("%w for %s between %s and %s", ErrNoData, t,
					start.Format("2006-01-02"), end.Format("2006-01-02"))
			}
			mu.Lock()
			out[t] = bars
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
