package strategies

import (
	"fmt"

	"github.com/rohitashwachaks/traderplusplus/indicators"
	"github.com/rohitashwachaks/traderplusplus/risk"
)

// EmaCrossStrategy trades each ticker of the universe on a fast/slow EMA
// crossover, long only. Indicators are seeded from the look-back window on
// the first decision and then updated once per date.
type EmaCrossStrategy struct {
	FastPeriod int
	SlowPeriod int

	state map[string]*emaState
}

type emaState struct {
	fast *indicators.ExponentialMA
	slow *indicators.ExponentialMA

	lastDiff     float64
	haveLastDiff bool
}

func NewEmaCross(fast, slow int) (*EmaCrossStrategy, error) {
	if fast <= 0 || slow <= 0 || fast >= slow {
		return nil, fmt.Errorf("ema-cross: need 0 < fast < slow, got fast=%d slow=%d", fast, slow)
	}
	return &EmaCrossStrategy{
		FastPeriod: fast,
		SlowPeriod: slow,
		state:      make(map[string]*emaState),
	}, nil
}

func (s *EmaCrossStrategy) Name() string { return "ema_cross" }

func (s *EmaCrossStrategy) Lookback() int { return 3 * s.SlowPeriod }

func (s *EmaCrossStrategy) GenerateSignals(ctx Context) (Signals, error) {
	universe := ctx.Window.Universe()
	out := Signals{}

	for _, t := range universe {
		px, ok := ctx.Window.Price(t)
		if !ok {
			continue
		}

		st, seen := s.state[t]
		if !seen {
			st = &emaState{
				fast: indicators.NewEMA(s.FastPeriod),
				slow: indicators.NewEMA(s.SlowPeriod),
			}
			s.state[t] = st
			for _, c := range ctx.Window.Closes(t) {
				st.update(c)
			}
		} else {
			st.update(px)
		}

		// Wait until both EMAs are warmed up.
		if !st.fast.Ready() || !st.slow.Ready() {
			continue
		}

		diff := st.fast.Value() - st.slow.Value()
		if !st.haveLastDiff {
			st.lastDiff = diff
			st.haveLastDiff = true
			continue
		}

		bullCross := diff > 0 && st.lastDiff <= 0
		bearCross := diff < 0 && st.lastDiff >= 0
		st.lastDiff = diff

		held := ctx.Positions[t]
		switch {
		case bullCross && held == 0:
			out.Set(t, risk.EqualWeight(ctx.Cash, len(universe), px))
		case bearCross && held > 0:
			out.Set(t, -held)
		}
	}
	return out, nil
}

// update feeds one close and, once warm, tracks the previous spread so a
// cross is detected between consecutive dates.
func (st *emaState) update(v float64) {
	if st.fast.Ready() && st.slow.Ready() {
		st.lastDiff = st.fast.Value() - st.slow.Value()
		st.haveLastDiff = true
	}
	st.fast.Update(v)
	st.slow.Update(v)
}
