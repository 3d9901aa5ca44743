package strategies

import (
	"fmt"

	"github.com/rohitashwachaks/traderplusplus/indicators"
	"github.com/rohitashwachaks/traderplusplus/risk"
)

// Momentum is a long-only moving-average crossover. It buys an equal-weight
// slice of cash when the short SMA crosses above the long SMA and exits the
// whole position on the opposite cross.
type Momentum struct {
	ShortWindow int
	LongWindow  int
}

func NewMomentum(short, long int) (*Momentum, error) {
	if short <= 0 || long <= 0 {
		return nil, fmt.Errorf("momentum: windows must be positive (short=%d long=%d)", short, long)
	}
	if short >= long {
		return nil, fmt.Errorf("momentum: short window %d must be below long window %d", short, long)
	}
	return &Momentum{ShortWindow: short, LongWindow: long}, nil
}

func (m *Momentum) Name() string { return "momentum" }

// Lookback covers LongWindow+1 trading days with room for weekends and
// holidays.
func (m *Momentum) Lookback() int { return 2*m.LongWindow + 10 }

func (m *Momentum) GenerateSignals(ctx Context) (Signals, error) {
	universe := ctx.Window.Universe()
	out := Signals{}

	for _, t := range universe {
		closes := ctx.Window.Closes(t)
		if len(closes) < m.LongWindow+1 {
			continue
		}

		prev := closes[:len(closes)-1]
		prevShort, err := indicators.SMA(prev, m.ShortWindow)
		if err != nil {
			return nil, err
		}
		prevLong, err := indicators.SMA(prev, m.LongWindow)
		if err != nil {
			return nil, err
		}
		curShort, err := indicators.SMA(closes, m.ShortWindow)
		if err != nil {
			return nil, err
		}
		curLong, err := indicators.SMA(closes, m.LongWindow)
		if err != nil {
			return nil, err
		}

		held := ctx.Positions[t]
		bullCross := curShort > curLong && prevShort <= prevLong
		bearCross := curShort < curLong && prevShort >= prevLong

		switch {
		case bullCross && held == 0:
			out.Set(t, risk.EqualWeight(ctx.Cash, len(universe), closes[len(closes)-1]))
		case bearCross && held > 0:
			out.Set(t, -held)
		}
	}
	return out, nil
}
