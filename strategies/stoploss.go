package strategies

import (
	"fmt"

	"github.com/rohitashwachaks/traderplusplus/indicators"
	"github.com/rohitashwachaks/traderplusplus/risk"
)

// StopLossStrategy enters when recent returns are positive and stronger
// than the whole window, then rides the position until price falls
// TrailPct below the highest close seen since entry.
type StopLossStrategy struct {
	Window   int
	TrailPct float64

	peaks map[string]float64
}

func NewStopLoss(window int, trailPct float64) (*StopLossStrategy, error) {
	if window < 2 {
		return nil, fmt.Errorf("stoploss: window must be at least 2, got %d", window)
	}
	if trailPct <= 0 || trailPct >= 1 {
		return nil, fmt.Errorf("stoploss: trail_pct must be in (0,1), got %g", trailPct)
	}
	return &StopLossStrategy{
		Window:   window,
		TrailPct: trailPct,
		peaks:    make(map[string]float64),
	}, nil
}

func (s *StopLossStrategy) Name() string { return "stoploss" }

func (s *StopLossStrategy) Lookback() int { return 2 * s.Window }

func (s *StopLossStrategy) GenerateSignals(ctx Context) (Signals, error) {
	universe := ctx.Window.Universe()
	out := Signals{}

	for _, t := range universe {
		px, ok := ctx.Window.Price(t)
		if !ok {
			continue
		}
		held := ctx.Positions[t]

		if held > 0 {
			peak, tracked := s.peaks[t]
			if !tracked || px > peak {
				peak = px
				s.peaks[t] = peak
			}
			if px < peak*(1-s.TrailPct) {
				out.Set(t, -held)
				delete(s.peaks, t)
			}
			continue
		}

		// position closed elsewhere (e.g. a guardrail)
		delete(s.peaks, t)

		closes := ctx.Window.Closes(t)
		if len(closes) < s.Window {
			continue
		}
		closes = closes[len(closes)-s.Window:]
		recent := indicators.MeanReturn(closes[len(closes)/2:])
		overall := indicators.MeanReturn(closes)
		if recent > 0 && recent > overall {
			shares := risk.EqualWeight(ctx.Cash, len(universe), px)
			if shares > 0 {
				out.Set(t, shares)
				s.peaks[t] = px
			}
		}
	}
	return out, nil
}
