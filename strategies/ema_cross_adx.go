package strategies

import (
	"fmt"

	"github.com/rohitashwachaks/traderplusplus/indicators"
	"github.com/rohitashwachaks/traderplusplus/market"
	"github.com/rohitashwachaks/traderplusplus/risk"
)

// EmaCrossADX is EmaCrossStrategy with a trend-strength gate on entries:
// a bullish cross only buys while ADX is at least Threshold and, with
// RequireDI, +DI is above -DI. Exits on a bearish cross are never gated.
type EmaCrossADX struct {
	FastPeriod int
	SlowPeriod int
	ADXPeriod  int
	Threshold  float64 // 20
	RequireDI  bool

	state map[string]*adxState
}

type adxState struct {
	emaState
	adx *indicators.ADX
}

func NewEmaCrossADX(fast, slow, adxPeriod int, threshold float64, requireDI bool) (*EmaCrossADX, error) {
	if fast <= 0 || slow <= 0 || fast >= slow {
		return nil, fmt.Errorf("ema-cross-adx: need 0 < fast < slow, got fast=%d slow=%d", fast, slow)
	}
	if adxPeriod <= 0 {
		return nil, fmt.Errorf("ema-cross-adx: adx period must be > 0, got %d", adxPeriod)
	}
	if threshold < 0 {
		return nil, fmt.Errorf("ema-cross-adx: threshold must be >= 0, got %v", threshold)
	}
	return &EmaCrossADX{
		FastPeriod: fast,
		SlowPeriod: slow,
		ADXPeriod:  adxPeriod,
		Threshold:  threshold,
		RequireDI:  requireDI,
		state:      make(map[string]*adxState),
	}, nil
}

func (s *EmaCrossADX) Name() string { return "ema_cross_adx" }

func (s *EmaCrossADX) Lookback() int { return 3 * max(s.SlowPeriod, 2*s.ADXPeriod) }

func (s *EmaCrossADX) GenerateSignals(ctx Context) (Signals, error) {
	universe := ctx.Window.Universe()
	out := Signals{}

	for _, t := range universe {
		bars := ctx.Window.Bars(t)
		if len(bars) == 0 {
			continue
		}
		today := bars[len(bars)-1]

		st, seen := s.state[t]
		if !seen {
			adx, err := indicators.NewADX(s.ADXPeriod)
			if err != nil {
				return nil, err
			}
			st = &adxState{
				emaState: emaState{
					fast: indicators.NewEMA(s.FastPeriod),
					slow: indicators.NewEMA(s.SlowPeriod),
				},
				adx: adx,
			}
			s.state[t] = st
			for _, b := range bars {
				st.update(b)
			}
		} else {
			st.update(today)
		}

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
		case bullCross && held == 0 && s.trending(st.adx):
			out.Set(t, risk.EqualWeight(ctx.Cash, len(universe), today.Close))
		case bearCross && held > 0:
			out.Set(t, -held)
		}
	}
	return out, nil
}

func (s *EmaCrossADX) trending(adx *indicators.ADX) bool {
	if !adx.Ready() || adx.Value() < s.Threshold {
		return false
	}
	return !s.RequireDI || adx.PlusDI() > adx.MinusDI()
}

func (st *adxState) update(b market.Bar) {
	st.emaState.update(b.Close)
	st.adx.Update(b.High, b.Low, b.Close)
}
