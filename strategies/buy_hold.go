package strategies

import "github.com/rohitashwachaks/traderplusplus/risk"

// BuyAndHold splits cash evenly across the universe on its first decision
// and holds from then on.
type BuyAndHold struct {
	bought bool
}

func NewBuyAndHold() *BuyAndHold { return &BuyAndHold{} }

func (s *BuyAndHold) Name() string { return "buy_n_hold" }

func (s *BuyAndHold) Lookback() int { return 0 }

func (s *BuyAndHold) GenerateSignals(ctx Context) (Signals, error) {
	if s.bought {
		return nil, nil
	}

	universe := ctx.Window.Universe()
	out := Signals{}
	for _, t := range universe {
		px, ok := ctx.Window.Price(t)
		if !ok {
			// wait for a date where every name can be priced
			return nil, nil
		}
		out.Set(t, risk.EqualWeight(ctx.Cash, len(universe), px))
	}
	s.bought = true
	return out, nil
}
