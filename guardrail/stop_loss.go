package guardrail

import "fmt"

const (
	ReasonStopLoss   = "Stop Loss Triggered"
	ReasonTakeProfit = "Take Profit Triggered"
)

// entryBook records the first fill price of each open position.
type entryBook map[string]float64

func (b entryBook) RegisterEntry(ticker string, price float64) {
	if _, ok := b[ticker]; !ok {
		b[ticker] = price
	}
}

func (b entryBook) Unregister(ticker string) { delete(b, ticker) }

// check runs hit for every held, priced and registered ticker and drops
// entries of closed positions.
func (b entryBook) check(positions map[string]int64, prices map[string]float64, reason string, hit func(entry, price float64) bool) Exits {
	out := Exits{}
	for t := range b {
		if positions[t] <= 0 {
			delete(b, t)
		}
	}
	for t, shares := range positions {
		if shares <= 0 {
			continue
		}
		px, ok := prices[t]
		if !ok || px <= 0 {
			continue
		}
		entry, ok := b[t]
		if !ok {
			b[t] = px
			continue
		}
		if hit(entry, px) {
			out.Add(t, reason)
		}
	}
	return out
}

// StopLoss exits when price drops StopPct below the entry price.
type StopLoss struct {
	StopPct float64
	entries entryBook
}

func NewStopLoss(stopPct float64) (*StopLoss, error) {
	if stopPct <= 0 || stopPct >= 1 {
		return nil, fmt.Errorf("stop_loss: stop_pct must be in (0,1), got %g", stopPct)
	}
	return &StopLoss{StopPct: stopPct, entries: entryBook{}}, nil
}

func (g *StopLoss) Name() string { return "stop_loss" }

func (g *StopLoss) RegisterEntry(ticker string, price float64) { g.entries.RegisterEntry(ticker, price) }

func (g *StopLoss) Unregister(ticker string) { g.entries.Unregister(ticker) }

func (g *StopLoss) Evaluate(positions map[string]int64, prices map[string]float64) Exits {
	return g.entries.check(positions, prices, ReasonStopLoss, func(entry, px float64) bool {
		return px <= entry*(1-g.StopPct)
	})
}

// TakeProfit exits when price rises TargetPct above the entry price.
type TakeProfit struct {
	TargetPct float64
	entries   entryBook
}

func NewTakeProfit(targetPct float64) (*TakeProfit, error) {
	if targetPct <= 0 {
		return nil, fmt.Errorf("take_profit: target_pct must be positive, got %g", targetPct)
	}
	return &TakeProfit{TargetPct: targetPct, entries: entryBook{}}, nil
}

func (g *TakeProfit) Name() string { return "take_profit" }

func (g *TakeProfit) RegisterEntry(ticker string, price float64) { g.entries.RegisterEntry(ticker, price) }

func (g *TakeProfit) Unregister(ticker string) { g.entries.Unregister(ticker) }

func (g *TakeProfit) Evaluate(positions map[string]int64, prices map[string]float64) Exits {
	return g.entries.check(positions, prices, ReasonTakeProfit, func(entry, px float64) bool {
		return px >= entry*(1+g.TargetPct)
	})
}

var (
	_ EntryTracker = (*StopLoss)(nil)
	_ EntryTracker = (*TakeProfit)(nil)
)
