package guardrail

import (
	"fmt"
	"sort"
)

const ReasonTrailingStop = "Trailing Stop Triggered"

type entry struct {
	EntryPrice    float64
	HighWaterMark float64
}

// TrailingStop exits a position once price falls StopPct below the highest
// price seen since entry.
type TrailingStop struct {
	StopPct float64

	entries map[string]*entry
}

func NewTrailingStop(stopPct float64) (*TrailingStop, error) {
	if stopPct <= 0 || stopPct >= 1 {
		return nil, fmt.Errorf("trailing_stop_loss: stop_pct must be in (0,1), got %g", stopPct)
	}
	return &TrailingStop{StopPct: stopPct, entries: make(map[string]*entry)}, nil
}

func (g *TrailingStop) Name() string { return "trailing_stop_loss" }

// RegisterEntry is idempotent while the position stays open; adding to a
// position keeps the original entry and mark.
func (g *TrailingStop) RegisterEntry(ticker string, price float64) {
	if _, ok := g.entries[ticker]; ok {
		return
	}
	g.entries[ticker] = &entry{EntryPrice: price, HighWaterMark: price}
}

func (g *TrailingStop) Unregister(ticker string) { delete(g.entries, ticker) }

// HighWaterMark reports the tracked mark for ticker.
func (g *TrailingStop) HighWaterMark(ticker string) (float64, bool) {
	e, ok := g.entries[ticker]
	if !ok {
		return 0, false
	}
	return e.HighWaterMark, true
}

func (g *TrailingStop) Evaluate(positions map[string]int64, prices map[string]float64) Exits {
	out := Exits{}

	tracked := make([]string, 0, len(g.entries))
	for t := range g.entries {
		tracked = append(tracked, t)
	}
	sort.Strings(tracked)
	for _, t := range tracked {
		if positions[t] <= 0 {
			g.Unregister(t)
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
		e, ok := g.entries[t]
		if !ok {
			g.RegisterEntry(t, px)
			continue
		}
		if px > e.HighWaterMark {
			e.HighWaterMark = px
		}
		if px < e.HighWaterMark*(1-g.StopPct) {
			out.Add(t, ReasonTrailingStop)
		}
	}
	return out
}

var (
	_ Guardrail    = (*TrailingStop)(nil)
	_ EntryTracker = (*TrailingStop)(nil)
)
