// Package guardrail holds risk overlays that force-exit positions
// independently of strategy signals.
package guardrail

import (
	"fmt"
	"sort"
	"strings"
)

// Exits maps a ticker that must be closed to the reason it was flagged.
type Exits map[string]string

func (e Exits) Add(ticker, reason string) {
	if _, ok := e[ticker]; !ok {
		e[ticker] = reason
	}
}

func (e Exits) Has(ticker string) bool {
	_, ok := e[ticker]
	return ok
}

// Merge adds every exit in other not already present.
func (e Exits) Merge(other Exits) {
	for t, r := range other {
		e.Add(t, r)
	}
}

func (e Exits) Tickers() []string {
	out := make([]string, 0, len(e))
	for t := range e {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Guardrail flags positions to close. Evaluation is ticker local, so the
// result does not depend on the order of positions.
type Guardrail interface {
	Name() string
	Evaluate(positions map[string]int64, prices map[string]float64) Exits
}

// EntryTracker is implemented by guardrails that keep per-position state
// from the time of entry.
type EntryTracker interface {
	RegisterEntry(ticker string, price float64)
	Unregister(ticker string)
}

type Params map[string]float64

func (p Params) Float(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

type Factory func(Params) (Guardrail, error)

// Registry maps guardrail names to factories.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
}

func (r *Registry) Register(name string, f Factory) {
	r.factories[normalize(name)] = f
}

func (r *Registry) New(name string, p Params) (Guardrail, error) {
	f, ok := r.factories[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("unknown guardrail %q (supported: %s)", name, strings.Join(r.Names(), ", "))
	}
	return f(p)
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.factories))
	for n := range r.factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("trailing_stop_loss", func(p Params) (Guardrail, error) {
		return NewTrailingStop(p.Float("stop_pct", 0.05))
	})
	r.Register("stop_loss", func(p Params) (Guardrail, error) {
		return NewStopLoss(p.Float("stop_pct", 0.1))
	})
	r.Register("take_profit", func(p Params) (Guardrail, error) {
		return NewTakeProfit(p.Float("target_pct", 0.2))
	})
	return r
}
