package strategies

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rohitashwachaks/traderplusplus/market"
	"github.com/shopspring/decimal"
)

// Context is everything a strategy sees on one simulated date. Positions is
// a copy; mutating it has no effect on the portfolio.
type Context struct {
	Window    *market.Window
	Date      time.Time
	Positions map[string]int64
	Cash      decimal.Decimal
}

// Signals maps ticker to a signed share delta: +n buys n shares, -n sells n.
type Signals map[string]int64

// Set records delta for ticker, ignoring zero.
func (s Signals) Set(ticker string, delta int64) {
	if delta != 0 {
		s[ticker] = delta
	}
}

// Strategy turns a bounded history window into trading intents. It may keep
// internal state across dates but never touches the portfolio directly.
type Strategy interface {
	Name() string

	// Lookback is the number of calendar days of history the strategy
	// needs before its first decision.
	Lookback() int

	// GenerateSignals returns nil or an empty map for no action.
	GenerateSignals(ctx Context) (Signals, error)
}

// Params carries numeric strategy settings from configuration.
type Params map[string]float64

func (p Params) Int(key string, def int) int {
	if v, ok := p[key]; ok {
		return int(v)
	}
	return def
}

func (p Params) Float(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

type Factory func(Params) (Strategy, error)

// Registry maps strategy names to factories. Each Factory call returns a
// fresh instance, so parallel runs never share strategy state.
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

func (r *Registry) New(name string, p Params) (Strategy, error) {
	f, ok := r.factories[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)", name, strings.Join(r.Names(), ", "))
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

// DefaultRegistry returns a registry holding the built-in strategies.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("noop", func(Params) (Strategy, error) { return NoopStrategy{}, nil })
	r.Register("buy_n_hold", func(Params) (Strategy, error) { return NewBuyAndHold(), nil })
	r.Register("momentum", func(p Params) (Strategy, error) {
		return NewMomentum(p.Int("short_window", 10), p.Int("long_window", 20))
	})
	r.Register("ema_cross", func(p Params) (Strategy, error) {
		return NewEmaCross(p.Int("fast", 12), p.Int("slow", 26))
	})
	r.Register("ema_cross_adx", func(p Params) (Strategy, error) {
		return NewEmaCrossADX(p.Int("fast", 12), p.Int("slow", 26), p.Int("adx_period", 14),
			p.Float("adx_threshold", 20), p.Float("require_di", 0) > 0)
	})
	r.Register("stoploss", func(p Params) (Strategy, error) {
		return NewStopLoss(p.Int("window", 20), p.Float("trail_pct", 0.05))
	})
	return r
}
