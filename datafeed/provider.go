// Package datafeed loads daily price bars from local files and market data
// vendors, with an on-disk parquet cache in front of them.
package datafeed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rohitashwachaks/traderplusplus/market"
)

var (
	ErrNoData              = errors.New("datafeed: no data")
	ErrUnsupportedInterval = errors.New("datafeed: unsupported interval")
	ErrUnknownProvider     = errors.New("datafeed: unknown provider")
)

// Provider fetches bars for one ticker over [start, end].
type Provider interface {
	Name() string
	Fetch(ctx context.Context, ticker string, start, end time.Time, interval string) ([]market.Bar, error)
}

// Interval names accepted by every provider.
const (
	Daily  = "1d"
	Hourly = "1h"
	Weekly = "1wk"
)

func parseInterval(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "1d", "d", "day", "daily":
		return Daily, nil
	case "1h", "h", "hour", "hourly":
		return Hourly, nil
	case "1wk", "1w", "w", "week", "weekly":
		return Weekly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedInterval, s)
}

// Normalize puts bars into the shape the cursor expects: dates in UTC,
// sorted ascending, one bar per date (the last one wins) and rows with
// non-finite values dropped. Daily and weekly bars are truncated to the
// calendar day.
func Normalize(bars []market.Bar, interval string) []market.Bar {
	daily := interval != Hourly
	byDate := make(map[int64]market.Bar, len(bars))
	for _, b := range bars {
		if !finite(b) {
			continue
		}
		b.Date = b.Date.UTC()
		if daily {
			b.Date = market.Day(b.Date)
		}
		byDate[b.Date.UnixNano()] = b
	}
	out := make([]market.Bar, 0, len(byDate))
	for _, b := range byDate {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func finite(b market.Bar) bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func clip(bars []market.Bar, start, end time.Time) []market.Bar {
	out := bars[:0:0]
	for _, b := range bars {
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Static serves bars held in memory. Fetch clips to the requested range.
type Static map[string][]market.Bar

func (s Static) Name() string { return "static" }

func (s Static) Fetch(ctx context.Context, ticker string, start, end time.Time, interval string) ([]market.Bar, error) {
	bars, ok := s[ticker]
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoData, ticker)
	}
	return clip(bars, start, end), nil
}

// Settings carries what providers need to connect.
type Settings struct {
	DataDir string

	PolygonAPIKey string

	AlpacaAPIKey    string
	AlpacaAPISecret string
	AlpacaDataURL   string
	AlpacaFeed      string
}

type Factory func(Settings) (Provider, error)

// Registry selects a provider by name.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(name string, f Factory) {
	r.factories[strings.ToLower(strings.TrimSpace(name))] = f
}

func (r *Registry) New(name string, s Settings) (Provider, error) {
	f, ok := r.factories[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownProvider, name, strings.Join(r.Names(), ", "))
	}
	return f(s)
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.factories))
	for n := range r.factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry knows the csv, polygon and alpaca providers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("csv", func(s Settings) (Provider, error) { return NewCSV(s.DataDir) })
	r.Register("polygon", func(s Settings) (Provider, error) { return NewPolygon(s.PolygonAPIKey) })
	r.Register("alpaca", func(s Settings) (Provider, error) {
		return NewAlpaca(s.AlpacaAPIKey, s.AlpacaAPISecret, s.AlpacaDataURL, s.AlpacaFeed)
	})
	return r
}
