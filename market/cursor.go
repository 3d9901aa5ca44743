package market

import (
	"fmt"
	"sort"
	"time"
)

// Cursor holds per-ticker bar series aligned on the intersection of their
// dates. It is read-only once built (Extend aside) and may be shared by
// concurrent readers.
type Cursor struct {
	tickers []string
	dates   []time.Time
	index   map[int64]int
	series  map[string][]Bar
	start   time.Time
}

// NewCursor validates every frame and aligns them on their common dates.
func NewCursor(frames map[string][]Bar) (*Cursor, error) {
	if len(frames) == 0 {
		return nil, &ValidationError{Reason: "no price series supplied"}
	}

	tickers := make([]string, 0, len(frames))
	for t := range frames {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	for _, t := range tickers {
		if err := validateFrame(t, frames[t]); err != nil {
			return nil, err
		}
	}

	dates := intersect(tickers, frames)
	if len(dates) == 0 {
		return nil, &ValidationError{Reason: "price series share no common dates"}
	}

	c := &Cursor{
		tickers: tickers,
		series:  make(map[string][]Bar, len(tickers)),
	}
	c.setDates(dates)
	for _, t := range tickers {
		c.series[t] = align(frames[t], c.index, len(dates))
	}
	return c, nil
}

func validateFrame(ticker string, bars []Bar) error {
	if len(bars) == 0 {
		return &ValidationError{Ticker: ticker, Reason: "empty series"}
	}
	for i, b := range bars {
		if !b.Valid() {
			return &ValidationError{Ticker: ticker, Reason: fmt.Sprintf("bad bar on %s", b.Date.Format("2006-01-02"))}
		}
		if i > 0 && !b.Date.After(bars[i-1].Date) {
			return &ValidationError{Ticker: ticker, Reason: fmt.Sprintf("dates not strictly increasing at %s", b.Date.Format("2006-01-02"))}
		}
	}
	return nil
}

func intersect(tickers []string, frames map[string][]Bar) []time.Time {
	counts := make(map[int64]int)
	for _, t := range tickers {
		for _, b := range frames[t] {
			counts[b.Date.UnixNano()]++
		}
	}
	var out []time.Time
	for _, b := range frames[tickers[0]] {
		if counts[b.Date.UnixNano()] == len(tickers) {
			out = append(out, b.Date)
		}
	}
	return out
}

func align(bars []Bar, index map[int64]int, n int) []Bar {
	out := make([]Bar, 0, n)
	for _, b := range bars {
		if _, ok := index[b.Date.UnixNano()]; ok {
			out = append(out, b)
		}
	}
	return out
}

func (c *Cursor) setDates(dates []time.Time) {
	c.dates = dates
	c.index = make(map[int64]int, len(dates))
	for i, d := range dates {
		c.index[d.UnixNano()] = i
	}
}

// Extend appends strictly newer bars to every series. Each ticker already in
// the cursor must be present in frames. Only dates common to all frames are
// kept.
func (c *Cursor) Extend(frames map[string][]Bar) error {
	last := c.dates[len(c.dates)-1]
	for _, t := range c.tickers {
		bars, ok := frames[t]
		if !ok {
			return &ValidationError{Ticker: t, Reason: "missing from extension"}
		}
		if err := validateFrame(t, bars); err != nil {
			return err
		}
		if !bars[0].Date.After(last) {
			return &ValidationError{Ticker: t, Reason: "extension overlaps existing dates"}
		}
	}

	added := intersect(c.tickers, frames)
	if len(added) == 0 {
		return nil
	}
	dates := append(append([]time.Time(nil), c.dates...), added...)
	c.setDates(dates)
	for _, t := range c.tickers {
		for _, b := range frames[t] {
			if _, ok := c.index[b.Date.UnixNano()]; ok {
				c.series[t] = append(c.series[t], b)
			}
		}
	}
	return nil
}

func (c *Cursor) Tickers() []string { return append([]string(nil), c.tickers...) }

func (c *Cursor) Has(ticker string) bool {
	_, ok := c.series[ticker]
	return ok
}

// SetStart sets the first date Dates will report. Earlier bars stay
// available as look-back history.
func (c *Cursor) SetStart(t time.Time) { c.start = t }

// Dates returns the common dates on or after the simulation start.
func (c *Cursor) Dates() []time.Time { return c.DatesFrom(c.start) }

// DatesFrom returns the common dates on or after t without touching the
// cursor, so concurrent runs can share one.
func (c *Cursor) DatesFrom(t time.Time) []time.Time {
	i := sort.Search(len(c.dates), func(i int) bool { return !c.dates[i].Before(t) })
	return append([]time.Time(nil), c.dates[i:]...)
}

// AllDates returns every common date including look-back history.
func (c *Cursor) AllDates() []time.Time { return append([]time.Time(nil), c.dates...) }

// Price returns the requested field for ticker on date. A miss is a normal
// outcome and reported through ok.
func (c *Cursor) Price(ticker string, date time.Time, f Field) (float64, bool) {
	bars, ok := c.series[ticker]
	if !ok {
		return 0, false
	}
	i, ok := c.index[date.UnixNano()]
	if !ok {
		return 0, false
	}
	return bars[i].Value(f)
}

// Prices returns the close of every ticker priced on date.
func (c *Cursor) Prices(date time.Time) map[string]float64 {
	out := make(map[string]float64, len(c.tickers))
	i, ok := c.index[date.UnixNano()]
	if !ok {
		return out
	}
	for t, bars := range c.series {
		out[t] = bars[i].Close
	}
	return out
}

// History returns the bars of ticker dated within [end-lookbackDays, end].
func (c *Cursor) History(ticker string, end time.Time, lookbackDays int) ([]Bar, error) {
	bars, ok := c.series[ticker]
	if !ok {
		return nil, &OutOfRangeError{Ticker: ticker, Date: end, Reason: "unknown ticker"}
	}
	i, ok := c.index[end.UnixNano()]
	if !ok {
		return nil, &OutOfRangeError{Ticker: ticker, Date: end, Reason: "date not in index"}
	}
	from := end.AddDate(0, 0, -lookbackDays)
	if from.Before(c.dates[0]) {
		return nil, &OutOfRangeError{Ticker: ticker, Date: end,
			Reason: fmt.Sprintf("look-back of %d days reaches before first date %s", lookbackDays, c.dates[0].Format("2006-01-02"))}
	}
	j := sort.Search(i+1, func(k int) bool { return !c.dates[k].Before(from) })
	return append([]Bar(nil), bars[j:i+1]...), nil
}

// Series returns the full close sequence of ticker.
func (c *Cursor) Series(ticker string) ([]float64, error) {
	bars, ok := c.series[ticker]
	if !ok {
		return nil, &OutOfRangeError{Ticker: ticker, Reason: "unknown ticker"}
	}
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out, nil
}

// Window returns a view bounded at date for the given universe. A nil
// universe means every ticker in the cursor.
func (c *Cursor) Window(date time.Time, lookbackDays int, universe []string) *Window {
	if universe == nil {
		universe = c.tickers
	}
	return &Window{
		cursor:   c,
		date:     date,
		lookback: lookbackDays,
		universe: append([]string(nil), universe...),
	}
}
