package market

import (
	"sort"
	"time"
)

// Window is the slice of market history a strategy may see on one date.
// Nothing dated after Date is reachable through it.
type Window struct {
	cursor   *Cursor
	date     time.Time
	lookback int
	universe []string
}

func (w *Window) Date() time.Time { return w.date }

func (w *Window) Lookback() int { return w.lookback }

func (w *Window) Universe() []string { return append([]string(nil), w.universe...) }

// Bars returns the bars of ticker within the look-back window, clipped to
// the history actually available. A lookback of zero or less returns all
// bars up to Date. It returns nil when Date is not a trading date.
func (w *Window) Bars(ticker string) []Bar {
	bars, ok := w.cursor.series[ticker]
	if !ok {
		return nil
	}
	i, ok := w.cursor.index[w.date.UnixNano()]
	if !ok {
		return nil
	}
	j := 0
	if w.lookback > 0 {
		from := w.date.AddDate(0, 0, -w.lookback)
		j = sort.Search(i+1, func(k int) bool { return !w.cursor.dates[k].Before(from) })
	}
	return append([]Bar(nil), bars[j:i+1]...)
}

func (w *Window) Closes(ticker string) []float64 {
	bars := w.Bars(ticker)
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Price is the close of ticker on Date.
func (w *Window) Price(ticker string) (float64, bool) {
	return w.cursor.Price(ticker, w.date, Close)
}
