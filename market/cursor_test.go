package market

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(day int) time.Time {
	return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
}

func bars(days []int, closes ...float64) []Bar {
	out := make([]Bar, len(days))
	for i, day := range days {
		c := closes[i%len(closes)]
		out[i] = Bar{Date: d(day), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return out
}

func TestNewCursorIntersectsDates(t *testing.T) {
	t.Parallel()

	c, err := NewCursor(map[string][]Bar{
		"AAA": bars([]int{2, 3, 4, 5, 8}, 10, 11, 12, 13, 14),
		"BBB": bars([]int{3, 4, 5, 8, 9}, 20, 21, 22, 23, 24),
	})
	require.NoError(t, err)

	assert.Equal(t, []time.Time{d(3), d(4), d(5), d(8)}, c.AllDates())
	assert.Equal(t, []string{"AAA", "BBB"}, c.Tickers())

	s, err := c.Series("AAA")
	require.NoError(t, err)
	assert.Equal(t, []float64{11, 12, 13, 14}, s)
}

func TestNewCursorValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		frames map[string][]Bar
	}{
		{"no frames", map[string][]Bar{}},
		{"empty frame", map[string][]Bar{"AAA": nil}},
		{"unordered", map[string][]Bar{"AAA": {{Date: d(3), Close: 1}, {Date: d(2), Close: 1}}}},
		{"duplicate date", map[string][]Bar{"AAA": {{Date: d(3), Close: 1}, {Date: d(3), Close: 1}}}},
		{"nan", map[string][]Bar{"AAA": {{Date: d(3), Close: math.NaN()}}}},
		{"non-positive close", map[string][]Bar{"AAA": {{Date: d(3), Close: 0}}}},
		{"disjoint", map[string][]Bar{"AAA": bars([]int{2}, 1), "BBB": bars([]int{3}, 1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCursor(tt.frames)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestPriceAndPrices(t *testing.T) {
	t.Parallel()

	c, err := NewCursor(map[string][]Bar{"AAA": bars([]int{2, 3}, 10, 11)})
	require.NoError(t, err)

	p, ok := c.Price("AAA", d(3), Close)
	assert.True(t, ok)
	assert.Equal(t, 11.0, p)

	p, ok = c.Price("AAA", d(3), High)
	assert.True(t, ok)
	assert.Equal(t, 12.0, p)

	_, ok = c.Price("AAA", d(4), Close)
	assert.False(t, ok)
	_, ok = c.Price("ZZZ", d(3), Close)
	assert.False(t, ok)
	_, ok = c.Price("AAA", d(3), Field("Adj"))
	assert.False(t, ok)

	assert.Equal(t, map[string]float64{"AAA": 10}, c.Prices(d(2)))
	assert.Empty(t, c.Prices(d(20)))
}

func TestHistory(t *testing.T) {
	t.Parallel()

	c, err := NewCursor(map[string][]Bar{"AAA": bars([]int{1, 2, 3, 4, 5, 8, 9}, 1, 2, 3, 4, 5, 6, 7)})
	require.NoError(t, err)

	h, err := c.History("AAA", d(8), 4)
	require.NoError(t, err)
	require.Len(t, h, 3)
	assert.Equal(t, d(4), h[0].Date)
	assert.Equal(t, d(8), h[2].Date)

	_, err = c.History("AAA", d(6), 1)
	assert.ErrorIs(t, err, ErrOutOfRange, "end date not in index")

	_, err = c.History("AAA", d(3), 5)
	assert.ErrorIs(t, err, ErrOutOfRange, "look-back before first date")

	_, err = c.History("ZZZ", d(3), 1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestDatesHonourStart(t *testing.T) {
	t.Parallel()

	c, err := NewCursor(map[string][]Bar{"AAA": bars([]int{1, 2, 3, 4}, 1)})
	require.NoError(t, err)

	assert.Len(t, c.Dates(), 4)
	c.SetStart(d(3))
	assert.Equal(t, []time.Time{d(3), d(4)}, c.Dates())
	assert.Len(t, c.AllDates(), 4)

	c.SetStart(d(10))
	assert.Empty(t, c.Dates())
}

func TestWindowHasNoLookAhead(t *testing.T) {
	t.Parallel()

	c, err := NewCursor(map[string][]Bar{
		"AAA": bars([]int{1, 2, 3, 4, 5}, 1, 2, 3, 4, 5),
		"BBB": bars([]int{1, 2, 3, 4, 5}, 9),
	})
	require.NoError(t, err)

	w := c.Window(d(3), 0, []string{"AAA"})
	assert.Equal(t, []float64{1, 2, 3}, w.Closes("AAA"))
	assert.Equal(t, []string{"AAA"}, w.Universe())

	w = c.Window(d(4), 1, nil)
	assert.Equal(t, []float64{3, 4}, w.Closes("AAA"))
	assert.Equal(t, []string{"AAA", "BBB"}, w.Universe())

	px, ok := w.Price("BBB")
	assert.True(t, ok)
	assert.Equal(t, 9.0, px)

	assert.Nil(t, c.Window(d(20), 5, nil).Bars("AAA"))
}

func TestExtend(t *testing.T) {
	t.Parallel()

	c, err := NewCursor(map[string][]Bar{
		"AAA": bars([]int{1, 2}, 1),
		"BBB": bars([]int{1, 2}, 2),
	})
	require.NoError(t, err)

	err = c.Extend(map[string][]Bar{"AAA": bars([]int{3, 4}, 3)})
	assert.ErrorIs(t, err, ErrValidation, "every ticker must be extended")

	err = c.Extend(map[string][]Bar{"AAA": bars([]int{2, 3}, 3), "BBB": bars([]int{3}, 3)})
	assert.ErrorIs(t, err, ErrValidation, "overlap rejected")

	err = c.Extend(map[string][]Bar{"AAA": bars([]int{3, 4}, 3), "BBB": bars([]int{4}, 4)})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{d(1), d(2), d(4)}, c.AllDates())

	p, ok := c.Price("AAA", d(4), Close)
	assert.True(t, ok)
	assert.Equal(t, 3.0, p)
}

func TestDatesFromLeavesStart(t *testing.T) {
	t.Parallel()

	c, err := NewCursor(map[string][]Bar{"AAA": bars([]int{1, 2, 3, 4}, 1)})
	require.NoError(t, err)

	assert.Equal(t, []time.Time{d(2), d(3), d(4)}, c.DatesFrom(d(2)))
	assert.Len(t, c.Dates(), 4)
}
