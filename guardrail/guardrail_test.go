package guardrail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrailingStopFlagsExit(t *testing.T) {
	t.Parallel()

	g, err := NewTrailingStop(0.05)
	require.NoError(t, err)
	g.RegisterEntry("AAA", 100)

	pos := map[string]int64{"AAA": 10}

	assert.Empty(t, g.Evaluate(pos, map[string]float64{"AAA": 120}))
	hwm, ok := g.HighWaterMark("AAA")
	require.True(t, ok)
	assert.Equal(t, 120.0, hwm)

	// 113 < 120 * 0.95 = 114
	exits := g.Evaluate(pos, map[string]float64{"AAA": 113})
	assert.Equal(t, Exits{"AAA": ReasonTrailingStop}, exits)
}

func TestTrailingStopRegisterIsIdempotent(t *testing.T) {
	t.Parallel()

	g, err := NewTrailingStop(0.1)
	require.NoError(t, err)
	g.RegisterEntry("AAA", 100)
	g.RegisterEntry("AAA", 50)

	hwm, _ := g.HighWaterMark("AAA")
	assert.Equal(t, 100.0, hwm)

	g.Unregister("AAA")
	_, ok := g.HighWaterMark("AAA")
	assert.False(t, ok)
}

func TestTrailingStopHousekeeping(t *testing.T) {
	t.Parallel()

	g, err := NewTrailingStop(0.1)
	require.NoError(t, err)

	// held but never registered: registered at the current price
	assert.Empty(t, g.Evaluate(map[string]int64{"BBB": 5}, map[string]float64{"BBB": 40}))
	hwm, ok := g.HighWaterMark("BBB")
	require.True(t, ok)
	assert.Equal(t, 40.0, hwm)

	// missing price: cannot evaluate, no exit
	assert.Empty(t, g.Evaluate(map[string]int64{"BBB": 5}, map[string]float64{}))

	// position gone: entry dropped
	assert.Empty(t, g.Evaluate(map[string]int64{}, map[string]float64{"BBB": 1}))
	_, ok = g.HighWaterMark("BBB")
	assert.False(t, ok)
}

func TestStopLossAndTakeProfit(t *testing.T) {
	t.Parallel()

	sl, err := NewStopLoss(0.1)
	require.NoError(t, err)
	tp, err := NewTakeProfit(0.2)
	require.NoError(t, err)

	for _, g := range []EntryTracker{sl, tp} {
		g.RegisterEntry("AAA", 100)
	}
	pos := map[string]int64{"AAA": 1}

	assert.Empty(t, sl.Evaluate(pos, map[string]float64{"AAA": 95}))
	assert.Equal(t, Exits{"AAA": ReasonStopLoss}, sl.Evaluate(pos, map[string]float64{"AAA": 90}))

	assert.Empty(t, tp.Evaluate(pos, map[string]float64{"AAA": 119}))
	assert.Equal(t, Exits{"AAA": ReasonTakeProfit}, tp.Evaluate(pos, map[string]float64{"AAA": 120}))
}

func TestOrderIndependence(t *testing.T) {
	t.Parallel()

	build := func() *TrailingStop {
		g, _ := NewTrailingStop(0.05)
		g.RegisterEntry("AAA", 100)
		g.RegisterEntry("BBB", 100)
		g.RegisterEntry("CCC", 100)
		return g
	}
	pos := map[string]int64{"AAA": 1, "BBB": 1, "CCC": 1}
	prices := map[string]float64{"AAA": 90, "BBB": 99, "CCC": 94}

	want := Exits{"AAA": ReasonTrailingStop, "CCC": ReasonTrailingStop}
	for i := 0; i < 10; i++ {
		assert.Equal(t, want, build().Evaluate(pos, prices))
	}
}

func TestExits(t *testing.T) {
	t.Parallel()

	e := Exits{}
	e.Add("BBB", "first")
	e.Add("BBB", "second")
	e.Merge(Exits{"AAA": "x", "BBB": "y"})

	assert.Equal(t, "first", e["BBB"])
	assert.True(t, e.Has("AAA"))
	assert.Equal(t, []string{"AAA", "BBB"}, e.Tickers())
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()
	assert.Equal(t, []string{"stop_loss", "take_profit", "trailing_stop_loss"}, r.Names())

	g, err := r.New("Trailing-Stop-Loss", Params{"stop_pct": 0.07})
	require.NoError(t, err)
	assert.Equal(t, 0.07, g.(*TrailingStop).StopPct)

	_, err = r.New("trailing_stop_loss", Params{"stop_pct": 2})
	assert.Error(t, err)
	_, err = r.New("circuit_breaker", nil)
	assert.Error(t, err)
}
