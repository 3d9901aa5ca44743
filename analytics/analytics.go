// Package analytics computes performance statistics from an equity curve
// and a trade log after a run.
package analytics

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/rohitashwachaks/traderplusplus/portfolio"
)

const (
	TradingDays  = 252
	RiskFreeRate = 0.01
	daysPerYear  = 365.25
	minSharpeObs = 2
)

// Point is one equity-curve sample.
type Point struct {
	Date      time.Time
	Value     float64
	Benchmark *float64
}

// Returns is the simple period-over-period change of values.
func Returns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, values[i]/values[i-1]-1)
	}
	return out
}

// TotalReturn is last/first - 1.
func TotalReturn(values []float64) float64 {
	if len(values) < 2 || values[0] == 0 {
		return 0
	}
	return values[len(values)-1]/values[0] - 1
}

// Sharpe annualizes the mean excess daily return over its sample standard
// deviation. A flat series scores zero.
func Sharpe(returns []float64, riskFree float64) float64 {
	if len(returns) < minSharpeObs {
		return 0
	}
	daily := riskFree / TradingDays
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - daily
	}
	mean, err := stats.Mean(excess)
	if err != nil {
		return 0
	}
	sd, err := stats.StandardDeviationSample(excess)
	if err != nil || sd < 1e-12 {
		return 0
	}
	return mean / sd * math.Sqrt(TradingDays)
}

// MaxDrawdown is the largest peak-to-trough fall as a positive fraction.
func MaxDrawdown(values []float64) float64 {
	peak, worst := math.Inf(-1), 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// CAGR annualizes growth from start to end over the calendar span.
func CAGR(start, end float64, from, to time.Time) float64 {
	years := to.Sub(from).Hours() / 24 / daysPerYear
	if start <= 0 || end <= 0 || years <= 0 {
		return 0
	}
	return math.Pow(end/start, 1/years) - 1
}

// AlphaBeta regresses strategy returns on benchmark returns. Alpha is
// annualized. Both are zero when the benchmark does not move.
func AlphaBeta(returns, bench []float64) (alpha, beta float64) {
	n := min(len(returns), len(bench))
	if n < 2 {
		return 0, 0
	}
	r, b := returns[:n], bench[:n]
	cov, err := stats.CovariancePopulation(r, b)
	if err != nil {
		return 0, 0
	}
	v, err := stats.PopulationVariance(b)
	if err != nil || v < 1e-18 {
		return 0, 0
	}
	beta = cov / v
	mr, _ := stats.Mean(r)
	mb, _ := stats.Mean(b)
	return (mr - beta*mb) * TradingDays, beta
}

// WinLoss scores every SELL against the running average cost of the
// position it closes.
func WinLoss(trades []portfolio.TradeRecord) (wins, losses int) {
	type book struct {
		shares int64
		cost   float64
	}
	books := map[string]*book{}
	for _, t := range trades {
		px, _ := t.Price.Float64()
		b, ok := books[t.Ticker]
		if !ok {
			b = &book{}
			books[t.Ticker] = b
		}
		switch t.Action {
		case portfolio.Buy:
			b.cost += px * float64(t.Shares)
			b.shares += t.Shares
		case portfolio.Sell:
			if b.shares == 0 {
				continue
			}
			avg := b.cost / float64(b.shares)
			switch {
			case px > avg:
				wins++
			case px < avg:
				losses++
			}
			b.cost -= avg * float64(t.Shares)
			b.shares -= t.Shares
			if b.shares <= 0 {
				b.shares, b.cost = 0, 0
			}
		}
	}
	return wins, losses
}

// Summary is the headline performance of one run.
type Summary struct {
	Start, End  time.Time
	StartValue  float64
	EndValue    float64
	TotalReturn float64
	CAGR        float64
	Sharpe      float64
	MaxDrawdown float64

	BenchmarkReturn float64
	Alpha           float64
	Beta            float64

	Trades  int
	Wins    int
	Losses  int
	WinRate float64
}

func Summarize(curve []Point, trades []portfolio.TradeRecord) Summary {
	var s Summary
	s.Trades = len(trades)
	s.Wins, s.Losses = WinLoss(trades)
	if closed := s.Wins + s.Losses; closed > 0 {
		s.WinRate = float64(s.Wins) / float64(closed)
	}
	if len(curve) == 0 {
		return s
	}

	values := make([]float64, len(curve))
	for i, p := range curve {
		values[i] = p.Value
	}
	first, last := curve[0], curve[len(curve)-1]
	s.Start, s.End = first.Date, last.Date
	s.StartValue, s.EndValue = first.Value, last.Value
	s.TotalReturn = TotalReturn(values)
	s.CAGR = CAGR(first.Value, last.Value, first.Date, last.Date)
	rets := Returns(values)
	s.Sharpe = Sharpe(rets, RiskFreeRate)
	s.MaxDrawdown = MaxDrawdown(values)

	var bench []float64
	for _, p := range curve {
		if p.Benchmark == nil {
			bench = nil
			break
		}
		bench = append(bench, *p.Benchmark)
	}
	if len(bench) == len(curve) {
		s.BenchmarkReturn = TotalReturn(bench)
		s.Alpha, s.Beta = AlphaBeta(rets, Returns(bench))
	}
	return s
}
