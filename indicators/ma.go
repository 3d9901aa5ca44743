package indicators

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// SMA is the mean of the last period values.
func SMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(values) < period {
		return 0, fmt.Errorf("not enough values: need %d, got %d", period, len(values))
	}
	return stats.Mean(values[len(values)-period:])
}

// EMA seeds with the SMA of the first period values and then applies the
// exponential update to the rest.
func EMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(values) < period {
		return 0, fmt.Errorf("not enough values: need %d, got %d", period, len(values))
	}

	e := NewEMA(period)
	for _, v := range values {
		e.Update(v)
	}
	return e.Value(), nil
}

// PctChange returns the simple returns between consecutive values. Pairs
// with a non-positive base are skipped.
func PctChange(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] <= 0 {
			continue
		}
		out = append(out, values[i]/values[i-1]-1)
	}
	return out
}

// MeanReturn is the average of PctChange(values), 0 when there are fewer
// than two values.
func MeanReturn(values []float64) float64 {
	r := PctChange(values)
	if len(r) == 0 {
		return 0
	}
	m, err := stats.Mean(r)
	if err != nil {
		return 0
	}
	return m
}
