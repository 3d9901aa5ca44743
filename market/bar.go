package market

import (
	"math"
	"time"
)

// Field names a bar column.
type Field string

const (
	Open   Field = "Open"
	High   Field = "High"
	Low    Field = "Low"
	Close  Field = "Close"
	Volume Field = "Volume"
)

// RequiredColumns lists the columns every tabular price source must carry.
var RequiredColumns = []string{string(Open), string(High), string(Low), string(Close), string(Volume)}

// Bar is one OHLCV observation.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

func (b Bar) Value(f Field) (float64, bool) {
	switch f {
	case Open:
		return b.Open, true
	case High:
		return b.High, true
	case Low:
		return b.Low, true
	case Close:
		return b.Close, true
	case Volume:
		return b.Volume, true
	}
	return 0, false
}

// Valid reports whether every field is a finite number and the close is
// positive.
func (b Bar) Valid() bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Close > 0
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
