// Package indicators provides technical indicators over close-price series.
package indicators

// Indicator computes a single streaming value from successive closes.
// It is deterministic, so replaying the same closes yields the same value.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	Reset()

	// Update consumes the next close.
	Update(v float64)

	Ready() bool

	// Value is 0 until Ready.
	Value() float64
}
