package risk

import (
	"math"

	"github.com/shopspring/decimal"
)

// SharesFor returns how many whole shares weight*cash buys at price.
func SharesFor(cash decimal.Decimal, weight, price float64) int64 {
	if price <= 0 || weight <= 0 || !cash.IsPositive() {
		return 0
	}
	budget := cash.InexactFloat64() * weight
	return int64(math.Floor(budget / price))
}

// EqualWeight splits cash evenly across n names and sizes one of them.
func EqualWeight(cash decimal.Decimal, n int, price float64) int64 {
	if n <= 0 {
		return 0
	}
	return SharesFor(cash, 1/float64(n), price)
}
