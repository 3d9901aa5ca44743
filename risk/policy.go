package risk

// Policy holds pre-trade limits applied to buy orders. A zero value disables
// the corresponding rule.
type Policy struct {
	// Largest allowed value of one position as a fraction of net worth.
	MaxPositionPct float64 // 0.25

	// Maximum number of distinct tickers held at once.
	MaxOpenPositions int // 10
}

func (p Policy) Enabled() bool {
	return p.MaxPositionPct > 0 || p.MaxOpenPositions > 0
}

// TradeIntent is a proposed buy.
type TradeIntent struct {
	Ticker string
	Shares int64
	Price  float64
}

// AccountSnapshot describes the portfolio just before the trade.
type AccountSnapshot struct {
	NetWorth      float64
	PositionValue float64 // current value already held in Ticker
	OpenPositions int
	HoldsTicker   bool
}
