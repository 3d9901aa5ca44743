package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		policy  Policy
		intent  TradeIntent
		acct    AccountSnapshot
		allowed bool
		code    string
	}{
		{
			name:    "disabled policy allows",
			intent:  TradeIntent{Ticker: "AAA", Shares: 100, Price: 100},
			acct:    AccountSnapshot{NetWorth: 10_000},
			allowed: true,
		},
		{
			name:    "position too large",
			policy:  Policy{MaxPositionPct: 0.25},
			intent:  TradeIntent{Ticker: "AAA", Shares: 30, Price: 100},
			acct:    AccountSnapshot{NetWorth: 10_000},
			allowed: false,
			code:    CodePositionTooLarge,
		},
		{
			name:    "existing value counts",
			policy:  Policy{MaxPositionPct: 0.25},
			intent:  TradeIntent{Ticker: "AAA", Shares: 10, Price: 100},
			acct:    AccountSnapshot{NetWorth: 10_000, PositionValue: 2_000, HoldsTicker: true},
			allowed: false,
			code:    CodePositionTooLarge,
		},
		{
			name:    "too many positions",
			policy:  Policy{MaxOpenPositions: 2},
			intent:  TradeIntent{Ticker: "CCC", Shares: 1, Price: 10},
			acct:    AccountSnapshot{NetWorth: 10_000, OpenPositions: 2},
			allowed: false,
			code:    CodeTooManyPositions,
		},
		{
			name:    "adding to held ticker ignores position count",
			policy:  Policy{MaxOpenPositions: 2},
			intent:  TradeIntent{Ticker: "AAA", Shares: 1, Price: 10},
			acct:    AccountSnapshot{NetWorth: 10_000, OpenPositions: 2, HoldsTicker: true},
			allowed: true,
		},
		{
			name:    "no shares",
			intent:  TradeIntent{Ticker: "AAA"},
			allowed: false,
			code:    CodeNoShares,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tt.policy, tt.intent, tt.acct)
			assert.Equal(t, tt.allowed, d.Allowed)
			if tt.code != "" {
				if assert.NotEmpty(t, d.Violations) {
					assert.Equal(t, tt.code, d.Violations[0].Code)
					assert.NotEmpty(t, d.Reason())
				}
			}
		})
	}
}

func TestSharesFor(t *testing.T) {
	t.Parallel()

	cash := decimal.NewFromInt(10_000)
	assert.Equal(t, int64(33), SharesFor(cash, 1, 300))
	assert.Equal(t, int64(16), EqualWeight(cash, 2, 300))
	assert.Equal(t, int64(0), SharesFor(cash, 1, 0))
	assert.Equal(t, int64(0), EqualWeight(cash, 0, 10))
	assert.Equal(t, int64(0), SharesFor(decimal.Zero, 1, 10))
	assert.True(t, Policy{MaxOpenPositions: 1}.Enabled())
	assert.False(t, Policy{}.Enabled())
}
