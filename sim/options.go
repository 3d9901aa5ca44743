package sim

import (
	"fmt"

	"github.com/rohitashwachaks/traderplusplus/journal"
	"github.com/rohitashwachaks/traderplusplus/risk"
	log "github.com/sirupsen/logrus"
)

// SellPolicy decides what happens to a sell larger than the position.
type SellPolicy string

const (
	SellClamp  SellPolicy = "clamp"
	SellReject SellPolicy = "reject"
)

// MissingPricePolicy decides how a held ticker without a price is valued.
type MissingPricePolicy string

const (
	MissingPriceFail MissingPricePolicy = "error"
	MissingPriceZero MissingPricePolicy = "zero"
)

// Options tunes an Executor. The zero value is usable.
type Options struct {
	// Universe handed to the strategy. Defaults to the portfolio tickers.
	Universe []string

	// Benchmark ticker sampled into the equity curve when priced.
	Benchmark string

	// Slippage is a fraction of the reference price, paid on buys and
	// given up on sells. 0.001 = 10bps.
	Slippage float64

	SellPolicy   SellPolicy
	MissingPrice MissingPricePolicy
	Risk         risk.Policy

	RunID   string
	Journal journal.Journal
	Log     *log.Entry
}

func (o *Options) defaults() error {
	if o.SellPolicy == "" {
		o.SellPolicy = SellClamp
	}
	if o.MissingPrice == "" {
		o.MissingPrice = MissingPriceFail
	}
	switch o.SellPolicy {
	case SellClamp, SellReject:
	default:
		return fmt.Errorf("sim: unknown sell policy %q", o.SellPolicy)
	}
	switch o.MissingPrice {
	case MissingPriceFail, MissingPriceZero:
	default:
		return fmt.Errorf("sim: unknown missing price policy %q", o.MissingPrice)
	}
	if o.Slippage < 0 || o.Slippage >= 1 {
		return fmt.Errorf("sim: slippage %v out of [0,1)", o.Slippage)
	}
	if o.Journal == nil {
		o.Journal = journal.Nop{}
	}
	if o.Log == nil {
		o.Log = log.WithField("component", "executor")
	}
	return nil
}
