package cmd

import (
	"fmt"

	"github.com/rohitashwachaks/traderplusplus/backtest"
	"github.com/rohitashwachaks/traderplusplus/broker"
	"github.com/rohitashwachaks/traderplusplus/broker/alpaca"
	"github.com/rohitashwachaks/traderplusplus/config"
	"github.com/rohitashwachaks/traderplusplus/datafeed"
	"github.com/rohitashwachaks/traderplusplus/guardrail"
	"github.com/rohitashwachaks/traderplusplus/journal"
	"github.com/rohitashwachaks/traderplusplus/risk"
	"github.com/rohitashwachaks/traderplusplus/sim"
	"github.com/rohitashwachaks/traderplusplus/strategies"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

func newProvider(cfg *config.Config) (datafeed.Provider, error) {
	p, err := datafeed.DefaultRegistry().New(cfg.Data.Source, datafeed.Settings{
		DataDir:         cfg.Data.Dir,
		PolygonAPIKey:   cfg.Polygon.APIKey,
		AlpacaAPIKey:    cfg.Alpaca.APIKey,
		AlpacaAPISecret: cfg.Alpaca.APISecret,
		AlpacaDataURL:   cfg.Alpaca.DataURL,
		AlpacaFeed:      cfg.Alpaca.Feed,
	})
	if err != nil {
		return nil, err
	}
	if !cfg.Data.UseCache {
		return p, nil
	}
	cache, err := datafeed.NewParquetCache(cfg.Data.CacheDir)
	if err != nil {
		return nil, err
	}
	return &datafeed.Cached{
		Provider:     p,
		Cache:        cache,
		ForceRefresh: cfg.Data.ForceRefresh,
		Log:          log.WithField("component", "cache"),
	}, nil
}

func newStrategy(cfg *config.Config) (strategies.Strategy, error) {
	return strategies.DefaultRegistry().New(cfg.Strategy.Name, strategies.Params(cfg.Strategy.Params))
}

func newGuardrails(cfg *config.Config) ([]guardrail.Guardrail, error) {
	reg := guardrail.DefaultRegistry()
	out := make([]guardrail.Guardrail, 0, len(cfg.Guardrails))
	for _, gc := range cfg.Guardrails {
		g, err := reg.New(gc.Name, guardrail.Params(gc.Params))
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func newBrokerRegistry() *broker.Registry {
	r := broker.NewRegistry()
	alpaca.Register(r)
	return r
}

// openJournal returns the journal the executor writes to and, for the
// sqlite type, the store that also receives the run summary.
func openJournal(cfg *config.Config) (journal.Journal, *journal.SQLite, error) {
	switch cfg.Journal.Type {
	case "csv":
		j, err := journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
		if err != nil {
			return nil, nil, err
		}
		return j, nil, nil
	case "sqlite":
		j, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return j, j, nil
	case "csv+sqlite":
		files, err := journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
		if err != nil {
			return nil, nil, err
		}
		db, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			files.Close()
			return nil, nil, err
		}
		return journal.Multi{files, db}, db, nil
	case "", "none":
		return journal.Nop{}, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown journal type %q", cfg.Journal.Type)
}

func backtestOptions(cfg *config.Config, j journal.Journal) backtest.Options {
	return backtest.Options{
		Name:         cfg.Backtest.Name,
		StartingCash: decimal.NewFromFloat(cfg.Backtest.StartingCash),
		Benchmark:    cfg.Backtest.Benchmark,
		Interval:     cfg.Backtest.Interval,
		Exec: sim.Options{
			Slippage:     cfg.Execution.Slippage,
			SellPolicy:   sim.SellPolicy(cfg.Execution.SellPolicy),
			MissingPrice: sim.MissingPricePolicy(cfg.Execution.MissingPrice),
			Risk: risk.Policy{
				MaxPositionPct:   cfg.Execution.Risk.MaxPositionPct,
				MaxOpenPositions: cfg.Execution.Risk.MaxOpenPositions,
			},
			Journal: j,
		},
	}
}
