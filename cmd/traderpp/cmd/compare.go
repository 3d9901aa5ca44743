package cmd

import (
	"fmt"

	"github.com/rohitashwachaks/traderplusplus/backtest"
	"github.com/rohitashwachaks/traderplusplus/datafeed"
	"github.com/rohitashwachaks/traderplusplus/guardrail"
	"github.com/rohitashwachaks/traderplusplus/journal"
	"github.com/rohitashwachaks/traderplusplus/market"
	"github.com/rohitashwachaks/traderplusplus/strategies"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run several strategies side by side on the same data",
	Long: `Compare loads price history once and runs every named strategy on it
concurrently, each with its own portfolio and guardrails.

Example:
  traderpp compare -t AAPL,MSFT --strategies noop,buy_n_hold,momentum`,
	RunE: runCompare,
}

var (
	cmpStrategies []string
	cmpParallel   int
)

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringSliceVarP(&btTickers, "tickers", "t", nil, "comma separated tickers")
	compareCmd.Flags().StringVar(&btStart, "start", "", "first simulated date (YYYY-MM-DD)")
	compareCmd.Flags().StringVar(&btEnd, "end", "", "last simulated date (YYYY-MM-DD)")
	compareCmd.Flags().Float64VarP(&btCash, "cash", "b", 0, "starting cash")
	compareCmd.Flags().StringVar(&btSource, "source", "", "data source: csv|polygon|alpaca")
	compareCmd.Flags().BoolVar(&btNoCache, "no-cache", false, "bypass the parquet cache")
	compareCmd.Flags().StringSliceVar(&cmpStrategies, "strategies", []string{"noop", "buy_n_hold", "momentum"}, "strategies to compare (default params)")
	compareCmd.Flags().IntVarP(&cmpParallel, "parallel", "p", 4, "runs in flight at once")
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyBacktestFlags(cmd, cfg); err != nil {
		return err
	}
	start, _ := cfg.Backtest.StartDate()
	end, _ := cfg.Backtest.EndDate()

	reg := strategies.DefaultRegistry()
	lookback := 0
	for _, name := range cmpStrategies {
		s, err := reg.New(name, nil)
		if err != nil {
			return err
		}
		lookback = max(lookback, s.Lookback())
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	load := cfg.Backtest.Tickers
	if bm := cfg.Backtest.Benchmark; bm != "" {
		load = append(append([]string(nil), load...), bm)
	}
	loader := &datafeed.Loader{Provider: provider, Log: log.WithField("component", "loader")}
	frames, err := loader.LoadAll(cmd.Context(), load, start.AddDate(0, 0, -(lookback+1)), end, cfg.Backtest.Interval)
	if err != nil {
		return err
	}
	cursor, err := market.NewCursor(frames)
	if err != nil {
		return err
	}

	jobs := make([]backtest.Job, 0, len(cmpStrategies))
	for _, name := range cmpStrategies {
		name := name
		opts := backtestOptions(cfg, journal.Nop{})
		opts.Name = name
		jobs = append(jobs, backtest.Job{
			Strategy:   func() (strategies.Strategy, error) { return reg.New(name, nil) },
			Guardrails: func() ([]guardrail.Guardrail, error) { return newGuardrails(cfg) },
			Options:    opts,
		})
	}

	results, err := backtest.RunAll(cmd.Context(), cursor, cfg.Backtest.Tickers, start, jobs, cmpParallel)
	if err != nil {
		return err
	}
	backtest.PrintComparison(cmd.OutOrStdout(), results)
	for _, r := range results {
		backtest.PrintSkipped(cmd.OutOrStdout(), r)
	}
	return nil
}
