package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rohitashwachaks/traderplusplus/backtest"
	"github.com/rohitashwachaks/traderplusplus/config"
	"github.com/rohitashwachaks/traderplusplus/journal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a strategy over historical daily bars",
	Long: `Backtest replays price history through a strategy and its guardrails.

Settings come from --config (or built-in defaults); flags override them.

Supported strategies:
  - noop: never trades (baseline)
  - buy_n_hold: splits cash evenly on the first day and holds
  - momentum: short/long SMA crossover
  - ema_cross: fast/slow EMA crossover
  - ema_cross_adx: EMA crossover entered only in a trending market
  - stoploss: trend entry with a trailing exit

Example:
  traderpp backtest -t AAPL,MSFT --start 2023-01-03 --end 2023-12-29 -s momentum`,
	RunE: runBacktest,
}

var (
	btTickers   []string
	btStart     string
	btEnd       string
	btStrategy  string
	btCash      float64
	btBenchmark string
	btSource    string
	btNoCache   bool
	btJournal   string
	btOrg       string
	btTrades    bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringSliceVarP(&btTickers, "tickers", "t", nil, "comma separated tickers")
	backtestCmd.Flags().StringVar(&btStart, "start", "", "first simulated date (YYYY-MM-DD)")
	backtestCmd.Flags().StringVar(&btEnd, "end", "", "last simulated date (YYYY-MM-DD)")
	backtestCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "", "strategy name")
	backtestCmd.Flags().Float64VarP(&btCash, "cash", "b", 0, "starting cash")
	backtestCmd.Flags().StringVar(&btBenchmark, "benchmark", "", "benchmark ticker")
	backtestCmd.Flags().StringVar(&btSource, "source", "", "data source: csv|polygon|alpaca")
	backtestCmd.Flags().BoolVar(&btNoCache, "no-cache", false, "bypass the parquet cache")
	backtestCmd.Flags().StringVar(&btJournal, "journal", "", "journal type: csv|sqlite|csv+sqlite|none")
	backtestCmd.Flags().StringVar(&btOrg, "org", "", "write an org-mode run report to this path")
	backtestCmd.Flags().BoolVar(&btTrades, "trades", true, "print the trade log")
}

func applyBacktestFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("tickers") {
		cfg.Backtest.Tickers = upper(btTickers)
	}
	if f.Changed("start") {
		cfg.Backtest.Start = btStart
	}
	if f.Changed("end") {
		cfg.Backtest.End = btEnd
	}
	if f.Changed("strategy") {
		cfg.Strategy.Name = btStrategy
		cfg.Strategy.Params = nil
	}
	if f.Changed("cash") {
		cfg.Backtest.StartingCash = btCash
	}
	if f.Changed("benchmark") {
		cfg.Backtest.Benchmark = strings.ToUpper(btBenchmark)
	}
	if f.Changed("source") {
		cfg.Data.Source = btSource
	}
	if btNoCache {
		cfg.Data.UseCache = false
	}
	if f.Changed("journal") {
		cfg.Journal.Type = btJournal
	}
	if f.Changed("org") {
		cfg.Journal.OrgPath = btOrg
	}
	return cfg.Validate()
}

func upper(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyBacktestFlags(cmd, cfg); err != nil {
		return err
	}
	start, _ := cfg.Backtest.StartDate()
	end, _ := cfg.Backtest.EndDate()

	provider, err := newProvider(cfg)
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	strat, err := newStrategy(cfg)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	guards, err := newGuardrails(cfg)
	if err != nil {
		return fmt.Errorf("guardrail: %w", err)
	}
	j, store, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	defer func() {
		if err := j.Close(); err != nil {
			log.WithError(err).Warn("closing journal")
		}
	}()

	bt := &backtest.Backtester{
		Provider:   provider,
		Strategy:   strat,
		Guardrails: guards,
		Options:    backtestOptions(cfg, j),
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	began := time.Now()
	res, err := bt.Run(ctx, cfg.Backtest.Tickers, start, end)
	if err != nil {
		return err
	}
	log.WithField("elapsed", time.Since(began).Round(time.Millisecond)).Debug("backtest finished")

	out := cmd.OutOrStdout()
	backtest.PrintSummary(out, res)
	if btTrades && len(res.Trades) > 0 {
		fmt.Fprintln(out)
		backtest.PrintTrades(out, res)
	}
	backtest.PrintSkipped(out, res)

	return saveRun(ctx, cfg, res, store)
}

// saveRun stores the run summary in sqlite and renders the org report.
func saveRun(ctx context.Context, cfg *config.Config, res *backtest.Result, store *journal.SQLite) error {
	if store == nil && cfg.Journal.OrgPath == "" {
		return nil
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	run := res.Journal(raw)
	run.OrgPath = cfg.Journal.OrgPath

	if store != nil {
		if err := store.RecordBacktest(ctx, run); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		log.WithField("run", run.RunID).Info("run saved")
	}
	if run.OrgPath != "" {
		if err := run.WriteBacktestOrg(); err != nil {
			return fmt.Errorf("org report: %w", err)
		}
		log.WithField("path", run.OrgPath).Info("org report written")
	}
	return nil
}
