package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/rohitashwachaks/traderplusplus/datafeed"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download price bars into the cache",
	Long: `Fetch loads bars for every ticker (and the benchmark) over the configured
period through the selected data source, filling the parquet cache.
With --out the bars are also written as Date,Open,High,Low,Close,Volume CSV
files usable by the csv source.

Example:
  traderpp fetch -t AAPL,MSFT --source polygon --start 2022-01-03 --out ./data`,
	RunE: runFetch,
}

var (
	fetchOut      string
	fetchParallel int
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringSliceVarP(&btTickers, "tickers", "t", nil, "comma separated tickers")
	fetchCmd.Flags().StringVar(&btStart, "start", "", "first date (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&btEnd, "end", "", "last date (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&btSource, "source", "", "data source: csv|polygon|alpaca")
	fetchCmd.Flags().StringVarP(&fetchOut, "out", "o", "", "also write one CSV per ticker into this directory")
	fetchCmd.Flags().IntVarP(&fetchParallel, "parallel", "p", 4, "concurrent downloads")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyBacktestFlags(cmd, cfg); err != nil {
		return err
	}
	cfg.Data.UseCache = cfg.Data.CacheDir != ""
	start, _ := cfg.Backtest.StartDate()
	end, _ := cfg.Backtest.EndDate()

	provider, err := newProvider(cfg)
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}

	tickers := cfg.Backtest.Tickers
	if bm := cfg.Backtest.Benchmark; bm != "" {
		tickers = append(append([]string(nil), tickers...), bm)
	}
	loader := &datafeed.Loader{
		Provider:    provider,
		Concurrency: fetchParallel,
		Log:         log.WithField("component", "fetch"),
	}
	frames, err := loader.LoadAll(cmd.Context(), tickers, start, end, cfg.Backtest.Interval)
	if err != nil {
		return err
	}

	if fetchOut != "" {
		if err := os.MkdirAll(fetchOut, 0o755); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(frames))
	for t := range frames {
		names = append(names, t)
	}
	sort.Strings(names)

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Ticker", "Bars", "First", "Last", "File"})
	for _, t := range names {
		bars := frames[t]
		file := ""
		if fetchOut != "" {
			file = filepath.Join(fetchOut, t+".csv")
			if err := datafeed.WriteCSV(file, bars); err != nil {
				return fmt.Errorf("write %s: %w", t, err)
			}
		}
		table.Append([]string{
			t,
			fmt.Sprintf("%d", len(bars)),
			bars[0].Date.Format("2006-01-02"),
			bars[len(bars)-1].Date.Format("2006-01-02"),
			file,
		})
	}
	table.Render()
	return nil
}
