package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rohitashwachaks/traderplusplus/broker"
	"github.com/rohitashwachaks/traderplusplus/datafeed"
	"github.com/rohitashwachaks/traderplusplus/market"
	"github.com/rohitashwachaks/traderplusplus/portfolio"
	"github.com/rohitashwachaks/traderplusplus/strategies"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Compute the strategy's signals for the latest trading date",
	Long: `Signal loads history up to --end (default today), asks the strategy for
its decision on the last common trading date and prints it.

With --broker the current positions come from the broker, and --submit
sends each signal as a DAY market order. --only keeps one side.

Example:
  traderpp signal -t AAPL,MSFT -s momentum --source alpaca --broker alpaca --submit`,
	RunE: runSignal,
}

var (
	sigBroker string
	sigSubmit bool
	sigOnly   string
)

func init() {
	rootCmd.AddCommand(signalCmd)

	signalCmd.Flags().StringSliceVarP(&btTickers, "tickers", "t", nil, "comma separated tickers")
	signalCmd.Flags().StringVar(&btEnd, "end", "", "decision date (YYYY-MM-DD, default today)")
	signalCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "", "strategy name")
	signalCmd.Flags().Float64VarP(&btCash, "cash", "b", 0, "cash available to the strategy")
	signalCmd.Flags().StringVar(&btSource, "source", "", "data source: csv|polygon|alpaca")
	signalCmd.Flags().BoolVar(&btNoCache, "no-cache", false, "bypass the parquet cache")
	signalCmd.Flags().StringVar(&sigBroker, "broker", "", "broker to read positions from and submit to")
	signalCmd.Flags().BoolVar(&sigSubmit, "submit", false, "submit the signals as market orders")
	signalCmd.Flags().StringVar(&sigOnly, "only", "", "keep only buy or sell signals")
}

func runSignal(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("end") {
		btEnd = time.Now().UTC().Format("2006-01-02")
		_ = cmd.Flags().Set("end", btEnd)
	}
	if err := applyBacktestFlags(cmd, cfg); err != nil {
		return err
	}
	if sigSubmit && sigBroker == "" {
		return fmt.Errorf("--submit needs --broker")
	}
	var only portfolio.Side
	if sigOnly != "" {
		if only, err = portfolio.ParseSide(sigOnly); err != nil {
			return fmt.Errorf("--only: %w", err)
		}
	}
	end, err := cfg.Backtest.EndDate()
	if err != nil {
		return fmt.Errorf("backtest.end: %w", err)
	}
	ctx := cmd.Context()

	strat, err := newStrategy(cfg)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	provider, err := newProvider(cfg)
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}

	var b broker.Broker
	positions := map[string]int64{}
	if sigBroker != "" {
		b, err = newBrokerRegistry().New(sigBroker, broker.Settings{
			APIKey:    cfg.Alpaca.APIKey,
			APISecret: cfg.Alpaca.APISecret,
			BaseURL:   cfg.Alpaca.BaseURL,
		})
		if err != nil {
			return err
		}
		if positions, err = b.GetPositions(ctx); err != nil {
			return fmt.Errorf("positions: %w", err)
		}
	}

	// a week of slack so weekends and holidays still leave a full window
	from := end.AddDate(0, 0, -(strat.Lookback() + 7))
	loader := &datafeed.Loader{Provider: provider, Log: log.WithField("component", "loader")}
	frames, err := loader.LoadAll(ctx, cfg.Backtest.Tickers, from, end, cfg.Backtest.Interval)
	if err != nil {
		return err
	}
	cursor, err := market.NewCursor(frames)
	if err != nil {
		return err
	}
	dates := cursor.AllDates()
	date := dates[len(dates)-1]

	signals, err := strat.GenerateSignals(strategies.Context{
		Window:    cursor.Window(date, strat.Lookback(), cfg.Backtest.Tickers),
		Date:      date,
		Positions: positions,
		Cash:      decimal.NewFromFloat(cfg.Backtest.StartingCash),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", strat.Name(), err)
	}

	tickers := make([]string, 0, len(signals))
	for t, n := range signals {
		if only == portfolio.Buy && n < 0 || only == portfolio.Sell && n > 0 {
			continue
		}
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Date", "Ticker", "Action", "Shares", "Close", "Held", "Order"})
	for _, t := range tickers {
		qty := signals[t]
		side := portfolio.Buy
		if qty < 0 {
			side, qty = portfolio.Sell, -qty
		}
		px, _ := cursor.Price(t, date, market.Close)

		orderID := ""
		if sigSubmit {
			o := broker.NewMarketOrder(t, side, qty)
			o.Note = portfolio.DefaultNote
			if orderID, err = b.SubmitOrder(ctx, o); err != nil {
				return fmt.Errorf("submit %s %s: %w", side, t, err)
			}
			log.WithFields(log.Fields{"ticker": t, "side": side, "qty": qty, "order": orderID}).Info("order submitted")
		}
		table.Append([]string{
			date.Format("2006-01-02"),
			t,
			string(side),
			fmt.Sprintf("%d", qty),
			fmt.Sprintf("%.2f", px),
			fmt.Sprintf("%d", positions[t]),
			orderID,
		})
	}
	table.Render()
	if len(tickers) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: no action on %s\n", strat.Name(), date.Format("2006-01-02"))
	}
	return nil
}
