package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rohitashwachaks/traderplusplus/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "traderpp",
	Short: "Event-driven portfolio backtester",
	Long: `traderpp replays daily price history through a trading strategy and a
simulated portfolio, then reports the equity curve and trade log.

It provides tools for:
  - Backtesting strategies with guardrails over one or more tickers
  - Fetching and caching price bars from CSV, Polygon or Alpaca
  - Journaling trades and equity to CSV or SQLite
  - Computing today's signals and routing them to a broker`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	cfgFile   string
	envFiles  []string
	logLevel  string
	logFormat string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (default from config or LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text|json")
}

func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnv(envFiles...); err != nil {
		return err
	}
	return setupLogging(logLevel, logFormat)
}

func setupLogging(level, format string) error {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stderr)

	switch strings.ToLower(format) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("log format must be text or json, got %q", format)
	}
	return nil
}

// loadConfig reads --config when given, otherwise starts from defaults.
// Flags applied later by each command override both.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		cfg := config.Default()
		cfg.ApplyEnv()
		return cfg, nil
	}
	cfg, err := config.LoadFromFile(cfgFile)
	if err != nil {
		return nil, err
	}
	// flags win over the file
	if logLevel == "" && logFormat == "" {
		if err := setupLogging(cfg.Logging.Level, cfg.Logging.Format); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
