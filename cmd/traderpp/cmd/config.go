package cmd

import (
	"fmt"
	"strings"

	"github.com/rohitashwachaks/traderplusplus/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage backtest configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  traderpp config init -o backtest.yaml
  traderpp config validate -f backtest.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	RunE:  runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "backtest.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Created default configuration: %s\n", configInitOutput)
	fmt.Fprintln(out, "\nEdit the file and run with:")
	fmt.Fprintf(out, "  traderpp backtest --config %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if _, err := newStrategy(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if _, err := newGuardrails(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Configuration valid: %s\n", configValidatePath)
	fmt.Fprintf(out, "  Tickers: %s (benchmark %s)\n", strings.Join(cfg.Backtest.Tickers, ","), orNone(cfg.Backtest.Benchmark))
	fmt.Fprintf(out, "  Period: %s .. %s ($%.2f)\n", cfg.Backtest.Start, cfg.Backtest.End, cfg.Backtest.StartingCash)
	fmt.Fprintf(out, "  Strategy: %s\n", cfg.Strategy.Name)
	for _, g := range cfg.Guardrails {
		fmt.Fprintf(out, "  Guardrail: %s\n", g.Name)
	}
	fmt.Fprintf(out, "  Data: %s (cache %v)\n", cfg.Data.Source, cfg.Data.UseCache)
	fmt.Fprintf(out, "  Journal: %s\n", cfg.Journal.Type)
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
