package cmd

import (
	"fmt"

	"github.com/rohitashwachaks/traderplusplus/datafeed"
	"github.com/rohitashwachaks/traderplusplus/guardrail"
	"github.com/rohitashwachaks/traderplusplus/strategies"
	"github.com/spf13/cobra"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List registered strategies, guardrails, data sources and brokers",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		list := func(title string, names []string) {
			fmt.Fprintf(out, "%s:\n", title)
			for _, n := range names {
				fmt.Fprintf(out, "  %s\n", n)
			}
		}
		list("Strategies", strategies.DefaultRegistry().Names())
		list("Guardrails", guardrail.DefaultRegistry().Names())
		list("Data sources", datafeed.DefaultRegistry().Names())
		list("Brokers", newBrokerRegistry().Names())
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
