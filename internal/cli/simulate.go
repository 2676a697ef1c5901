package cli

import (
	"github.com/spf13/cobra"
)

var (
	simulateValue float64
	simulateAvg   float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Assess a value against a baseline without persisting",
	Run: func(cmd *cobra.Command, args []string) {
		getApp().Simulate(simulateValue, simulateAvg)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "List every metric present in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ListMetrics(cmd.Context())
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulateValue, "value", 0, "Observed value")
	simulateCmd.Flags().Float64Var(&simulateAvg, "avg", 0, "Trailing moving average")
}
