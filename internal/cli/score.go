package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	scoreMetric    string
	scoreValue     float64
	scoreTimestamp string
	scoreSourceKey string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a single observation and persist it",
	RunE: func(cmd *cobra.Command, args []string) error {
		if scoreMetric == "" {
			return fmt.Errorf("--metric must be provided")
		}
		if scoreTimestamp == "" {
			return fmt.Errorf("--timestamp must be provided")
		}
		return getApp().Score(cmd.Context(), scoreMetric, scoreValue, scoreTimestamp, scoreSourceKey)
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreMetric, "metric", "", "Metric identifier (e.g. freight_cost_index)")
	scoreCmd.Flags().Float64Var(&scoreValue, "value", 0, "Observed value")
	scoreCmd.Flags().StringVar(&scoreTimestamp, "timestamp", "", "Observation timestamp (date or datetime)")
	scoreCmd.Flags().StringVar(&scoreSourceKey, "source-key", "cli/manual", "Provenance reference for the raw input")
}
