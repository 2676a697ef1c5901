package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"supply-risk-alerts/internal/app"
)

var (
	ruleUser      string
	ruleMetric    string
	ruleThreshold float64
	ruleDisabled  bool
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage alert rules",
}

var rulesSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or update an alert rule",
	RunE: func(cmd *cobra.Command, args []string) error {
		if ruleUser == "" || ruleMetric == "" {
			return fmt.Errorf("--user and --metric must be provided")
		}
		if ruleThreshold < 0 {
			return fmt.Errorf("--threshold cannot be negative")
		}

		opts := app.RuleOptions{
			UserID:    ruleUser,
			Metric:    ruleMetric,
			Threshold: ruleThreshold,
			Enabled:   !ruleDisabled,
		}
		return getApp().SaveRule(cmd.Context(), opts)
	},
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alert rules for a user or metric",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ListRules(cmd.Context(), ruleUser, ruleMetric)
	},
}

var rulesDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete an alert rule",
	RunE: func(cmd *cobra.Command, args []string) error {
		if ruleUser == "" || ruleMetric == "" {
			return fmt.Errorf("--user and --metric must be provided")
		}
		return getApp().DeleteRule(cmd.Context(), ruleUser, ruleMetric)
	},
}

func init() {
	rulesCmd.PersistentFlags().StringVar(&ruleUser, "user", "", "User identifier")
	rulesCmd.PersistentFlags().StringVar(&ruleMetric, "metric", "", "Metric identifier")
	rulesSetCmd.Flags().Float64Var(&ruleThreshold, "threshold", 5.0, "Absolute percent-change threshold")
	rulesSetCmd.Flags().BoolVar(&ruleDisabled, "disabled", false, "Create the rule in a disabled state")

	rulesCmd.AddCommand(rulesSetCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesDeleteCmd)
}
