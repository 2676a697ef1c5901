package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"supply-risk-alerts/internal/app"
)

var (
	showMetric string
	showStart  string
	showEnd    string
	showLimit  int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display recent scored observations for a metric",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showMetric == "" {
			return fmt.Errorf("--metric must be provided")
		}
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		end := showEnd
		if end == "" {
			end = time.Now().UTC().Format("2006-01-02")
		}
		start := showStart
		if start == "" {
			start = time.Now().UTC().AddDate(0, 0, -30).Format("2006-01-02")
		}

		opts := app.ShowOptions{
			Metric: showMetric,
			Start:  start,
			End:    end,
			Limit:  showLimit,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showMetric, "metric", "", "Metric identifier")
	showCmd.Flags().StringVar(&showStart, "start", "", "Range start (YYYY-MM-DD or full timestamp, default 30 days ago)")
	showCmd.Flags().StringVar(&showEnd, "end", "", "Range end (YYYY-MM-DD or full timestamp, default today)")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of scores to display")
}
