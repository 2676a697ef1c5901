package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"supply-risk-alerts/internal/app"
)

var (
	exportMetric    string
	exportStart     string
	exportEnd       string
	exportCSVPath   string
	exportPNGPath   string
	exportMaxPoints int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a metric's scored history as CSV and/or PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportMetric == "" {
			return fmt.Errorf("--metric must be provided")
		}

		end := exportEnd
		if end == "" {
			end = time.Now().UTC().Format("2006-01-02")
		}
		start := exportStart
		if start == "" {
			start = time.Now().UTC().AddDate(0, 0, -90).Format("2006-01-02")
		}

		opts := app.ExportOptions{
			Metric:    exportMetric,
			Start:     start,
			End:       end,
			CSVPath:   exportCSVPath,
			PNGPath:   exportPNGPath,
			MaxPoints: exportMaxPoints,
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportMetric, "metric", "", "Metric identifier")
	exportCmd.Flags().StringVar(&exportStart, "start", "", "Range start (default 90 days ago)")
	exportCmd.Flags().StringVar(&exportEnd, "end", "", "Range end (default today)")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "CSV output path")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "PNG chart output path")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Maximum data points to export (0 = config default)")
}
