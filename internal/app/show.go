package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
)

// Show prints recent scored observations for one metric.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	scores, err := store.QueryRange(ctx, opts.Metric, opts.Start, opts.End, opts.Limit)
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		fmt.Fprintln(os.Stdout, "no scores found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Timestamp\tValue\t30d Avg\tChange%\tScore\tSeverity\tSource")

	for _, score := range scores {
		fmt.Fprintf(
			writer,
			"%s\t%.2f\t%.2f\t%.2f\t%d\t%s\t%s\n",
			score.Timestamp,
			score.Value,
			score.MovingAvg30d,
			score.PctChange,
			score.RiskScore,
			score.Severity,
			score.SourceObjectKey,
		)
	}

	writer.Flush()
	return nil
}

// ListMetrics prints every metric identifier present in the store.
func (a *App) ListMetrics(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	metrics, err := store.ListMetrics(ctx)
	if err != nil {
		return err
	}
	if len(metrics) == 0 {
		fmt.Fprintln(os.Stdout, "no metrics found")
		return nil
	}

	for _, metric := range metrics {
		fmt.Fprintln(os.Stdout, metric)
	}
	return nil
}
