package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"supply-risk-alerts/internal/storage"
)

// SaveRule creates or updates an alert rule.
func (a *App) SaveRule(ctx context.Context, opts RuleOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	rule := storage.AlertRule{
		UserID:    opts.UserID,
		Metric:    opts.Metric,
		Threshold: opts.Threshold,
		Enabled:   opts.Enabled,
	}
	if err := store.SaveAlertRule(ctx, rule); err != nil {
		return err
	}

	a.Logger.Info().Str("user_id", opts.UserID).Str("metric", opts.Metric).Float64("threshold", opts.Threshold).Msg("alert rule saved")
	return nil
}

// ListRules prints alert rules for a user or a metric.
func (a *App) ListRules(ctx context.Context, userID, metric string) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	var rules []storage.AlertRule
	switch {
	case userID != "":
		rules, err = store.UserAlertRules(ctx, userID)
	case metric != "":
		rules, err = store.RulesForMetric(ctx, metric)
	default:
		return fmt.Errorf("either --user or --metric must be provided")
	}
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		fmt.Fprintln(os.Stdout, "no alert rules found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "User\tMetric\tThreshold%\tEnabled\tCreated")
	for _, rule := range rules {
		fmt.Fprintf(writer, "%s\t%s\t%.2f\t%t\t%s\n",
			rule.UserID, rule.Metric, rule.Threshold, rule.Enabled, rule.CreatedAt.UTC().Format(time.RFC3339))
	}
	writer.Flush()
	return nil
}

// DeleteRule removes an alert rule.
func (a *App) DeleteRule(ctx context.Context, userID, metric string) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.DeleteAlertRule(ctx, userID, metric); err != nil {
		return err
	}

	a.Logger.Info().Str("user_id", userID).Str("metric", metric).Msg("alert rule deleted")
	return nil
}
