package app

import (
	"context"
	"fmt"
	"os"

	"supply-risk-alerts/internal/scoring"
)

// Score runs a single observation through the scoring pipeline and
// prints the persisted record.
func (a *App) Score(ctx context.Context, metric string, value float64, timestamp, sourceKey string) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	scorer := scoring.New(store, a.Config.Scoring.WindowDays, a.Logger)
	score, err := scorer.ScoreAndPersist(ctx, scoring.Request{
		Metric:          metric,
		Value:           value,
		Timestamp:       timestamp,
		SourceObjectKey: sourceKey,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "metric: %s\ntimestamp: %s\nvalue: %.2f\nmoving_avg_30d: %.2f\npct_change: %.2f%%\nrisk_score: %d\nseverity: %s\n",
		score.Metric, score.Timestamp, score.Value, score.MovingAvg30d, score.PctChange, score.RiskScore, score.Severity)
	return nil
}
