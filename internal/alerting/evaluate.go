package alerting

import (
	"math"

	"supply-risk-alerts/internal/storage"
)

// Evaluate matches one scored observation against the rules watching its
// metric and returns a notification per fired rule. A rule fires when it
// is enabled and the absolute percent change reaches its threshold.
func Evaluate(score storage.ScoredObservation, rules []storage.AlertRule, channels []string) []Notification {
	fired := make([]Notification, 0)
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if math.Abs(score.PctChange) < rule.Threshold {
			continue
		}
		fired = append(fired, Notification{
			Metric:       score.Metric,
			Timestamp:    score.Timestamp,
			Value:        score.Value,
			MovingAvg30d: score.MovingAvg30d,
			PctChange:    score.PctChange,
			RiskScore:    score.RiskScore,
			Severity:     score.Severity,
			ThresholdPct: rule.Threshold,
			UserID:       rule.UserID,
			Channels:     channels,
		})
	}
	return fired
}
