package storage

import (
	"time"

	"supply-risk-alerts/internal/risk"
)

// ScoredObservation is the unit persisted by the scoring pipeline: one
// raw observation plus its derived risk fields. Records are immutable
// after the write; corrections land as overwrites of the same
// (metric, timestamp) key.
type ScoredObservation struct {
	Metric          string        `json:"metric"`
	Timestamp       string        `json:"timestamp"`
	Value           float64       `json:"value"`
	MovingAvg30d    float64       `json:"moving_avg_30d"`
	PctChange       float64       `json:"pct_change"`
	RiskScore       int           `json:"risk_score"`
	Severity        risk.Severity `json:"severity"`
	SourceObjectKey string        `json:"source_object_key"`
}

// AlertRule maps a (user, metric) pair to an alerting threshold on the
// absolute percent change of a scored observation.
type AlertRule struct {
	UserID    string    `json:"user_id"`
	Metric    string    `json:"metric"`
	Threshold float64   `json:"threshold"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}
