package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"supply-risk-alerts/internal/risk"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	upsertScoreSQL = `INSERT INTO risk_scores (
        metric,
        ts,
        value,
        moving_avg_30d,
        pct_change,
        risk_score,
        severity,
        source_object_key
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8
    )
    ON CONFLICT (metric, ts) DO UPDATE
    SET
        value             = EXCLUDED.value,
        moving_avg_30d    = EXCLUDED.moving_avg_30d,
        pct_change        = EXCLUDED.pct_change,
        risk_score        = EXCLUDED.risk_score,
        severity          = EXCLUDED.severity,
        source_object_key = EXCLUDED.source_object_key;`

	queryRangeSQL = `SELECT
        metric,
        ts,
        value,
        moving_avg_30d,
        pct_change,
        risk_score,
        severity,
        source_object_key
    FROM risk_scores
    WHERE metric = $1
      AND ts >= $2
      AND ts <= $3
    ORDER BY ts DESC
    LIMIT $4;`

	latestScoreSQL = `SELECT
        metric,
        ts,
        value,
        moving_avg_30d,
        pct_change,
        risk_score,
        severity,
        source_object_key
    FROM risk_scores
    WHERE metric = $1
    ORDER BY ts DESC
    LIMIT 1;`

	listMetricsPageSQL = `SELECT DISTINCT metric
    FROM risk_scores
    WHERE metric > $1
    ORDER BY metric
    LIMIT $2;`

	upsertAlertRuleSQL = `INSERT INTO alert_rules (
        user_id,
        metric,
        threshold,
        enabled
    ) VALUES (
        $1,$2,$3,$4
    )
    ON CONFLICT (user_id, metric) DO UPDATE
    SET threshold = EXCLUDED.threshold,
        enabled   = EXCLUDED.enabled;`

	userAlertRulesSQL = `SELECT user_id, metric, threshold, enabled, created_at
    FROM alert_rules
    WHERE user_id = $1
    ORDER BY metric;`

	metricAlertRulesSQL = `SELECT user_id, metric, threshold, enabled, created_at
    FROM alert_rules
    WHERE metric = $1
    ORDER BY user_id;`

	deleteAlertRuleSQL = `DELETE FROM alert_rules WHERE user_id = $1 AND metric = $2;`
)

// metricsPageSize bounds each page of the distinct-metric drain.
const metricsPageSize = 500

// ScoreStore defines the time-series operations consumed by scoring and
// the query surfaces.
type ScoreStore interface {
	PutScore(ctx context.Context, score ScoredObservation) error
	QueryRange(ctx context.Context, metric, start, end string, limit int) ([]ScoredObservation, error)
	Latest(ctx context.Context, metric string) (*ScoredObservation, error)
	ListMetrics(ctx context.Context) ([]string, error)
}

// RuleStore defines alert-rule persistence for the alerting collaborator.
type RuleStore interface {
	SaveAlertRule(ctx context.Context, rule AlertRule) error
	UserAlertRules(ctx context.Context, userID string) ([]AlertRule, error)
	RulesForMetric(ctx context.Context, metric string) ([]AlertRule, error)
	DeleteAlertRule(ctx context.Context, userID, metric string) error
}

// Store aggregates access to scored observations and alert rules.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// PutScore persists one scored observation. A colliding (metric, ts) key
// overwrites, never merges.
func (s *Store) PutScore(ctx context.Context, score ScoredObservation) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, upsertScoreSQL,
		score.Metric,
		score.Timestamp,
		decimal.NewFromFloat(score.Value).String(),
		decimal.NewFromFloat(score.MovingAvg30d).String(),
		decimal.NewFromFloat(score.PctChange).String(),
		score.RiskScore,
		score.Severity.String(),
		score.SourceObjectKey,
	)
	if execErr != nil {
		return fmt.Errorf("put score %s@%s: %w", score.Metric, score.Timestamp, execErr)
	}
	return nil
}

// QueryRange lists scored observations for a metric between start and end,
// both inclusive, descending by timestamp. Bare dates are widened to
// full-day bounds.
func (s *Store) QueryRange(ctx context.Context, metric, start, end string, limit int) ([]ScoredObservation, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	start, end = widenBounds(start, end)
	if limit <= 0 {
		limit = 1000
	}

	rows, queryErr := pool.Query(ctx, queryRangeSQL, metric, start, end, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("query range %s [%s, %s]: %w", metric, start, end, queryErr)
	}
	defer rows.Close()

	scores := make([]ScoredObservation, 0, limit)
	for rows.Next() {
		score, scanErr := scanScore(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		scores = append(scores, score)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return scores, nil
}

// Latest returns the most recent scored observation for a metric, or nil
// when the metric has never been written.
func (s *Store) Latest(ctx context.Context, metric string) (*ScoredObservation, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, latestScoreSQL, metric)
	if queryErr != nil {
		return nil, fmt.Errorf("latest score %s: %w", metric, queryErr)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	score, scanErr := scanScore(rows)
	if scanErr != nil {
		return nil, scanErr
	}
	return &score, nil
}

// ListMetrics drains every distinct metric identifier, page by page, and
// returns them sorted.
func (s *Store) ListMetrics(ctx context.Context) ([]string, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	metrics := make([]string, 0)
	cursor := ""
	for {
		rows, queryErr := pool.Query(ctx, listMetricsPageSQL, cursor, metricsPageSize)
		if queryErr != nil {
			return nil, fmt.Errorf("list metrics after %q: %w", cursor, queryErr)
		}

		page := 0
		for rows.Next() {
			var metric string
			if scanErr := rows.Scan(&metric); scanErr != nil {
				rows.Close()
				return nil, scanErr
			}
			metrics = append(metrics, metric)
			cursor = metric
			page++
		}
		rowsErr := rows.Err()
		rows.Close()
		if rowsErr != nil {
			return nil, rowsErr
		}
		if page < metricsPageSize {
			return metrics, nil
		}
	}
}

// SaveAlertRule creates or updates a rule keyed by (user_id, metric).
func (s *Store) SaveAlertRule(ctx context.Context, rule AlertRule) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, upsertAlertRuleSQL,
		rule.UserID,
		rule.Metric,
		decimal.NewFromFloat(rule.Threshold).String(),
		rule.Enabled,
	)
	if execErr != nil {
		return fmt.Errorf("save alert rule %s/%s: %w", rule.UserID, rule.Metric, execErr)
	}
	return nil
}

// UserAlertRules lists all rules owned by one user.
func (s *Store) UserAlertRules(ctx context.Context, userID string) ([]AlertRule, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, userAlertRulesSQL, userID)
	if queryErr != nil {
		return nil, fmt.Errorf("list alert rules for user %s: %w", userID, queryErr)
	}
	defer rows.Close()

	return collectRules(rows)
}

// RulesForMetric lists every rule watching one metric, via the metric
// secondary index.
func (s *Store) RulesForMetric(ctx context.Context, metric string) ([]AlertRule, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, metricAlertRulesSQL, metric)
	if queryErr != nil {
		return nil, fmt.Errorf("list alert rules for metric %s: %w", metric, queryErr)
	}
	defer rows.Close()

	return collectRules(rows)
}

// DeleteAlertRule removes a rule. Deleting a missing rule is not an error.
func (s *Store) DeleteAlertRule(ctx context.Context, userID, metric string) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteAlertRuleSQL, userID, metric); execErr != nil {
		return fmt.Errorf("delete alert rule %s/%s: %w", userID, metric, execErr)
	}
	return nil
}

// widenBounds expands bare YYYY-MM-DD dates to full-day canonical bounds.
func widenBounds(start, end string) (string, string) {
	if len(start) == 10 {
		start += "T00:00:00Z"
	}
	if len(end) == 10 {
		end += "T23:59:59Z"
	}
	return start, end
}

func scanScore(rows pgx.Rows) (ScoredObservation, error) {
	var (
		score        ScoredObservation
		valueStr     string
		movingAvgStr string
		pctStr       string
		severityStr  string
	)

	if err := rows.Scan(
		&score.Metric,
		&score.Timestamp,
		&valueStr,
		&movingAvgStr,
		&pctStr,
		&score.RiskScore,
		&severityStr,
		&score.SourceObjectKey,
	); err != nil {
		return ScoredObservation{}, err
	}

	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return ScoredObservation{}, fmt.Errorf("parse value: %w", err)
	}
	movingAvg, err := decimal.NewFromString(movingAvgStr)
	if err != nil {
		return ScoredObservation{}, fmt.Errorf("parse moving average: %w", err)
	}
	pct, err := decimal.NewFromString(pctStr)
	if err != nil {
		return ScoredObservation{}, fmt.Errorf("parse pct change: %w", err)
	}

	score.Value = value.InexactFloat64()
	score.MovingAvg30d = movingAvg.InexactFloat64()
	score.PctChange = pct.InexactFloat64()
	score.Severity = risk.ParseSeverity(severityStr)

	return score, nil
}

func collectRules(rows pgx.Rows) ([]AlertRule, error) {
	rules := make([]AlertRule, 0)
	for rows.Next() {
		var (
			rule         AlertRule
			thresholdStr string
		)
		if err := rows.Scan(
			&rule.UserID,
			&rule.Metric,
			&thresholdStr,
			&rule.Enabled,
			&rule.CreatedAt,
		); err != nil {
			return nil, err
		}

		threshold, err := decimal.NewFromString(thresholdStr)
		if err != nil {
			return nil, fmt.Errorf("parse threshold: %w", err)
		}
		rule.Threshold = threshold.InexactFloat64()
		rules = append(rules, rule)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return rules, nil
}

var _ ScoreStore = (*Store)(nil)
var _ RuleStore = (*Store)(nil)
