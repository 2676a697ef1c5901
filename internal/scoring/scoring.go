// Package scoring implements the moving-average and scoring pipeline:
// a new observation plus its trailing history becomes a persisted
// ScoredObservation.
package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"supply-risk-alerts/internal/risk"
	"supply-risk-alerts/internal/storage"
	"supply-risk-alerts/internal/timestamp"
)

// DefaultWindowDays is the trailing lookback for the moving average.
const DefaultWindowDays = 30

// historyQueryLimit bounds how many trailing observations one average
// may consume.
const historyQueryLimit = 1000

// Request carries one observation into the scoring pipeline.
type Request struct {
	Metric          string
	Value           float64
	Timestamp       string
	SourceObjectKey string
}

// Scorer scores observations against an injected time-series store.
// Each ScoreAndPersist call is self-contained; the Scorer holds no
// per-observation state.
type Scorer struct {
	store      storage.ScoreStore
	windowDays int
	logger     zerolog.Logger
}

// New constructs a Scorer. A non-positive windowDays falls back to the
// 30-day default.
func New(store storage.ScoreStore, windowDays int, logger zerolog.Logger) *Scorer {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Scorer{
		store:      store,
		windowDays: windowDays,
		logger:     logger.With().Str("component", "scoring").Logger(),
	}
}

// MovingAverage computes the unweighted mean of a metric's values over
// [asOf - windowDays, asOf). The upper bound is exclusive so an
// observation never contributes to its own baseline. ok is false when
// the window holds no observations; callers must not conflate that with
// a true zero average.
func (s *Scorer) MovingAverage(ctx context.Context, metric, asOf string, windowDays int) (avg float64, ok bool, err error) {
	if windowDays <= 0 {
		windowDays = s.windowDays
	}

	asOfTime, parseErr := parseCanonical(asOf)
	if parseErr != nil {
		// Non-canonical as-of means the key never entered time order;
		// score it as a first observation rather than failing ingest.
		s.logger.Warn().Str("metric", metric).Str("as_of", asOf).Msg("non-canonical as-of timestamp, treating history as empty")
		return 0, false, nil
	}

	start := asOfTime.AddDate(0, 0, -windowDays).UTC().Format(timestamp.Canonical)

	history, queryErr := s.store.QueryRange(ctx, metric, start, asOf, historyQueryLimit)
	if queryErr != nil {
		return 0, false, fmt.Errorf("moving average %s@%s: %w", metric, asOf, queryErr)
	}

	sum := 0.0
	count := 0
	for _, h := range history {
		// QueryRange bounds are inclusive; drop the as-of instant itself.
		if h.Timestamp >= asOf {
			continue
		}
		sum += h.Value
		count++
	}

	if count == 0 {
		return 0, false, nil
	}
	return sum / float64(count), true, nil
}

// ScoreAndPersist normalizes the observation timestamp, derives its risk
// fields from the trailing window, and writes the result under
// (metric, timestamp) with overwrite semantics. Store failures propagate
// unretried, tagged with the metric and timestamp being scored.
func (s *Scorer) ScoreAndPersist(ctx context.Context, req Request) (storage.ScoredObservation, error) {
	ts := timestamp.Normalize(req.Timestamp)

	avg, ok, err := s.MovingAverage(ctx, req.Metric, ts, s.windowDays)
	if err != nil {
		return storage.ScoredObservation{}, fmt.Errorf("score %s@%s: %w", req.Metric, ts, err)
	}
	if !ok {
		// First-ever observation: no baseline, no change signal.
		avg = 0
	}

	assessment := risk.Assess(req.Value, avg)

	score := storage.ScoredObservation{
		Metric:          req.Metric,
		Timestamp:       ts,
		Value:           req.Value,
		MovingAvg30d:    avg,
		PctChange:       assessment.PctChange,
		RiskScore:       assessment.Score,
		Severity:        assessment.Severity,
		SourceObjectKey: req.SourceObjectKey,
	}

	if err := s.store.PutScore(ctx, score); err != nil {
		return storage.ScoredObservation{}, fmt.Errorf("persist score %s@%s: %w", req.Metric, ts, err)
	}

	return score, nil
}

func parseCanonical(s string) (time.Time, error) {
	if t, err := time.Parse(timestamp.Canonical, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
