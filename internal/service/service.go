package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"supply-risk-alerts/internal/alerting"
	"supply-risk-alerts/internal/config"
	"supply-risk-alerts/internal/fetcher"
	"supply-risk-alerts/internal/metrics"
	"supply-risk-alerts/internal/parser"
	"supply-risk-alerts/internal/scheduler"
	"supply-risk-alerts/internal/scoring"
	"supply-risk-alerts/internal/storage"
)

// ScoredPublisher forwards scored observations to downstream consumers.
type ScoredPublisher interface {
	PublishScore(ctx context.Context, score storage.ScoredObservation) error
}

// RawReader consumes raw observation payloads from a queue.
type RawReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Service orchestrates fetching, scoring, persistence, and alerting.
type Service struct {
	scheduler *scheduler.Scheduler
	fetchers  []fetcher.Fetcher
	scorer    *scoring.Scorer
	rules     storage.RuleStore
	notifier  alerting.Notifier
	publisher ScoredPublisher
	pipeline  *metrics.Pipeline
	logger    zerolog.Logger

	channels []string
	alertsOn bool
}

// New constructs the monitoring service.
func New(cfg *config.Config, sched *scheduler.Scheduler, fetchers []fetcher.Fetcher, scorer *scoring.Scorer, rules storage.RuleStore, notifier alerting.Notifier, publisher ScoredPublisher, pipeline *metrics.Pipeline, logger zerolog.Logger) *Service {
	return &Service{
		scheduler: sched,
		fetchers:  fetchers,
		scorer:    scorer,
		rules:     rules,
		notifier:  notifier,
		publisher: publisher,
		pipeline:  pipeline,
		logger:    logger.With().Str("component", "service").Logger(),
		channels:  cfg.Alerting.Channels,
		alertsOn:  cfg.Alerting.Enabled,
	}
}

// Run begins the aligned ingest loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.RunCycle)
}

// RunCycle executes one ingest cycle across every configured feed.
func (s *Service) RunCycle(ctx context.Context, cycle time.Time) error {
	var errs []error
	for _, f := range s.fetchers {
		observations, err := f.Fetch(ctx)
		if err != nil {
			s.countFailure()
			s.logger.Error().Err(err).Str("feed", f.Name()).Time("cycle", cycle).Msg("feed fetch failed")
			errs = append(errs, fmt.Errorf("feed %s: %w", f.Name(), err))
			continue
		}

		for _, obs := range observations {
			if err := s.ProcessRecord(ctx, obs.Record, obs.SourceObjectKey); err != nil {
				s.countFailure()
				s.logger.Error().Err(err).Str("metric", obs.Metric).Str("timestamp", obs.Timestamp).Msg("failed to score observation")
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// ProcessRecord scores and persists one normalized record, then fans the
// result out to the scored topic and any matching alert rules.
func (s *Service) ProcessRecord(ctx context.Context, record parser.Record, sourceKey string) error {
	if err := record.Validate(); err != nil {
		return err
	}

	started := time.Now()
	score, err := s.scorer.ScoreAndPersist(ctx, scoring.Request{
		Metric:          record.Metric,
		Value:           record.Value,
		Timestamp:       record.Timestamp,
		SourceObjectKey: sourceKey,
	})
	if err != nil {
		return err
	}

	if s.pipeline != nil {
		s.pipeline.PersistSeconds.Observe(time.Since(started).Seconds())
		s.pipeline.ScoredTotal.WithLabelValues(score.Severity.String()).Inc()
	}

	s.logger.Info().
		Str("metric", score.Metric).
		Str("timestamp", score.Timestamp).
		Float64("pct_change", score.PctChange).
		Int("risk_score", score.RiskScore).
		Str("severity", score.Severity.String()).
		Msg("observation scored")

	if s.publisher != nil {
		if err := s.publisher.PublishScore(ctx, score); err != nil {
			s.logger.Error().Err(err).Str("metric", score.Metric).Msg("failed to publish scored observation")
		}
	}

	s.dispatchAlerts(ctx, score)
	return nil
}

// ConsumeRaw drains raw observation payloads from the queue until ctx is
// cancelled. Malformed payloads are counted and skipped; store failures
// are logged and the message is not retried here (the queue redelivers
// uncommitted offsets).
func (s *Service) ConsumeRaw(ctx context.Context, reader RawReader) error {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			s.logger.Error().Err(err).Msg("queue read failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}

		records, err := parser.Parse(msg.Value)
		if err != nil {
			s.countFailure()
			s.logger.Error().Err(err).Str("key", string(msg.Key)).Msg("malformed queue payload")
			continue
		}

		sourceKey := string(msg.Key)
		if sourceKey == "" {
			sourceKey = fmt.Sprintf("queue/%s/%d", msg.Topic, msg.Offset)
		}

		for _, record := range records {
			if err := s.ProcessRecord(ctx, record, sourceKey); err != nil {
				s.countFailure()
				s.logger.Error().Err(err).Str("metric", record.Metric).Str("timestamp", record.Timestamp).Msg("failed to score queued observation")
			}
		}
	}
}

func (s *Service) dispatchAlerts(ctx context.Context, score storage.ScoredObservation) {
	if !s.alertsOn || s.notifier == nil || s.rules == nil {
		return
	}

	rules, err := s.rules.RulesForMetric(ctx, score.Metric)
	if err != nil {
		s.logger.Error().Err(err).Str("metric", score.Metric).Msg("failed to load alert rules")
		return
	}

	for _, note := range alerting.Evaluate(score, rules, s.channels) {
		if err := s.notifier.Notify(ctx, note); err != nil {
			s.logger.Error().Err(err).Str("metric", note.Metric).Str("user_id", note.UserID).Msg("failed to dispatch alert")
		}
	}
}

func (s *Service) countFailure() {
	if s.pipeline != nil {
		s.pipeline.IngestFailures.Inc()
	}
}
