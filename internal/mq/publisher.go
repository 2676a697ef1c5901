package mq

import (
	"context"

	"github.com/segmentio/kafka-go"

	"supply-risk-alerts/internal/storage"
)

// ScoredPublisher feeds scored observations to the collaborator topic.
type ScoredPublisher struct {
	writer *kafka.Writer
}

// NewScoredPublisher wraps a kafka writer.
func NewScoredPublisher(writer *kafka.Writer) *ScoredPublisher {
	return &ScoredPublisher{writer: writer}
}

// PublishScore publishes one scored observation keyed by metric, so a
// metric's records stay ordered within a partition.
func (p *ScoredPublisher) PublishScore(ctx context.Context, score storage.ScoredObservation) error {
	return PublishJSON(ctx, p.writer, score.Metric, score)
}

// Close flushes and releases the underlying writer.
func (p *ScoredPublisher) Close() error {
	return p.writer.Close()
}
