package fetcher

import (
	"context"

	"supply-risk-alerts/internal/parser"
)

// Observation pairs a normalized record with the provenance key of the
// raw payload it came from.
type Observation struct {
	parser.Record
	SourceObjectKey string
}

// Fetcher pulls one upstream feed and returns normalized observations.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]Observation, error)
}
