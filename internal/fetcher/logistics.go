package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"supply-risk-alerts/internal/parser"
)

// LogisticsOptions parameterise the port congestion / freight fetcher.
type LogisticsOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Logistics fetches the port congestion and freight cost feed.
type Logistics struct {
	opts    LogisticsOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewLogistics constructs a logistics fetcher.
func NewLogistics(opts LogisticsOptions, logger zerolog.Logger) *Logistics {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Logistics{
		opts:    opts,
		logger:  logger.With().Str("component", "logistics_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
	}
}

// Name identifies the feed in logs and provenance keys.
func (f *Logistics) Name() string { return "logistics" }

// Fetch pulls the feed once; one payload may yield several records
// (one per port, plus freight indices).
func (f *Logistics) Fetch(ctx context.Context) ([]Observation, error) {
	if f.baseURL == "" {
		return nil, fmt.Errorf("logistics base_url not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(f.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("logistics feed status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	records, err := parser.ParseLogistics(payload)
	if err != nil {
		return nil, fmt.Errorf("parse logistics feed: %w", err)
	}

	key := fmt.Sprintf("logistics/%s/%s.json", time.Now().UTC().Format("2006-01-02"), uuid.NewString())
	observations := make([]Observation, 0, len(records))
	for _, record := range records {
		observations = append(observations, Observation{Record: record, SourceObjectKey: key})
	}

	f.logger.Debug().Int("records", len(observations)).Msg("logistics feed fetched")
	return observations, nil
}

var _ Fetcher = (*Logistics)(nil)
