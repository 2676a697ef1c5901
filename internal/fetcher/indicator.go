package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"supply-risk-alerts/internal/parser"
)

// IndicatorOptions parameterise the economic indicator fetcher.
type IndicatorOptions struct {
	BaseURL   string
	APIKey    string
	Series    []string
	Timeout   time.Duration
	UserAgent string
}

// Indicator fetches economic indicator series (FRED-style endpoint).
type Indicator struct {
	opts    IndicatorOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewIndicator constructs an indicator fetcher.
func NewIndicator(opts IndicatorOptions, logger zerolog.Logger) *Indicator {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Indicator{
		opts:    opts,
		logger:  logger.With().Str("component", "indicator_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
	}
}

// Name identifies the feed in logs and provenance keys.
func (f *Indicator) Name() string { return "fred" }

// Fetch pulls every configured series and normalizes the latest reading
// of each. A series that fails to fetch or parse fails the whole cycle;
// the caller decides whether to retry.
func (f *Indicator) Fetch(ctx context.Context) ([]Observation, error) {
	if f.baseURL == "" {
		return nil, fmt.Errorf("indicator base_url not configured")
	}
	if len(f.opts.Series) == 0 {
		return nil, fmt.Errorf("no indicator series configured")
	}

	observations := make([]Observation, 0, len(f.opts.Series))
	for _, series := range f.opts.Series {
		payload, err := f.fetchSeries(ctx, series)
		if err != nil {
			return nil, fmt.Errorf("fetch series %s: %w", series, err)
		}

		record, err := parser.ParseIndicator(payload)
		if err != nil {
			return nil, fmt.Errorf("parse series %s: %w", series, err)
		}

		key := fmt.Sprintf("fred/%s/%s/%s.json", series, time.Now().UTC().Format("2006-01-02"), uuid.NewString())
		observations = append(observations, Observation{Record: record, SourceObjectKey: key})
	}

	f.logger.Debug().Int("series", len(observations)).Msg("indicator feed fetched")
	return observations, nil
}

func (f *Indicator) fetchSeries(ctx context.Context, series string) ([]byte, error) {
	endpoint := f.baseURL + "/series/" + url.PathEscape(series)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(f.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	if f.opts.APIKey != "" {
		q := req.URL.Query()
		q.Set("api_key", f.opts.APIKey)
		req.URL.RawQuery = q.Encode()
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
		return nil, fmt.Errorf("indicator feed status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return payload, nil
}

var _ Fetcher = (*Indicator)(nil)
