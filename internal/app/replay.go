package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"supply-risk-alerts/internal/parser"
	"supply-risk-alerts/internal/risk"
	"supply-risk-alerts/internal/scoring"
	"supply-risk-alerts/internal/service"
)

// Replay re-scores raw JSON payload files from a directory, in filename
// order, using each file path as the provenance key. With --dry-run the
// payloads are parsed and reported but nothing is scored or written.
func (a *App) Replay(ctx context.Context, opts ReplayOptions) error {
	entries, err := os.ReadDir(opts.Dir)
	if err != nil {
		return fmt.Errorf("read replay directory: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(opts.Dir, entry.Name()))
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return errors.New("no .json payloads found in replay directory")
	}

	var svc *service.Service
	if opts.DryRun {
		a.Logger.Warn().Msg("replay dry-run: payloads will be parsed but not scored")
	} else {
		store, closeStore, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		scorer := scoring.New(store, a.Config.Scoring.WindowDays, a.Logger)
		svc = service.New(a.Config, nil, nil, scorer, store, a.newNotifier(), nil, nil, a.Logger)
	}

	processed := 0
	failed := 0
	for _, path := range paths {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		payload, err := os.ReadFile(path)
		if err != nil {
			failed++
			a.Logger.Error().Err(err).Str("path", path).Msg("failed to read payload")
			continue
		}

		records, err := parser.Parse(payload)
		if err != nil {
			failed++
			a.Logger.Error().Err(err).Str("path", path).Msg("failed to parse payload")
			continue
		}

		for _, record := range records {
			if opts.DryRun {
				a.Logger.Info().Str("metric", record.Metric).Str("timestamp", record.Timestamp).Float64("value", record.Value).Msg("would score")
				processed++
				continue
			}
			if err := svc.ProcessRecord(ctx, record, path); err != nil {
				failed++
				a.Logger.Error().Err(err).Str("path", path).Str("metric", record.Metric).Msg("replay scoring failed")
				continue
			}
			processed++
		}
	}

	a.Logger.Info().Int("processed", processed).Int("failed", failed).Msg("replay complete")
	if failed > 0 {
		return errors.New("some payloads failed to replay; check logs")
	}
	return nil
}

// Simulate prints the assessment for a hand-provided value and baseline,
// without touching the store.
func (a *App) Simulate(value, movingAvg float64) {
	assessment := risk.Assess(value, movingAvg)
	fmt.Fprintf(os.Stdout, "pct_change: %.2f%%\nrisk_score: %d\nseverity: %s\n",
		assessment.PctChange, assessment.Score, assessment.Severity)
}
