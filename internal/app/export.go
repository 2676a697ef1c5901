package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"

	"supply-risk-alerts/internal/scoring"
	"supply-risk-alerts/internal/storage"
)

// Export renders one metric's history as CSV and/or a PNG chart.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	scores, err := store.QueryRange(ctx, opts.Metric, opts.Start, opts.End, opts.MaxPoints)
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		a.Logger.Info().Str("metric", opts.Metric).Msg("no scores found for export window")
		return nil
	}

	// QueryRange returns newest first; charts read left to right.
	reverse(scores)

	downsampled := downsampleScores(scores, opts.MaxPoints)
	a.Logger.Info().Int("total", len(scores)).Int("exported", len(downsampled)).Msg("exporting scores")

	if opts.CSVPath != "" {
		if err := writeScoresCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeScoresPNG(opts.PNGPath, opts.Metric, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func reverse(scores []storage.ScoredObservation) {
	for i, j := 0, len(scores)-1; i < j; i, j = i+1, j-1 {
		scores[i], scores[j] = scores[j], scores[i]
	}
}

func downsampleScores(scores []storage.ScoredObservation, max int) []storage.ScoredObservation {
	if max <= 0 || len(scores) <= max {
		return scores
	}

	result := make([]storage.ScoredObservation, 0, max)
	step := float64(len(scores)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(scores) {
			idx = len(scores) - 1
		}
		result = append(result, scores[idx])
	}
	return result
}

func writeScoresCSV(path string, scores []storage.ScoredObservation) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"metric", "timestamp", "value", "moving_avg_30d", "pct_change", "risk_score", "severity", "source_object_key"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, score := range scores {
		record := []string{
			score.Metric,
			score.Timestamp,
			strconv.FormatFloat(score.Value, 'f', -1, 64),
			strconv.FormatFloat(score.MovingAvg30d, 'f', -1, 64),
			strconv.FormatFloat(score.PctChange, 'f', -1, 64),
			strconv.Itoa(score.RiskScore),
			score.Severity.String(),
			score.SourceObjectKey,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeScoresPNG(path, metric string, scores []storage.ScoredObservation) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]float64, len(scores))
	values := make([]float64, len(scores))
	averages := make([]float64, len(scores))
	riskScores := make([]float64, len(scores))

	for i, score := range scores {
		x[i] = float64(i)
		values[i] = score.Value
		averages[i] = score.MovingAvg30d
		riskScores[i] = float64(score.RiskScore)
	}

	valueFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Title:  fmt.Sprintf("%s (%d-day window)", metric, scoring.DefaultWindowDays),
		Width:  1280,
		Height: 720,
		YAxis: chart.YAxis{
			Name:           "Value",
			ValueFormatter: valueFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Risk score",
			ValueFormatter: valueFormatter,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Value",
				XValues: x,
				YValues: values,
			},
			chart.ContinuousSeries{
				Name:    "30d average",
				XValues: x,
				YValues: averages,
			},
			chart.ContinuousSeries{
				Name:    "Risk score",
				XValues: x,
				YValues: riskScores,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
