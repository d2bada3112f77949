package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/eriqneo/streamlit-realtime-dashboard/internal/model"
)

// Export runs the generator offline for a number of ticks and renders the
// resulting series as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}
	if opts.Ticks <= 0 {
		return errors.New("--ticks must be greater than zero")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	signal := a.newSignal()
	interval := a.Config.Refresh.Interval
	start := time.Now().UTC().Add(-time.Duration(opts.Ticks) * interval)

	samples := make([]model.Sample, 0, opts.Ticks)
	for i := 0; i < opts.Ticks; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		samples = append(samples, signal.Next(start.Add(time.Duration(i)*interval)))
	}

	downsampled := downsampleSamples(samples, opts.MaxPoints)
	a.Logger.Info().Int("total", len(samples)).Int("exported", len(downsampled)).Msg("exporting samples")

	if opts.CSVPath != "" {
		if err := writeSamplesCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeSamplesPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func downsampleSamples(samples []model.Sample, max int) []model.Sample {
	if max <= 0 || len(samples) <= max {
		return samples
	}

	result := make([]model.Sample, 0, max)
	step := float64(len(samples)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(samples) {
			idx = len(samples) - 1
		}
		result = append(result, samples[idx])
	}
	return result
}

func writeSamplesCSV(path string, samples []model.Sample) error {
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

	header := []string{"timestamp", "value", "anomaly"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, sample := range samples {
		record := []string{
			sample.Timestamp.Format(time.RFC3339),
			strconv.FormatFloat(sample.Value, 'f', 2, 64),
			strconv.FormatBool(sample.Anomaly),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeSamplesPNG(path string, samples []model.Sample) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(samples))
	values := make([]float64, len(samples))
	var anomalyX []time.Time
	var anomalyY []float64

	for i, sample := range samples {
		x[i] = sample.Timestamp
		values[i] = sample.Value
		if sample.Anomaly {
			anomalyX = append(anomalyX, sample.Timestamp)
			anomalyY = append(anomalyY, sample.Value)
		}
	}

	valueFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.1f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Events per second",
			ValueFormatter: valueFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Activity",
				XValues: x,
				YValues: values,
			},
		},
	}

	if len(anomalyX) > 0 {
		graph.Series = append(graph.Series, chart.TimeSeries{
			Name:    "Anomalies",
			XValues: anomalyX,
			YValues: anomalyY,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    5,
				DotColor:    drawing.ColorRed,
			},
		})
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
