// Package render draws the six analysis charts as PNG files. Multi-panel
// figures are composed with gonum/plot tiling; pie panels are rasterized via
// go-chart and embedded as image plots.
package render

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/couchcryptid/accident-insights/internal/analysis"
	"github.com/couchcryptid/accident-insights/internal/observability"
)

// Output filenames, one per figure.
const (
	FileTimePatterns = "time_pattern_analysis.png"
	FileWeather      = "weather_analysis.png"
	FileSeverity     = "severity_analysis.png"
	FileGeographic   = "geographic_hotspots.png"
	FileEnvironment  = "environmental_factors.png"
	FileCorrelation  = "correlation_matrix.png"
)

// Renderer writes chart PNGs into a target directory.
// It implements pipeline.ChartRenderer.
type Renderer struct {
	outDir  string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Renderer writing into outDir.
func New(outDir string, logger *slog.Logger, metrics *observability.Metrics) *Renderer {
	return &Renderer{outDir: outDir, logger: logger, metrics: metrics}
}

// RenderAll draws every figure whose source columns are present and returns
// the filenames written. A figure whose data is absent is skipped with a log
// line, not an error.
func (r *Renderer) RenderAll(s *analysis.Summary) ([]string, error) {
	figures := []struct {
		name string
		skip string
		draw func(*analysis.Summary, string) error
	}{
		{FileTimePatterns, skipWhen(s.TimedRows == 0, "no parseable timestamps"), r.renderTimePatterns},
		{FileWeather, skipWhen(!s.HasWeather || len(s.WeatherCounts) == 0, "no weather data"), r.renderWeather},
		{FileSeverity, skipWhen(!s.HasSeverity || len(s.SeverityCounts) == 0, "no severity data"), r.renderSeverity},
		{FileGeographic, skipWhen(s.GeoRows == 0, "no coordinates"), r.renderGeographic},
		{FileEnvironment, skipWhen(countNonEmpty(s.EnvValues) < 2, "fewer than two environmental columns"), r.renderEnvironment},
		{FileCorrelation, skipWhen(s.Correlation == nil, "fewer than two numeric columns"), r.renderCorrelation},
	}

	var files []string
	for _, fig := range figures {
		if fig.skip != "" {
			r.logger.Warn("skipping chart", "file", fig.name, "reason", fig.skip)
			r.metrics.ChartsSkipped.Inc()
			continue
		}
		path := filepath.Join(r.outDir, fig.name)
		if err := fig.draw(s, path); err != nil {
			return files, fmt.Errorf("render %s: %w", fig.name, err)
		}
		r.logger.Info("chart written", "file", fig.name)
		r.metrics.ChartsRendered.Inc()
		files = append(files, fig.name)
	}
	return files, nil
}

func skipWhen(cond bool, reason string) string {
	if cond {
		return reason
	}
	return ""
}

func countNonEmpty(values map[string][]float64) int {
	n := 0
	for _, v := range values {
		if len(v) > 0 {
			n++
		}
	}
	return n
}

// savePanels tiles a grid of plots onto one PNG canvas. Nil entries leave
// their tile blank.
func savePanels(plots [][]*plot.Plot, width, height vg.Length, path string) error {
	img := vgimg.New(width, height)
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows: len(plots),
		Cols: len(plots[0]),
		PadX: vg.Millimeter * 4,
		PadY: vg.Millimeter * 4,
	}

	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j := range plots[i] {
			if plots[i][j] != nil {
				plots[i][j].Draw(canvases[i][j])
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close() //nolint:errcheck // the write error is the one to report
		return fmt.Errorf("write chart: %w", err)
	}
	return f.Close()
}
