package render

import (
	"bytes"
	"fmt"
	"image/png"

	chart "github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"

	"github.com/couchcryptid/accident-insights/internal/analysis"
)

// piePlot renders a go-chart pie to PNG and wraps the raster in a gonum plot
// so it can be tiled next to the bar panels. gonum/plot has no pie plotter.
func piePlot(title string, values []chart.Value) (*plot.Plot, error) {
	pie := chart.PieChart{
		Width:  640,
		Height: 640,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render pie %q: %w", title, err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode pie %q: %w", title, err)
	}

	p := plot.New()
	p.Title.Text = title
	p.HideAxes()
	p.Add(plotter.NewImage(img, 0, 0, 1, 1))
	return p, nil
}

func weatherPie(s *analysis.Summary) (*plot.Plot, error) {
	top := s.TopWeather(5)
	total := 0
	for _, wc := range top {
		total += wc.Count
	}

	values := make([]chart.Value, 0, len(top))
	for _, wc := range top {
		if wc.Count == 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: float64(wc.Count),
			Label: fmt.Sprintf("%s %.1f%%", wc.Condition, 100*float64(wc.Count)/float64(total)),
		})
	}
	return piePlot("Top 5 Weather Conditions (%)", values)
}

func severityPie(s *analysis.Summary) (*plot.Plot, error) {
	total := 0
	for _, count := range s.SeverityCounts {
		total += count
	}

	levels := s.SeverityLevels()
	values := make([]chart.Value, 0, len(levels))
	for _, lvl := range levels {
		count := s.SeverityCounts[lvl]
		if count == 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: float64(count),
			Label: fmt.Sprintf("Level %d %.1f%%", lvl, 100*float64(count)/float64(total)),
		})
	}
	return piePlot("Severity Distribution (%)", values)
}
