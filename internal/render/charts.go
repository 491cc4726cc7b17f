package render

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/couchcryptid/accident-insights/internal/analysis"
	"github.com/couchcryptid/accident-insights/internal/domain"
)

var (
	steelBlue  = color.NRGBA{R: 0x46, G: 0x82, B: 0xB4, A: 0xFF}
	coral      = color.NRGBA{R: 0xFF, G: 0x7F, B: 0x50, A: 0xFF}
	lightGreen = color.NRGBA{R: 0x90, G: 0xEE, B: 0x90, A: 0xFF}
	skyBlue    = color.NRGBA{R: 0x87, G: 0xCE, B: 0xEB, A: 0xFF}
	orange     = color.NRGBA{R: 0xFF, G: 0xA5, B: 0x00, A: 0xFF}
	teal       = color.NRGBA{R: 0x00, G: 0x80, B: 0x80, A: 0xFF}

	// severityColors maps severity levels 1-4 to green/gold/orange/crimson.
	severityColors = []color.NRGBA{
		{R: 0x90, G: 0xEE, B: 0x90, A: 0xFF},
		{R: 0xFF, G: 0xD7, B: 0x00, A: 0xFF},
		{R: 0xFF, G: 0x8C, B: 0x00, A: 0xFF},
		{R: 0xDC, G: 0x14, B: 0x3C, A: 0xFF},
	}

	dayLabels   = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	monthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
)

// severityColor returns the level's color. Levels outside 1-4 get steel blue.
func severityColor(level int) color.NRGBA {
	if level >= 1 && level <= len(severityColors) {
		return severityColors[level-1]
	}
	return steelBlue
}

func (r *Renderer) renderTimePatterns(s *analysis.Summary, path string) error {
	hourLabels := make([]string, 24)
	hourValues := make([]float64, 24)
	for h := 0; h < 24; h++ {
		hourLabels[h] = strconv.Itoa(h)
		hourValues[h] = float64(s.HourCounts[h])
	}
	hourBars, err := barPlot("Accidents by Hour of Day", "Hour", hourLabels, hourValues, steelBlue)
	if err != nil {
		return err
	}

	dayValues := make([]float64, 7)
	for i, d := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday} {
		dayValues[i] = float64(s.DayCounts[d])
	}
	dayBars, err := barPlot("Accidents by Day of Week", "Day", dayLabels, dayValues, coral)
	if err != nil {
		return err
	}

	periodLabels := make([]string, len(domain.TimePeriodOrder))
	periodValues := make([]float64, len(domain.TimePeriodOrder))
	for i, p := range domain.TimePeriodOrder {
		periodLabels[i] = string(p)
		periodValues[i] = float64(s.PeriodCounts[p])
	}
	periodBars, err := barPlot("Accidents by Time Period", "Time Period", periodLabels, periodValues, orange)
	if err != nil {
		return err
	}

	monthValues := make([]float64, 12)
	for m := 1; m <= 12; m++ {
		monthValues[m-1] = float64(s.MonthCounts[m])
	}
	monthBars, err := barPlot("Accidents by Month", "Month", monthLabels, monthValues, lightGreen)
	if err != nil {
		return err
	}

	weekendBars, err := barPlot("Weekday vs Weekend Accidents", "",
		[]string{"Weekday", "Weekend"},
		[]float64{float64(s.WeekdayCount), float64(s.WeekendCount)},
		steelBlue)
	if err != nil {
		return err
	}

	heat := dayHourHeatmap(s)

	return savePanels([][]*plot.Plot{
		{hourBars, dayBars, periodBars},
		{monthBars, weekendBars, heat},
	}, 16*vg.Inch, 10*vg.Inch, path)
}

func (r *Renderer) renderWeather(s *analysis.Summary, path string) error {
	top := s.TopWeather(10)
	topBars, err := barhPlot("Top 10 Weather Conditions", "Number of Accidents", weatherLabels(top), weatherValues(top), skyBlue)
	if err != nil {
		return err
	}

	bySeverity := s.WeatherSeverity
	if len(bySeverity) > 10 {
		bySeverity = bySeverity[:10]
	}
	sevLabels := make([]string, len(bySeverity))
	sevValues := make([]float64, len(bySeverity))
	for i, ws := range bySeverity {
		// Reverse so the highest mean sits at the top of the chart.
		j := len(bySeverity) - 1 - i
		sevLabels[j] = ws.Condition
		sevValues[j] = ws.Mean
	}
	sevBars, err := barhPlot("Average Severity by Weather", "Average Severity", sevLabels, sevValues, orange)
	if err != nil {
		return err
	}

	pie, err := weatherPie(s)
	if err != nil {
		return err
	}

	return savePanels([][]*plot.Plot{
		{topBars, sevBars},
		{pie, nil},
	}, 14*vg.Inch, 10*vg.Inch, path)
}

func (r *Renderer) renderSeverity(s *analysis.Summary, path string) error {
	levels := s.SeverityLevels()
	labels := make([]string, len(levels))
	values := make([]float64, len(levels))
	for i, lvl := range levels {
		labels[i] = strconv.Itoa(lvl)
		values[i] = float64(s.SeverityCounts[lvl])
	}

	p := plot.New()
	p.Title.Text = "Accident Severity Distribution"
	p.X.Label.Text = "Severity Level"
	p.Y.Label.Text = "Number of Accidents"

	// One single-value bar chart per level so each keeps its own color.
	for i := range values {
		padded := make(plotter.Values, len(values))
		padded[i] = values[i]
		bars, err := plotter.NewBarChart(padded, vg.Points(24))
		if err != nil {
			return fmt.Errorf("severity bars: %w", err)
		}
		bars.LineStyle.Width = 0
		bars.Color = severityColor(levels[i])
		p.Add(bars)
	}
	p.NominalX(labels...)

	pie, err := severityPie(s)
	if err != nil {
		return err
	}

	return savePanels([][]*plot.Plot{{p, pie}}, 14*vg.Inch, 6*vg.Inch, path)
}

func (r *Renderer) renderGeographic(s *analysis.Summary, path string) error {
	xys := make(plotter.XYs, len(s.GeoPoints))
	for i, g := range s.GeoPoints {
		xys[i].X = g.Lon
		xys[i].Y = g.Lat
	}

	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("geographic scatter: %w", err)
	}
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(1.5)
	scatter.GlyphStyle.Color = color.NRGBA{R: 0xDC, G: 0x14, B: 0x3C, A: 0x80}

	p := plot.New()
	p.Title.Text = "Geographic Distribution of Accidents"
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	p.Add(plotter.NewGrid(), scatter)

	return p.Save(14*vg.Inch, 8*vg.Inch, path)
}

func (r *Renderer) renderEnvironment(s *analysis.Summary, path string) error {
	plots := [][]*plot.Plot{{nil, nil}, {nil, nil}}
	i := 0
	for _, col := range s.EnvColumns {
		values := s.EnvValues[col]
		if len(values) == 0 || i >= 4 {
			continue
		}
		h, err := histPlot("Distribution of "+col, col, values)
		if err != nil {
			return err
		}
		plots[i/2][i%2] = h
		i++
	}

	return savePanels(plots, 14*vg.Inch, 10*vg.Inch, path)
}

func (r *Renderer) renderCorrelation(s *analysis.Summary, path string) error {
	grid := &corrGrid{columns: s.CorrColumns, matrix: s.Correlation}

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)
	heat := plotter.NewHeatMap(grid, cmap.Palette(64))
	heat.Min = -1
	heat.Max = 1

	p := plot.New()
	p.Title.Text = "Correlation Matrix - Environmental Factors"
	p.X.Tick.Marker = fixedTicks{names: s.CorrColumns}
	p.Y.Tick.Marker = fixedTicks{names: s.CorrColumns}
	p.Add(heat)

	labels, err := corrLabels(s)
	if err != nil {
		return err
	}
	p.Add(labels)

	return p.Save(10*vg.Inch, 8*vg.Inch, path)
}

// corrLabels annotates each correlation cell with its value.
func corrLabels(s *analysis.Summary) (*plotter.Labels, error) {
	n := len(s.CorrColumns)
	var xys plotter.XYs
	var texts []string
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := s.Correlation.At(i, j)
			if math.IsNaN(v) {
				continue
			}
			xys = append(xys, plotter.XY{X: float64(j), Y: float64(i)})
			texts = append(texts, fmt.Sprintf("%.2f", v))
		}
	}

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
	if err != nil {
		return nil, fmt.Errorf("correlation labels: %w", err)
	}
	return labels, nil
}

// barPlot builds a vertical bar chart with nominal x labels.
func barPlot(title, xLabel string, labels []string, values []float64, c color.Color) (*plot.Plot, error) {
	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(14))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", title, err)
	}
	bars.LineStyle.Width = 0
	bars.Color = c

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "Number of Accidents"
	p.Add(bars)
	p.NominalX(labels...)
	return p, nil
}

// barhPlot builds a horizontal bar chart with nominal y labels.
func barhPlot(title, xLabel string, labels []string, values []float64, c color.Color) (*plot.Plot, error) {
	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(14))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", title, err)
	}
	bars.LineStyle.Width = 0
	bars.Color = c
	bars.Horizontal = true

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Add(bars)
	p.NominalY(labels...)
	return p, nil
}

func histPlot(title, xLabel string, values []float64) (*plot.Plot, error) {
	hist, err := plotter.NewHist(plotter.Values(values), 30)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", title, err)
	}
	hist.FillColor = teal

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "Frequency"
	p.Add(hist)
	return p, nil
}

func dayHourHeatmap(s *analysis.Summary) *plot.Plot {
	grid := &dayHourGrid{counts: s.DayHourCounts}
	heat := plotter.NewHeatMap(grid, palette.Heat(12, 1))

	p := plot.New()
	p.Title.Text = "Accident Frequency Heatmap"
	p.X.Label.Text = "Hour of Day"
	p.Y.Label.Text = "Day of Week"
	hourNames := make([]string, 24)
	for h := range hourNames {
		hourNames[h] = strconv.Itoa(h)
	}
	p.X.Tick.Marker = fixedTicks{names: hourNames}
	// Row 0 renders at the bottom, so the label order is reversed to put
	// Monday on top.
	p.Y.Tick.Marker = fixedTicks{names: []string{"Sun", "Sat", "Fri", "Thu", "Wed", "Tue", "Mon"}}
	p.Add(heat)
	return p
}

func weatherLabels(top []analysis.WeatherCount) []string {
	// Reversed so the most frequent condition sits at the top of the chart.
	out := make([]string, len(top))
	for i, wc := range top {
		out[len(top)-1-i] = wc.Condition
	}
	return out
}

func weatherValues(top []analysis.WeatherCount) []float64 {
	out := make([]float64, len(top))
	for i, wc := range top {
		out[len(top)-1-i] = float64(wc.Count)
	}
	return out
}

// fixedTicks places one labelled tick per index position.
type fixedTicks struct {
	names []string
}

func (ft fixedTicks) Ticks(min, max float64) []plot.Tick {
	var ticks []plot.Tick
	for i, name := range ft.names {
		v := float64(i)
		if v < min || v > max {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: v, Label: name})
	}
	return ticks
}

// dayHourGrid adapts the day×hour counts to plotter.GridXYZ. Row 0 is Sunday
// so that Monday lands on the top row of the rendered heatmap.
type dayHourGrid struct {
	counts [7][24]int
}

// rowWeekdays maps grid rows (bottom to top) to weekdays.
var rowWeekdays = []time.Weekday{
	time.Sunday, time.Saturday, time.Friday, time.Thursday,
	time.Wednesday, time.Tuesday, time.Monday,
}

func (g *dayHourGrid) Dims() (c, r int)   { return 24, 7 }
func (g *dayHourGrid) X(c int) float64    { return float64(c) }
func (g *dayHourGrid) Y(r int) float64    { return float64(r) }
func (g *dayHourGrid) Z(c, r int) float64 { return float64(g.counts[rowWeekdays[r]][c]) }

// corrGrid adapts a correlation matrix to plotter.GridXYZ.
type corrGrid struct {
	columns []string
	matrix  interface{ At(i, j int) float64 }
}

func (g *corrGrid) Dims() (c, r int) { return len(g.columns), len(g.columns) }
func (g *corrGrid) X(c int) float64  { return float64(c) }
func (g *corrGrid) Y(r int) float64  { return float64(r) }

func (g *corrGrid) Z(c, r int) float64 {
	v := g.matrix.At(r, c)
	if math.IsNaN(v) {
		return 0
	}
	return v
}
