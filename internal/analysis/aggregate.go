// Package analysis computes the descriptive aggregates behind the charts and
// the summary report: per-dimension counts, grouped means, hotspot cells, and
// the environmental correlation matrix.
package analysis

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/couchcryptid/accident-insights/internal/domain"
)

// weekdayOrder is the canonical Monday-first display order shared by the
// charts and the peak/safest day selection.
var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// WeatherCount is one weather condition with its accident count.
type WeatherCount struct {
	Condition string
	Count     int
}

// WeatherSeverity is the mean severity observed under one weather condition.
type WeatherSeverity struct {
	Condition string
	Mean      float64
	Count     int
}

// Summary holds every aggregate the renderers and the reporter consume.
// It is produced once per run by Aggregator.Summary.
type Summary struct {
	TotalRows int

	// Time aggregates, over records with a parseable Start_Time.
	TimedRows     int
	FirstTime     time.Time
	LastTime      time.Time
	HourCounts    [24]int
	DayCounts     [7]int // indexed by time.Weekday
	MonthCounts   [13]int
	PeriodCounts  map[domain.TimePeriod]int
	WeekendCount  int
	WeekdayCount  int
	DayHourCounts [7][24]int

	HasSeverity    bool
	SeverityCounts map[int]int

	HasWeather      bool
	WeatherCounts   map[string]int
	WeatherSeverity []WeatherSeverity // mean severity per condition, descending

	// Environmental columns present in the dataset, and their observed values.
	EnvColumns []string
	EnvValues  map[string][]float64

	// Pearson correlation over CorrColumns, pairwise-complete. Nil when fewer
	// than two numeric columns exist.
	CorrColumns []string
	Correlation *mat.SymDense

	HasGeo    bool
	GeoRows   int
	LatMin    float64
	LatMax    float64
	LonMin    float64
	LonMax    float64
	GeoPoints []domain.Geo
	Hotspots  []Hotspot
}

type meanAcc struct {
	sum float64
	n   int
}

// Aggregator accumulates per-record aggregates in a single pass.
type Aggregator struct {
	columns map[string]bool

	s         Summary
	corrRows  [][]float64
	weatherSv map[string]*meanAcc
	cells     map[cellKey]*cell
}

// NewAggregator creates an aggregator for a dataset carrying the given
// columns. Column presence decides which aggregates are computed at all.
func NewAggregator(columns []string) *Aggregator {
	set := make(map[string]bool, len(columns))
	for _, c := range columns {
		set[c] = true
	}

	a := &Aggregator{
		columns:   set,
		weatherSv: make(map[string]*meanAcc),
		cells:     make(map[cellKey]*cell),
	}
	a.s.PeriodCounts = make(map[domain.TimePeriod]int)
	a.s.SeverityCounts = make(map[int]int)
	a.s.WeatherCounts = make(map[string]int)
	a.s.EnvValues = make(map[string][]float64)
	a.s.HasSeverity = set[domain.ColSeverity]
	a.s.HasWeather = set[domain.ColWeather]
	a.s.HasGeo = set[domain.ColLat] && set[domain.ColLon]

	for _, c := range domain.EnvironmentColumns {
		if set[c] {
			a.s.EnvColumns = append(a.s.EnvColumns, c)
		}
	}
	for _, c := range domain.CorrelationColumns {
		if set[c] {
			a.s.CorrColumns = append(a.s.CorrColumns, c)
		}
	}

	return a
}

// Add folds one enriched record into the aggregates.
func (a *Aggregator) Add(rec domain.AccidentRecord) {
	a.s.TotalRows++

	if rec.HasTime {
		a.addTimeFeatures(rec)
	}

	if a.s.HasSeverity && !math.IsNaN(rec.Severity) {
		a.s.SeverityCounts[int(rec.Severity)]++
	}

	if a.s.HasWeather && rec.Weather != "" {
		a.s.WeatherCounts[rec.Weather]++
		if a.s.HasSeverity && !math.IsNaN(rec.Severity) {
			acc, ok := a.weatherSv[rec.Weather]
			if !ok {
				acc = &meanAcc{}
				a.weatherSv[rec.Weather] = acc
			}
			acc.sum += rec.Severity
			acc.n++
		}
	}

	for _, col := range a.s.EnvColumns {
		if v := rec.NumericValue(col); !math.IsNaN(v) {
			a.s.EnvValues[col] = append(a.s.EnvValues[col], v)
		}
	}

	if len(a.s.CorrColumns) >= 2 {
		row := make([]float64, len(a.s.CorrColumns))
		for i, col := range a.s.CorrColumns {
			row[i] = rec.NumericValue(col)
		}
		a.corrRows = append(a.corrRows, row)
	}

	if a.s.HasGeo && rec.HasGeo {
		a.addGeo(rec.Geo)
	}
}

func (a *Aggregator) addTimeFeatures(rec domain.AccidentRecord) {
	a.s.TimedRows++
	if a.s.FirstTime.IsZero() || rec.StartTime.Before(a.s.FirstTime) {
		a.s.FirstTime = rec.StartTime
	}
	if rec.StartTime.After(a.s.LastTime) {
		a.s.LastTime = rec.StartTime
	}

	a.s.HourCounts[rec.Hour]++
	a.s.DayCounts[rec.DayOfWeek]++
	a.s.MonthCounts[rec.Month]++
	a.s.PeriodCounts[rec.TimePeriod]++
	a.s.DayHourCounts[rec.DayOfWeek][rec.Hour]++
	if rec.IsWeekend {
		a.s.WeekendCount++
	} else {
		a.s.WeekdayCount++
	}
}

func (a *Aggregator) addGeo(g domain.Geo) {
	if a.s.GeoRows == 0 {
		a.s.LatMin, a.s.LatMax = g.Lat, g.Lat
		a.s.LonMin, a.s.LonMax = g.Lon, g.Lon
	} else {
		a.s.LatMin = math.Min(a.s.LatMin, g.Lat)
		a.s.LatMax = math.Max(a.s.LatMax, g.Lat)
		a.s.LonMin = math.Min(a.s.LonMin, g.Lon)
		a.s.LonMax = math.Max(a.s.LonMax, g.Lon)
	}
	a.s.GeoRows++
	a.s.GeoPoints = append(a.s.GeoPoints, g)
	a.binHotspot(g)
}

// Summary finalizes and returns the aggregates. Call once, after the last Add.
func (a *Aggregator) Summary() *Summary {
	a.s.WeatherSeverity = sortedWeatherSeverity(a.weatherSv)
	if len(a.s.CorrColumns) >= 2 {
		a.s.Correlation = pairwiseCorrelation(len(a.s.CorrColumns), a.corrRows)
	}
	a.s.Hotspots = a.topHotspots(maxHotspots)
	return &a.s
}

func sortedWeatherSeverity(byWeather map[string]*meanAcc) []WeatherSeverity {
	out := make([]WeatherSeverity, 0, len(byWeather))
	for cond, acc := range byWeather {
		out = append(out, WeatherSeverity{
			Condition: cond,
			Mean:      acc.sum / float64(acc.n),
			Count:     acc.n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mean != out[j].Mean {
			return out[i].Mean > out[j].Mean
		}
		return out[i].Condition < out[j].Condition
	})
	return out
}

// PeakHour returns the hour of day with the most accidents.
func (s *Summary) PeakHour() (int, int) {
	best, bestCount := 0, s.HourCounts[0]
	for h := 1; h < 24; h++ {
		if s.HourCounts[h] > bestCount {
			best, bestCount = h, s.HourCounts[h]
		}
	}
	return best, bestCount
}

// LowestHour returns the hour of day with the fewest accidents.
func (s *Summary) LowestHour() (int, int) {
	best, bestCount := 0, s.HourCounts[0]
	for h := 1; h < 24; h++ {
		if s.HourCounts[h] < bestCount {
			best, bestCount = h, s.HourCounts[h]
		}
	}
	return best, bestCount
}

// PeakDay returns the weekday with the most accidents, Monday winning ties.
func (s *Summary) PeakDay() (time.Weekday, int) {
	best, bestCount := time.Monday, -1
	for _, d := range weekdayOrder {
		if s.DayCounts[d] > bestCount {
			best, bestCount = d, s.DayCounts[d]
		}
	}
	return best, bestCount
}

// SafestDay returns the weekday with the fewest accidents, Monday winning ties.
func (s *Summary) SafestDay() (time.Weekday, int) {
	best, bestCount := time.Monday, math.MaxInt
	for _, d := range weekdayOrder {
		if s.DayCounts[d] < bestCount {
			best, bestCount = d, s.DayCounts[d]
		}
	}
	return best, bestCount
}

// PeakPeriod returns the time period with the most accidents.
func (s *Summary) PeakPeriod() (domain.TimePeriod, int) {
	best, bestCount := domain.PeriodMorning, -1
	for _, p := range domain.TimePeriodOrder {
		if s.PeriodCounts[p] > bestCount {
			best, bestCount = p, s.PeriodCounts[p]
		}
	}
	return best, bestCount
}

// TopWeather returns the n most frequent weather conditions, descending,
// alphabetical on ties.
func (s *Summary) TopWeather(n int) []WeatherCount {
	out := make([]WeatherCount, 0, len(s.WeatherCounts))
	for cond, count := range s.WeatherCounts {
		out = append(out, WeatherCount{Condition: cond, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Condition < out[j].Condition
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// SeverityLevels returns the observed severity levels in ascending order.
func (s *Summary) SeverityLevels() []int {
	levels := make([]int, 0, len(s.SeverityCounts))
	for lvl := range s.SeverityCounts {
		levels = append(levels, lvl)
	}
	sort.Ints(levels)
	return levels
}
