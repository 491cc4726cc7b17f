// Package report formats the aggregated statistics into the plain-text
// analysis summary, including the derived recommendations.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/accident-insights/internal/analysis"
	"github.com/couchcryptid/accident-insights/internal/domain"
)

// FileName is the summary report output file.
const FileName = "analysis_summary.txt"

const ruleWidth = 80

// Generator assembles and writes the summary report. A nil geocoder disables
// hotspot place labelling.
type Generator struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewGenerator creates a report generator.
func NewGenerator(geocoder domain.Geocoder, logger *slog.Logger) *Generator {
	return &Generator{geocoder: geocoder, logger: logger}
}

// Write renders the report for a summary and chart file list into outDir,
// returning the report's filename.
func (g *Generator) Write(ctx context.Context, s *analysis.Summary, chartFiles []string, outDir string) (string, error) {
	hotspots := g.labelHotspots(ctx, s.Hotspots)
	text := Render(s, hotspots, chartFiles, domain.Now())

	path := filepath.Join(outDir, FileName)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return FileName, nil
}

// labelHotspots resolves place names for the densest cells when a geocoder is
// configured. Failures degrade to unlabelled coordinates.
func (g *Generator) labelHotspots(ctx context.Context, hotspots []analysis.Hotspot) []analysis.Hotspot {
	if g.geocoder == nil {
		return hotspots
	}

	labelled := make([]analysis.Hotspot, len(hotspots))
	copy(labelled, hotspots)
	for i := range labelled {
		result, err := g.geocoder.ReverseGeocode(ctx, labelled[i].Center.Lat, labelled[i].Center.Lon)
		if err != nil {
			g.logger.Warn("hotspot geocoding failed",
				"lat", labelled[i].Center.Lat,
				"lon", labelled[i].Center.Lon,
				"error", err,
			)
			continue
		}
		labelled[i].PlaceName = result.PlaceName
	}
	return labelled
}

// Render produces the full report text. Split from Write so tests can check
// content without touching the filesystem.
func Render(s *analysis.Summary, hotspots []analysis.Hotspot, chartFiles []string, generatedAt time.Time) string {
	var b strings.Builder
	rule := strings.Repeat("=", ruleWidth)
	sub := strings.Repeat("-", ruleWidth)

	fmt.Fprintf(&b, "%s\nTRAFFIC ACCIDENT ANALYSIS REPORT\n%s\n\n", rule, rule)

	writeOverview(&b, sub, s)
	if s.TimedRows > 0 {
		writeTimePatterns(&b, sub, s)
	}
	if s.HasSeverity && len(s.SeverityCounts) > 0 {
		writeSeverity(&b, sub, s)
	}
	if s.HasWeather && len(s.WeatherCounts) > 0 {
		writeWeather(&b, sub, s)
	}
	if len(hotspots) > 0 {
		writeHotspots(&b, sub, hotspots)
	}
	writeFindings(&b, sub, s)
	writeRecommendations(&b, sub, s)
	writeOutputs(&b, sub, chartFiles)

	fmt.Fprintf(&b, "%s\nGenerated on: %s\n%s\n", rule, generatedAt.Format("2006-01-02 15:04:05"), rule)
	return b.String()
}

func writeOverview(b *strings.Builder, sub string, s *analysis.Summary) {
	fmt.Fprintf(b, "DATASET OVERVIEW\n%s\n", sub)
	fmt.Fprintf(b, "Total Accidents Analyzed: %d\n", s.TotalRows)
	if s.TimedRows > 0 {
		fmt.Fprintf(b, "Date Range: %s to %s\n",
			s.FirstTime.Format("2006-01-02"), s.LastTime.Format("2006-01-02"))
	}
	if s.GeoRows > 0 {
		fmt.Fprintf(b, "Geographic Range: %.2f°N to %.2f°N\n", s.LatMin, s.LatMax)
	}
	b.WriteString("\n")
}

func writeTimePatterns(b *strings.Builder, sub string, s *analysis.Summary) {
	peakHour, peakHourCount := s.PeakHour()
	lowHour, lowHourCount := s.LowestHour()
	peakDay, peakDayCount := s.PeakDay()
	safeDay, safeDayCount := s.SafestDay()
	peakPeriod, peakPeriodCount := s.PeakPeriod()

	fmt.Fprintf(b, "TIME PATTERN ANALYSIS\n%s\n", sub)
	fmt.Fprintf(b, "Peak Hour: %d:00 (%d accidents - %.1f%%)\n",
		peakHour, peakHourCount, pct(peakHourCount, s.TimedRows))
	fmt.Fprintf(b, "Lowest Hour: %d:00 (%d accidents - %.1f%%)\n\n",
		lowHour, lowHourCount, pct(lowHourCount, s.TimedRows))
	fmt.Fprintf(b, "Most Dangerous Day: %s (%d accidents - %.1f%%)\n",
		peakDay, peakDayCount, pct(peakDayCount, s.TimedRows))
	fmt.Fprintf(b, "Safest Day: %s (%d accidents - %.1f%%)\n\n",
		safeDay, safeDayCount, pct(safeDayCount, s.TimedRows))
	fmt.Fprintf(b, "Most Dangerous Period: %s (%d accidents - %.1f%%)\n\n",
		peakPeriod, peakPeriodCount, pct(peakPeriodCount, s.TimedRows))
	fmt.Fprintf(b, "Weekday vs Weekend:\n")
	fmt.Fprintf(b, "  - Weekday Accidents: %d (%.1f%%)\n", s.WeekdayCount, pct(s.WeekdayCount, s.TimedRows))
	fmt.Fprintf(b, "  - Weekend Accidents: %d (%.1f%%)\n\n", s.WeekendCount, pct(s.WeekendCount, s.TimedRows))
}

func writeSeverity(b *strings.Builder, sub string, s *analysis.Summary) {
	fmt.Fprintf(b, "SEVERITY ANALYSIS\n%s\n", sub)
	total := 0
	for _, count := range s.SeverityCounts {
		total += count
	}
	for _, lvl := range s.SeverityLevels() {
		count := s.SeverityCounts[lvl]
		fmt.Fprintf(b, "Severity Level %d: %d accidents (%.1f%%)\n", lvl, count, pct(count, total))
	}
	b.WriteString("\n")
}

func writeWeather(b *strings.Builder, sub string, s *analysis.Summary) {
	top := s.TopWeather(1)
	fmt.Fprintf(b, "WEATHER CONDITIONS\n%s\n", sub)
	fmt.Fprintf(b, "Most Common: %s (%d accidents - %.1f%%)\n",
		top[0].Condition, top[0].Count, pct(top[0].Count, s.TotalRows))
	fmt.Fprintf(b, "Unique Weather Conditions: %d\n\n", len(s.WeatherCounts))
}

func writeHotspots(b *strings.Builder, sub string, hotspots []analysis.Hotspot) {
	fmt.Fprintf(b, "ACCIDENT HOTSPOTS\n%s\n", sub)
	for i, h := range hotspots {
		if h.PlaceName != "" {
			fmt.Fprintf(b, "%d. %s (%.2f, %.2f): %d accidents\n",
				i+1, h.PlaceName, h.Center.Lat, h.Center.Lon, h.Count)
			continue
		}
		fmt.Fprintf(b, "%d. (%.2f, %.2f): %d accidents\n",
			i+1, h.Center.Lat, h.Center.Lon, h.Count)
	}
	b.WriteString("\n")
}

func writeFindings(b *strings.Builder, sub string, s *analysis.Summary) {
	fmt.Fprintf(b, "KEY FINDINGS\n%s\n", sub)
	n := 1
	if s.TimedRows > 0 {
		peakPeriod, _ := s.PeakPeriod()
		fmt.Fprintf(b, "%d. Rush Hour Impact: Accidents peak during commute times (7-9 AM, 4-6 PM)\n", n)
		n++
		fmt.Fprintf(b, "%d. Weekday Concentration: Significantly more accidents occur on weekdays\n", n)
		n++
		fmt.Fprintf(b, "%d. Time Period Trends: %s shows highest accident frequency\n", n, peakPeriod)
		n++
	}
	if s.HasWeather && len(s.WeatherCounts) > 0 {
		fmt.Fprintf(b, "%d. Weather Influence: Clear patterns between weather conditions and accidents\n", n)
		n++
	}
	if s.GeoRows > 0 {
		fmt.Fprintf(b, "%d. Geographic Hotspots: Accidents concentrated in specific urban areas\n", n)
	}
	b.WriteString("\n")
}

func writeRecommendations(b *strings.Builder, sub string, s *analysis.Summary) {
	fmt.Fprintf(b, "RECOMMENDATIONS\n%s\n", sub)
	if s.TimedRows > 0 {
		peakHour, _ := s.PeakHour()
		peakDay, _ := s.PeakDay()
		peakPeriod, _ := s.PeakPeriod()

		fmt.Fprintf(b, "1. Enhanced Traffic Management:\n")
		fmt.Fprintf(b, "   - Deploy additional officers during peak hours (%d:00-%d:00)\n",
			clampHour(peakHour-1), clampHour(peakHour+2))
		fmt.Fprintf(b, "   - Focus enforcement on %ss\n\n", peakDay)
		fmt.Fprintf(b, "2. Weather-Responsive Systems:\n")
		fmt.Fprintf(b, "   - Implement real-time weather alerts\n")
		fmt.Fprintf(b, "   - Adjust speed limits based on conditions\n\n")
		fmt.Fprintf(b, "3. Public Safety Campaigns:\n")
		fmt.Fprintf(b, "   - Target %s commuters with safety messages\n", strings.ToLower(string(peakPeriod)))
		fmt.Fprintf(b, "   - Increase awareness during high-risk weather\n\n")
	}
	fmt.Fprintf(b, "4. Infrastructure Improvements:\n")
	fmt.Fprintf(b, "   - Enhance lighting in identified hotspot areas\n")
	fmt.Fprintf(b, "   - Improve road conditions at accident-prone locations\n\n")
	fmt.Fprintf(b, "5. Data-Driven Policy:\n")
	fmt.Fprintf(b, "   - Use this analysis for resource allocation\n")
	fmt.Fprintf(b, "   - Schedule maintenance during low-accident periods\n\n")
}

func writeOutputs(b *strings.Builder, sub string, chartFiles []string) {
	fmt.Fprintf(b, "OUTPUT FILES GENERATED\n%s\n", sub)
	for _, f := range chartFiles {
		fmt.Fprintf(b, "- %s\n", f)
	}
	fmt.Fprintf(b, "- %s\n\n", FileName)
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(part) / float64(total)
}

// clampHour keeps the recommendation window inside a single day.
func clampHour(h int) int {
	if h < 0 {
		return 0
	}
	if h > 23 {
		return 23
	}
	return h
}
