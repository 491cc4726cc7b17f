// Command gensample generates a synthetic zipped accidents CSV for local runs
// and test fixtures. It pushes every row through the actual domain enrichment
// so the printed stats match real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/gensample -out data/sample/accidents_sample.zip -rows 5000
package main

import (
	"archive/zip"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/accident-insights/internal/analysis"
	"github.com/couchcryptid/accident-insights/internal/domain"
)

var header = []string{
	domain.ColID, domain.ColSeverity, domain.ColStartTime,
	domain.ColLat, domain.ColLon, domain.ColWeather,
	domain.ColTemperature, domain.ColHumidity, domain.ColVisibility,
	domain.ColWindSpeed, domain.ColPressure,
}

// city is a synthetic accident cluster. Weight controls how many rows land
// near it, so dense cities surface as hotspots.
type city struct {
	name   string
	lat    float64
	lon    float64
	weight int
}

var cities = []city{
	{"Harborview", 40.7128, -74.0060, 5},
	{"Pinefield", 39.9526, -75.1652, 3},
	{"Westgate", 38.9072, -77.0369, 2},
	{"Milton Springs", 42.3601, -71.0589, 1},
}

type weatherProfile struct {
	condition  string
	weight     int
	tempMean   float64
	humidity   float64
	visibility float64
	windMean   float64
}

var weatherProfiles = []weatherProfile{
	{"Clear", 8, 65, 45, 10, 6},
	{"Cloudy", 5, 58, 60, 10, 8},
	{"Rain", 4, 52, 85, 5, 11},
	{"Heavy Rain", 2, 50, 95, 2, 16},
	{"Fog", 2, 48, 97, 0.8, 3},
	{"Snow", 1, 28, 80, 1.5, 14},
}

// rush-hour weighted hours of day, heavier on commute peaks.
var hourWeights = [24]int{
	1, 1, 1, 1, 1, 2, 4, 8, 10, 6, 4, 4,
	4, 4, 5, 6, 8, 10, 7, 4, 3, 2, 2, 1,
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the zipped CSV")
	rows := flag.Int("rows", 5000, "number of data rows to generate")
	seed := flag.Int64("seed", 42, "random seed for reproducible output")
	entry := flag.String("entry", "accidents_sample.csv", "name of the CSV entry inside the archive")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	// Fixed clock so ProcessedAt in the printed stats is reproducible.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewSource(*seed))

	records := make([][]string, 0, *rows)
	for i := 0; i < *rows; i++ {
		records = append(records, generateRow(rng, i))
	}

	if err := writeArchive(*out, *entry, records); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	log.Printf("wrote %d rows to %s", len(records), *out)

	printStats(records)
	return nil
}

func generateRow(rng *rand.Rand, i int) []string {
	c := pickCity(rng)
	wp := pickWeather(rng)
	start := pickStartTime(rng)

	severity := pickSeverity(rng, wp)

	row := []string{
		fmt.Sprintf("A-%06d", i+1),
		strconv.Itoa(severity),
		start.Format("2006-01-02 15:04:05"),
		fmt.Sprintf("%.4f", c.lat+rng.NormFloat64()*0.05),
		fmt.Sprintf("%.4f", c.lon+rng.NormFloat64()*0.05),
		wp.condition,
		fmt.Sprintf("%.1f", wp.tempMean+rng.NormFloat64()*8),
		fmt.Sprintf("%.1f", clamp(wp.humidity+rng.NormFloat64()*10, 5, 100)),
		fmt.Sprintf("%.1f", math.Max(0.1, wp.visibility+rng.NormFloat64()*1.5)),
		fmt.Sprintf("%.1f", math.Max(0, wp.windMean+rng.NormFloat64()*4)),
		fmt.Sprintf("%.2f", 29.9+rng.NormFloat64()*0.3),
	}

	// Sprinkle missing values the way the real dataset has them.
	for col := 6; col < len(row); col++ {
		if rng.Float64() < 0.04 {
			row[col] = ""
		}
	}
	if rng.Float64() < 0.02 {
		row[2] = "" // unparseable start time
	}
	return row
}

func pickCity(rng *rand.Rand) city {
	total := 0
	for _, c := range cities {
		total += c.weight
	}
	n := rng.Intn(total)
	for _, c := range cities {
		n -= c.weight
		if n < 0 {
			return c
		}
	}
	return cities[0]
}

func pickWeather(rng *rand.Rand) weatherProfile {
	total := 0
	for _, wp := range weatherProfiles {
		total += wp.weight
	}
	n := rng.Intn(total)
	for _, wp := range weatherProfiles {
		n -= wp.weight
		if n < 0 {
			return wp
		}
	}
	return weatherProfiles[0]
}

func pickStartTime(rng *rand.Rand) time.Time {
	day := rng.Intn(365)
	hour := pickHour(rng)
	return time.Date(2023, time.January, 1, hour, rng.Intn(60), rng.Intn(60), 0, time.UTC).
		AddDate(0, 0, day)
}

func pickHour(rng *rand.Rand) int {
	total := 0
	for _, w := range hourWeights {
		total += w
	}
	n := rng.Intn(total)
	for h, w := range hourWeights {
		n -= w
		if n < 0 {
			return h
		}
	}
	return 0
}

// pickSeverity skews toward level 2 and raises the odds of 3-4 in bad weather.
func pickSeverity(rng *rand.Rand, wp weatherProfile) int {
	r := rng.Float64()
	if wp.visibility < 3 {
		r += 0.15
	}
	switch {
	case r < 0.10:
		return 1
	case r < 0.70:
		return 2
	case r < 0.93:
		return 3
	default:
		return 4
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func writeArchive(path, entry string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create(entry)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Join(header, ",")); err != nil {
		return err
	}
	for _, rec := range records {
		if _, err := fmt.Fprintln(w, strings.Join(rec, ",")); err != nil {
			return err
		}
	}
	return zw.Close()
}

// printStats runs the generated rows through the real enrichment and
// aggregation so test assertions can be copied from the output.
func printStats(records [][]string) {
	agg := analysis.NewAggregator(header)
	withoutTime := 0
	for i, rec := range records {
		fields := make(map[string]string, len(header))
		for j, col := range header {
			fields[col] = rec[j]
		}
		enriched := domain.EnrichAccident(domain.ParseRow(domain.RawRow{Line: i + 2, Fields: fields}))
		if !enriched.HasTime {
			withoutTime++
		}
		agg.Add(enriched)
	}
	s := agg.Summary()

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d (without time: %d)\n", s.TotalRows, withoutTime)

	peakHour, peakHourCount := s.PeakHour()
	peakDay, peakDayCount := s.PeakDay()
	peakPeriod, peakPeriodCount := s.PeakPeriod()
	fmt.Printf("Peak hour: %d:00 (%d)\n", peakHour, peakHourCount)
	fmt.Printf("Peak day: %s (%d)\n", peakDay, peakDayCount)
	fmt.Printf("Peak period: %s (%d)\n", peakPeriod, peakPeriodCount)
	fmt.Printf("Weekend/weekday: %d/%d\n", s.WeekendCount, s.WeekdayCount)

	fmt.Print("Severity:")
	for _, level := range s.SeverityLevels() {
		fmt.Printf(" %d=%d", level, s.SeverityCounts[level])
	}
	fmt.Println()

	fmt.Print("Top weather:")
	for _, wc := range s.TopWeather(5) {
		fmt.Printf(" %s=%d", wc.Condition, wc.Count)
	}
	fmt.Println()

	fmt.Println("Hotspots:")
	for i, h := range s.Hotspots {
		fmt.Printf("  %d. (%.2f, %.2f) %d accidents\n", i+1, h.Center.Lat, h.Center.Lon, h.Count)
	}
}
