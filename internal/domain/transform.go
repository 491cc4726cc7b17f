package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var nan = math.NaN()

// timeLayouts are the Start_Time formats observed across dataset exports,
// tried in order.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
}

// ParseRow converts one raw CSV row into an AccidentRecord. Parsing never
// fails hard: malformed numerics become NaN and malformed timestamps leave
// HasTime false, mirroring how the aggregation layer treats missing data.
func ParseRow(row RawRow) AccidentRecord {
	rec := AccidentRecord{
		ID:          strings.TrimSpace(row.Fields[ColID]),
		Severity:    parseFloatOrNaN(row.Fields[ColSeverity]),
		Weather:     strings.TrimSpace(row.Fields[ColWeather]),
		Temperature: parseFloatOrNaN(row.Fields[ColTemperature]),
		Humidity:    parseFloatOrNaN(row.Fields[ColHumidity]),
		Visibility:  parseFloatOrNaN(row.Fields[ColVisibility]),
		WindSpeed:   parseFloatOrNaN(row.Fields[ColWindSpeed]),
		Pressure:    parseFloatOrNaN(row.Fields[ColPressure]),
	}

	if t, ok := parseTimestamp(row.Fields[ColStartTime]); ok {
		rec.StartTime = t
		rec.HasTime = true
	}

	lat := parseFloatOrNaN(row.Fields[ColLat])
	lon := parseFloatOrNaN(row.Fields[ColLon])
	if !math.IsNaN(lat) && !math.IsNaN(lon) {
		rec.Geo = Geo{Lat: lat, Lon: lon}
		rec.HasGeo = true
	}

	return rec
}

// parseFloatOrNaN parses a string as float64, returning NaN for empty or
// malformed values. NaN, not zero: a zero would silently skew means and
// correlations.
func parseFloatOrNaN(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nan
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nan
	}
	return v
}

// parseTimestamp tries each known Start_Time layout in order.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// EnrichAccident derives the calendar and time-period features from the
// record's start time, assigns a fallback ID when the source row had none,
// and stamps the processing time.
func EnrichAccident(rec AccidentRecord) AccidentRecord {
	if rec.HasTime {
		rec.Hour = rec.StartTime.Hour()
		rec.DayOfWeek = rec.StartTime.Weekday()
		rec.Month = rec.StartTime.Month()
		rec.Year = rec.StartTime.Year()
		rec.IsWeekend = rec.DayOfWeek == time.Saturday || rec.DayOfWeek == time.Sunday
		rec.TimePeriod = TimePeriodOf(rec.Hour)
	}
	if rec.ID == "" {
		rec.ID = generateID(rec.StartTime, rec.Geo.Lat, rec.Geo.Lon, rec.Severity)
	}
	rec.ProcessedAt = clock.Now()
	return rec
}

// TimePeriodOf buckets an hour of day into the four coarse periods.
func TimePeriodOf(hour int) TimePeriod {
	switch {
	case hour >= 5 && hour < 12:
		return PeriodMorning
	case hour >= 12 && hour < 17:
		return PeriodAfternoon
	case hour >= 17 && hour < 21:
		return PeriodEvening
	default:
		return PeriodNight
	}
}

// generateID produces a deterministic ID from the record's key fields.
// Reprocessing the same row yields the same ID, so downstream consumers can
// upsert idempotently (ON CONFLICT DO NOTHING) without coordination.
func generateID(t time.Time, lat, lon, severity float64) string {
	input := fmt.Sprintf("%s|%.4f|%.4f|%g", t.UTC().Format(time.RFC3339), lat, lon, severity)
	hash := sha256.Sum256([]byte(input))
	return "acc-" + hex.EncodeToString(hash[:8])
}
