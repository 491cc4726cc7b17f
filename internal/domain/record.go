package domain

import "time"

// CSV column names used by the pipeline. Any other columns in the source
// dataset are ignored.
const (
	ColID          = "ID"
	ColSeverity    = "Severity"
	ColStartTime   = "Start_Time"
	ColLat         = "Start_Lat"
	ColLon         = "Start_Lng"
	ColWeather     = "Weather_Condition"
	ColTemperature = "Temperature(F)"
	ColHumidity    = "Humidity(%)"
	ColVisibility  = "Visibility(mi)"
	ColWindSpeed   = "Wind_Speed(mph)"
	ColPressure    = "Pressure(in)"
)

// EnvironmentColumns lists the numeric environmental columns, in the order
// they are plotted and reported.
var EnvironmentColumns = []string{ColTemperature, ColHumidity, ColVisibility, ColWindSpeed, ColPressure}

// CorrelationColumns lists the numeric columns entering the correlation
// matrix: severity plus the environmental factors.
var CorrelationColumns = []string{ColSeverity, ColTemperature, ColHumidity, ColVisibility, ColWindSpeed, ColPressure}

// RawRow is one unparsed CSV row, keyed by header name. Columns absent from
// the source file are absent from the map.
type RawRow struct {
	Line   int
	Fields map[string]string
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat,omitempty"`
	Lon float64 `json:"lon,omitempty"`
}

// TimePeriod is the coarse time-of-day bucket derived from the hour.
type TimePeriod string

const (
	PeriodMorning   TimePeriod = "Morning"
	PeriodAfternoon TimePeriod = "Afternoon"
	PeriodEvening   TimePeriod = "Evening"
	PeriodNight     TimePeriod = "Night"
)

// TimePeriodOrder is the canonical display order for period aggregates.
var TimePeriodOrder = []TimePeriod{PeriodMorning, PeriodAfternoon, PeriodEvening, PeriodNight}

// AccidentRecord is the domain-rich representation of one accident report
// after parsing and enrichment. Numeric fields use NaN for missing values.
type AccidentRecord struct {
	ID       string  `json:"id"`
	Severity float64 `json:"severity"`

	StartTime time.Time `json:"start_time,omitzero"`
	HasTime   bool      `json:"-"`

	Geo    Geo  `json:"geo,omitzero"`
	HasGeo bool `json:"-"`

	Weather string `json:"weather_condition,omitempty"`

	Temperature float64 `json:"temperature_f"`
	Humidity    float64 `json:"humidity_pct"`
	Visibility  float64 `json:"visibility_mi"`
	WindSpeed   float64 `json:"wind_speed_mph"`
	Pressure    float64 `json:"pressure_in"`

	// Derived calendar features, meaningful only when HasTime is true.
	Hour       int          `json:"hour"`
	DayOfWeek  time.Weekday `json:"day_of_week"`
	Month      time.Month   `json:"month"`
	Year       int          `json:"year"`
	IsWeekend  bool         `json:"is_weekend"`
	TimePeriod TimePeriod   `json:"time_period,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
}

// NumericValue returns the record's value for a correlation column.
// Unknown columns return NaN.
func (r AccidentRecord) NumericValue(col string) float64 {
	switch col {
	case ColSeverity:
		return r.Severity
	case ColTemperature:
		return r.Temperature
	case ColHumidity:
		return r.Humidity
	case ColVisibility:
		return r.Visibility
	case ColWindSpeed:
		return r.WindSpeed
	case ColPressure:
		return r.Pressure
	default:
		return nan
	}
}
