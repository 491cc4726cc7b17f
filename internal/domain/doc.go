// Package domain models US traffic accident records and their derived
// time-based features.
//
// # Data Source
//
// Records come from the countrywide "US Accidents" CSV dataset (Kaggle,
// Moosavi et al.), distributed as a single large CSV inside a zip archive.
// Each row is one accident report aggregated from multiple traffic APIs.
// Only a subset of the ~45 columns is used here; the rest are ignored.
//
// # Column Conventions
//
// Severity:
//
//	Ordinal code 1-4 describing impact on traffic (1 = least, 4 = greatest).
//	Parsed as a float because some exports encode it as "2.0".
//
// Start_Time:
//
//	Local wall-clock timestamp, "2006-01-02 15:04:05" with optional fractional
//	seconds. Some exports use slash-delimited US dates. Unparseable values are
//	coerced: the record is kept but carries HasTime=false and is excluded from
//	all time-based aggregations.
//
// Start_Lat / Start_Lng:
//
//	WGS-84 coordinates of the accident start point. Rows missing either value
//	carry HasGeo=false and are excluded from geographic aggregation.
//
// Environmental columns:
//
//	Temperature(F), Humidity(%), Visibility(mi), Wind_Speed(mph), Pressure(in).
//	Missing or malformed values are represented as NaN, never zero, so that
//	means and correlations are computed over observed values only.
//
// # Derived Features
//
// From Start_Time each record gains Hour, DayOfWeek, Month, Year, IsWeekend
// (Saturday or Sunday), and a coarse TimePeriod bucket:
//
//	Morning   05:00-11:59
//	Afternoon 12:00-16:59
//	Evening   17:00-20:59
//	Night     21:00-04:59
//
// # ID Generation
//
// The dataset ships its own record IDs ("A-1", "A-2", ...). When the ID column
// is absent or empty, a deterministic SHA-256 hash of time|lat|lon|severity is
// substituted so that re-running the pipeline over the same input produces the
// same record identity. See [generateID].
package domain
