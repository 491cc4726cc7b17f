package kafka

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/accident-insights/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	start := time.Date(2024, 4, 26, 8, 30, 0, 0, time.UTC)
	rec := domain.AccidentRecord{
		ID:          "acc-1a2b3c4d",
		Severity:    2,
		StartTime:   start,
		HasTime:     true,
		Geo:         domain.Geo{Lat: 39.86, Lon: -74.04},
		HasGeo:      true,
		Weather:     "Clear",
		Temperature: 61.5,
		Humidity:    math.NaN(),
		Visibility:  10,
		WindSpeed:   math.NaN(),
		Pressure:    29.92,
		Hour:        8,
		DayOfWeek:   time.Friday,
		Month:       time.April,
		Year:        2024,
		TimePeriod:  domain.PeriodMorning,
		ProcessedAt: now,
	}

	msg, err := serializeToMessage(rec)
	require.NoError(t, err)

	assert.Equal(t, []byte("acc-1a2b3c4d"), msg.Key)
	assert.Contains(t, string(msg.Value), `"severity":2`)
	assert.Contains(t, string(msg.Value), `"weather_condition":"Clear"`)
	assert.Contains(t, string(msg.Value), `"day_of_week":"Friday"`)
	assert.NotContains(t, string(msg.Value), `"humidity_pct"`)
	assert.NotContains(t, string(msg.Value), `"wind_speed_mph"`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "time_period", msg.Headers[0].Key)
	assert.Equal(t, []byte("Morning"), msg.Headers[0].Value)
	assert.Equal(t, "processed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessage_MinimalRecord(t *testing.T) {
	rec := domain.AccidentRecord{
		ID:          "acc-deadbeef",
		Severity:    math.NaN(),
		Temperature: math.NaN(),
		Humidity:    math.NaN(),
		Visibility:  math.NaN(),
		WindSpeed:   math.NaN(),
		Pressure:    math.NaN(),
		ProcessedAt: time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC),
	}

	msg, err := serializeToMessage(rec)
	require.NoError(t, err)

	assert.Equal(t, []byte("acc-deadbeef"), msg.Key)
	assert.NotContains(t, string(msg.Value), `"severity"`)
	assert.NotContains(t, string(msg.Value), `"start_time"`)
	assert.NotContains(t, string(msg.Value), `"geo"`)
	assert.Contains(t, string(msg.Value), `"id":"acc-deadbeef"`)
}
