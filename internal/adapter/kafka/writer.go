// Package kafka publishes enriched accident records to the downstream ingest
// topic. The export is optional; the pipeline runs without it.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/accident-insights/internal/config"
	"github.com/couchcryptid/accident-insights/internal/domain"
)

// Writer produces accident records to a Kafka topic.
// It implements pipeline.Exporter.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured export topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaExportTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// ExportBatch serializes and publishes multiple accident records in a single
// WriteMessages call for efficiency.
func (w *Writer) ExportBatch(ctx context.Context, records []domain.AccidentRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// exportRecord is the wire form of an accident record. Missing numerics are
// NaN in the domain and must become null on the wire, since JSON has no NaN.
type exportRecord struct {
	ID          string            `json:"id"`
	Severity    *float64          `json:"severity,omitempty"`
	StartTime   *time.Time        `json:"start_time,omitempty"`
	Geo         *domain.Geo       `json:"geo,omitempty"`
	Weather     string            `json:"weather_condition,omitempty"`
	Temperature *float64          `json:"temperature_f,omitempty"`
	Humidity    *float64          `json:"humidity_pct,omitempty"`
	Visibility  *float64          `json:"visibility_mi,omitempty"`
	WindSpeed   *float64          `json:"wind_speed_mph,omitempty"`
	Pressure    *float64          `json:"pressure_in,omitempty"`
	Hour        *int              `json:"hour,omitempty"`
	DayOfWeek   string            `json:"day_of_week,omitempty"`
	Month       *int              `json:"month,omitempty"`
	Year        *int              `json:"year,omitempty"`
	IsWeekend   *bool             `json:"is_weekend,omitempty"`
	TimePeriod  domain.TimePeriod `json:"time_period,omitempty"`
	ProcessedAt time.Time         `json:"processed_at"`
}

func toExportRecord(rec domain.AccidentRecord) exportRecord {
	out := exportRecord{
		ID:          rec.ID,
		Severity:    floatOrNil(rec.Severity),
		Weather:     rec.Weather,
		Temperature: floatOrNil(rec.Temperature),
		Humidity:    floatOrNil(rec.Humidity),
		Visibility:  floatOrNil(rec.Visibility),
		WindSpeed:   floatOrNil(rec.WindSpeed),
		Pressure:    floatOrNil(rec.Pressure),
		ProcessedAt: rec.ProcessedAt,
	}
	if rec.HasTime {
		t := rec.StartTime
		hour, month, year := rec.Hour, int(rec.Month), rec.Year
		weekend := rec.IsWeekend
		out.StartTime = &t
		out.Hour = &hour
		out.DayOfWeek = rec.DayOfWeek.String()
		out.Month = &month
		out.Year = &year
		out.IsWeekend = &weekend
		out.TimePeriod = rec.TimePeriod
	}
	if rec.HasGeo {
		g := rec.Geo
		out.Geo = &g
	}
	return out
}

func floatOrNil(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// serializeToMessage marshals an accident record into a Kafka message.
func serializeToMessage(rec domain.AccidentRecord) (kafkago.Message, error) {
	data, err := json.Marshal(toExportRecord(rec))
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize accident record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "time_period", Value: []byte(rec.TimePeriod)},
			{Key: "processed_at", Value: []byte(rec.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
