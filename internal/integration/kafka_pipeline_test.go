//go:build integration

package integration_test

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kafkacontainer "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/accident-insights/internal/adapter/archive"
	"github.com/couchcryptid/accident-insights/internal/adapter/kafka"
	"github.com/couchcryptid/accident-insights/internal/config"
	"github.com/couchcryptid/accident-insights/internal/observability"
	"github.com/couchcryptid/accident-insights/internal/pipeline"
	"github.com/couchcryptid/accident-insights/internal/render"
	"github.com/couchcryptid/accident-insights/internal/report"
)

const testExportTopic = "test-accident-export"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := kafkacontainer.Run(ctx, "confluentinc/confluent-local:7.5.0",
		kafkacontainer.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// writeFixture builds a zip archive holding a small accidents CSV.
func writeFixture(t *testing.T) string {
	t.Helper()

	rows := []string{
		"ID,Severity,Start_Time,Start_Lat,Start_Lng,Weather_Condition,Temperature(F),Humidity(%),Visibility(mi),Wind_Speed(mph),Pressure(in)",
		"A-1,2,2024-04-22 08:15:00,39.862,-74.041,Clear,61.5,52.0,10.0,8.1,29.92",
		"A-2,3,2024-04-23 17:40:00,39.863,-74.042,Rain,55.0,88.0,4.0,12.5,29.71",
		"A-3,2,2024-04-27 23:05:00,40.712,-74.006,Fog,50.2,97.0,0.5,3.0,29.88",
		"A-4,4,bad-timestamp,39.861,-74.043,Snow,28.9,80.0,1.0,15.0,30.05",
	}

	path := filepath.Join(t.TempDir(), "accidents.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("accidents.csv")
	require.NoError(t, err)
	for _, row := range rows {
		_, err = fmt.Fprintln(w, row)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

type exportedRecord struct {
	ID         string   `json:"id"`
	Severity   *float64 `json:"severity"`
	Weather    string   `json:"weather_condition"`
	TimePeriod string   `json:"time_period"`
}

// TestPipelineExportEndToEnd runs the full analysis pipeline against real
// Kafka and verifies every archive row is enriched and published.
func TestPipelineExportEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testExportTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaExportTopic: testExportTopic,
		ExportBatchSize:  2,
	}

	outDir := t.TempDir()
	archivePath := writeFixture(t)

	reader, err := archive.Open(archivePath, 0, discardLogger())
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	renderer := render.New(outDir, discardLogger(), metrics)
	reporter := report.NewGenerator(nil, discardLogger())

	p := pipeline.New(reader, writer, renderer, reporter, outDir, cfg.ExportBatchSize, discardLogger(), metrics)

	result, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, result.RowsRead)
	assert.Equal(t, 1, result.RowsWithoutTime)
	assert.Equal(t, 4, result.RecordsExported)
	assert.FileExists(t, filepath.Join(outDir, result.ReportFile))

	// Consume the export topic and verify the enriched payloads.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testExportTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := map[string]exportedRecord{}
	headers := map[string]map[string]string{}
	for len(received) < 4 {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from export topic")

		var rec exportedRecord
		require.NoError(t, json.Unmarshal(msg.Value, &rec))
		received[rec.ID] = rec

		h := map[string]string{}
		for _, hdr := range msg.Headers {
			h[hdr.Key] = string(hdr.Value)
		}
		headers[rec.ID] = h
		assert.Equal(t, rec.ID, string(msg.Key))
	}

	morning := received["A-1"]
	require.NotNil(t, morning.Severity)
	assert.Equal(t, 2.0, *morning.Severity)
	assert.Equal(t, "Clear", morning.Weather)
	assert.Equal(t, "Morning", morning.TimePeriod)
	assert.Equal(t, "Morning", headers["A-1"]["time_period"])

	evening := received["A-2"]
	assert.Equal(t, "Evening", evening.TimePeriod)

	night := received["A-3"]
	assert.Equal(t, "Night", night.TimePeriod)

	// The record with an unparseable timestamp exports without a period.
	noTime := received["A-4"]
	assert.Empty(t, noTime.TimePeriod)
	require.NotNil(t, noTime.Severity)
	assert.Equal(t, 4.0, *noTime.Severity)

	for id, h := range headers {
		_, err := time.Parse(time.RFC3339, h["processed_at"])
		assert.NoError(t, err, "invalid processed_at for %s", id)
	}
}
