// Command analyze runs one accident-analysis pass: it reads a zipped US
// Accidents CSV, renders the chart set into the output directory, and writes
// the text summary report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/couchcryptid/accident-insights/internal/adapter/archive"
	kafkaadapter "github.com/couchcryptid/accident-insights/internal/adapter/kafka"
	"github.com/couchcryptid/accident-insights/internal/adapter/mapbox"
	"github.com/couchcryptid/accident-insights/internal/config"
	"github.com/couchcryptid/accident-insights/internal/domain"
	"github.com/couchcryptid/accident-insights/internal/observability"
	"github.com/couchcryptid/accident-insights/internal/pipeline"
	"github.com/couchcryptid/accident-insights/internal/render"
	"github.com/couchcryptid/accident-insights/internal/report"
)

const metricsJob = "accident_insights"

func main() {
	archivePath := flag.String("archive", "", "path to the zipped accidents CSV")
	outDir := flag.String("out", "output", "directory for charts and the summary report")
	flag.Parse()

	if err := run(*archivePath, *outDir); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(archivePath, outDir string) error {
	if archivePath == "" {
		return errors.New("-archive is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	reader, err := archive.Open(archivePath, cfg.MaxRows, logger)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	// Export is feature-flagged via KAFKA_EXPORT_TOPIC / KAFKA_EXPORT_ENABLED.
	var exporter pipeline.Exporter
	if cfg.ExportEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		exporter = writer
		logger.Info("kafka export enabled", "topic", cfg.KafkaExportTopic, "batch_size", cfg.ExportBatchSize)
	} else {
		logger.Info("kafka export disabled")
	}

	// Geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	renderer := render.New(outDir, logger, metrics)
	reporter := report.NewGenerator(geocoder, logger)

	p := pipeline.New(reader, exporter, renderer, reporter, outDir, cfg.ExportBatchSize, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := p.Run(ctx)
	if err != nil {
		return err
	}

	if cfg.PushgatewayAddr != "" {
		if err := metrics.Push(cfg.PushgatewayAddr, metricsJob); err != nil {
			logger.Error("metrics push failed", "error", err, "addr", cfg.PushgatewayAddr)
		}
	}

	logger.Info("run finished",
		"rows", result.RowsRead,
		"rows_without_time", result.RowsWithoutTime,
		"exported", result.RecordsExported,
		"report", filepath.Join(outDir, result.ReportFile),
	)
	return nil
}
