package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all run settings, populated from environment variables.
// Input and output paths come from CLI flags, not from here.
type Config struct {
	MaxRows   int
	LogLevel  string
	LogFormat string

	// Pushgateway delivery of run metrics. Empty address disables the push.
	PushgatewayAddr string

	// Kafka export of enriched records (feature-flagged via KAFKA_EXPORT_TOPIC).
	KafkaBrokers     []string
	KafkaExportTopic string
	ExportEnabled    bool
	ExportBatchSize  int

	// Mapbox hotspot labelling (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	maxRows, err := parseMaxRows()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	mapboxTimeoutStr := sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s")
	mapboxTimeout, err := time.ParseDuration(mapboxTimeoutStr)
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	exportTopic := sharedcfg.EnvOrDefault("KAFKA_EXPORT_TOPIC", "")
	exportEnabled := exportTopic != ""
	if v := os.Getenv("KAFKA_EXPORT_ENABLED"); v != "" {
		exportEnabled = v == "true"
	}

	cfg := &Config{
		MaxRows:   maxRows,
		LogLevel:  sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),

		PushgatewayAddr: sharedcfg.EnvOrDefault("PUSHGATEWAY_ADDR", ""),

		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaExportTopic: exportTopic,
		ExportEnabled:    exportEnabled,
		ExportBatchSize:  batchSize,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if cfg.ExportEnabled && cfg.KafkaExportTopic == "" {
		return nil, errors.New("KAFKA_EXPORT_ENABLED is true but KAFKA_EXPORT_TOPIC is not set")
	}
	if cfg.ExportEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when export is enabled")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// parseMaxRows reads the row cap. Zero means unbounded.
func parseMaxRows() (int, error) {
	s := sharedcfg.EnvOrDefault("MAX_ROWS", "50000")
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid MAX_ROWS")
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
