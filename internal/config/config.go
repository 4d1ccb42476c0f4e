package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Unmapped-well policies. The core always keeps unmapped rows with an
// absent condition; "drop" removes them at the output stage.
const (
	UnmappedKeep = "keep"
	UnmappedDrop = "drop"
)

// Config holds all service settings, populated from environment variables.
// File paths come from CLI flags, not from here.
type Config struct {
	LogLevel  string
	LogFormat string

	// ScanWindow bounds the forward search for grid rows after a time
	// marker in spreadsheet exports. A tolerance heuristic, see the domain
	// package doc.
	ScanWindow int

	// UnmappedWellPolicy is "keep" or "drop" for rows whose well has no
	// condition mapping entry.
	UnmappedWellPolicy string

	// Watch-mode service settings.
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Kafka observation sink, feature-flagged via KAFKA_ENABLED.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	scanWindow, err := parseScanWindow()
	if err != nil {
		return nil, err
	}

	shutdownStr := envOrDefault("SHUTDOWN_TIMEOUT", "10s")
	shutdownTimeout, err := time.ParseDuration(shutdownStr)
	if err != nil || shutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}

	cfg := &Config{
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ScanWindow:         scanWindow,
		UnmappedWellPolicy: envOrDefault("UNMAPPED_WELL_POLICY", UnmappedKeep),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout:    shutdownTimeout,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "od600-observations"),
	}

	switch cfg.UnmappedWellPolicy {
	case UnmappedKeep, UnmappedDrop:
	default:
		return nil, fmt.Errorf("invalid UNMAPPED_WELL_POLICY %q: must be %q or %q",
			cfg.UnmappedWellPolicy, UnmappedKeep, UnmappedDrop)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is empty")
	}

	return cfg, nil
}

func parseScanWindow() (int, error) {
	s := os.Getenv("SCAN_WINDOW")
	if s == "" {
		return 10, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid SCAN_WINDOW: must be a positive integer")
	}
	return n, nil
}

// envOrDefault returns the environment value for key, or fallback when unset
// or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseBrokers splits a comma-separated broker list, dropping empty entries.
func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
