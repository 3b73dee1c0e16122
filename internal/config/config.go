package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all process settings, populated from environment variables
// and an optional YAML plan file.
type Config struct {
	LogLevel        string
	LogFormat       string
	HTTPAddr        string // empty disables the metrics/health server
	ShutdownTimeout time.Duration

	// Batch (autofill) settings.
	OutputRoot string
	Plan       Plan

	// Wave event publishing.
	KafkaBrokers      []string
	KafkaWaveTopic    string
	WaveEventsEnabled bool

	// Wave summary store; empty disables it.
	DatabaseURL string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	plan := DefaultPlan()
	if path := os.Getenv("PLAN_FILE"); path != "" {
		if plan, err = LoadPlan(path); err != nil {
			return nil, err
		}
	}
	if v := os.Getenv("CUTOFF_PAIRS"); v != "" {
		pairs, err := ParseCutoffPairs(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CUTOFF_PAIRS: %w", err)
		}
		plan.CutoffPairs = pairs
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	eventsEnabled := len(brokers) > 0
	if v := os.Getenv("WAVE_EVENTS_ENABLED"); v != "" {
		eventsEnabled = v == "true"
	}

	cfg := &Config{
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		ShutdownTimeout: shutdownTimeout,

		OutputRoot: sharedcfg.EnvOrDefault("OUTPUT_ROOT", "output"),
		Plan:       plan,

		KafkaBrokers:      brokers,
		KafkaWaveTopic:    sharedcfg.EnvOrDefault("KAFKA_WAVE_TOPIC", "extreme-temperature-waves"),
		WaveEventsEnabled: eventsEnabled,

		DatabaseURL: os.Getenv("DATABASE_URL"),
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, errors.New("LOG_FORMAT must be json or text")
	}
	if cfg.WaveEventsEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("WAVE_EVENTS_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.WaveEventsEnabled && cfg.KafkaWaveTopic == "" {
		return nil, errors.New("KAFKA_WAVE_TOPIC is required")
	}

	return cfg, nil
}

// ParseCutoffPairs parses "cold:hot" percentile pairs separated by commas,
// e.g. "1:99,5:95".
func ParseCutoffPairs(s string) ([]CutoffPair, error) {
	var pairs []CutoffPair
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		coldStr, hotStr, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("pair %q: want cold:hot", part)
		}
		cold, err := strconv.Atoi(strings.TrimSpace(coldStr))
		if err != nil {
			return nil, fmt.Errorf("pair %q: %w", part, err)
		}
		hot, err := strconv.Atoi(strings.TrimSpace(hotStr))
		if err != nil {
			return nil, fmt.Errorf("pair %q: %w", part, err)
		}
		pairs = append(pairs, CutoffPair{Cold: cold, Hot: hot})
	}
	if len(pairs) == 0 {
		return nil, errors.New("no cutoff pairs")
	}
	return pairs, nil
}
