// Copyright (C) 2026 Treelight Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads the process-wide reasoner configuration with
// priority env > file > defaults. The configuration is fixed at process
// start and never reloaded.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/treelight/reasoner/services/reasoner/category"
	"github.com/treelight/reasoner/services/reasoner/strategy"
)

// Config is the top-level configuration for the reasoner service.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after creation.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `json:"server" yaml:"server"`

	// Search contains search-strategy tunables shared by every session.
	Search SearchConfig `json:"search" yaml:"search"`

	// Hybrid contains the strategy-switch thresholds.
	Hybrid strategy.Thresholds `json:"hybrid" yaml:"hybrid"`

	// Telemetry contains tracing and metrics settings.
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`

	// Categories overrides built-in category bundles by name.
	Categories map[string]category.Override `json:"categories" yaml:"categories"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr            string        `json:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// SearchConfig contains the per-session search tunables.
type SearchConfig struct {
	BeamWidth           int     `json:"beam_width" yaml:"beam_width"`
	MaxDepth            int     `json:"max_depth" yaml:"max_depth"`
	MinViableScore      float64 `json:"min_viable_score" yaml:"min_viable_score"`
	Temperature         float64 `json:"temperature" yaml:"temperature"`
	ExplorationConstant float64 `json:"exploration_constant" yaml:"exploration_constant"`
	StoreCapacity       int     `json:"store_capacity" yaml:"store_capacity"`
	DefaultStrategy     string  `json:"default_strategy" yaml:"default_strategy"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	ServiceName     string  `json:"service_name" yaml:"service_name"`
	TraceExporter   string  `json:"trace_exporter" yaml:"trace_exporter"`
	MetricsExporter string  `json:"metrics_exporter" yaml:"metrics_exporter"`
	OTLPEndpoint    string  `json:"otlp_endpoint" yaml:"otlp_endpoint"`
	SampleRate      float64 `json:"sample_rate" yaml:"sample_rate"`
	LogLevel        string  `json:"log_level" yaml:"log_level"`
}

// Default returns the default configuration.
//
// Outputs:
//   - Config: Default configuration with sensible values.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8093",
			ShutdownTimeout: 10 * time.Second,
		},
		Search: SearchConfig{
			BeamWidth:           3,
			MaxDepth:            10,
			MinViableScore:      3.0,
			Temperature:         1.0,
			ExplorationConstant: 1.41,
			StoreCapacity:       1000,
			DefaultStrategy:     string(strategy.TypeHybrid),
		},
		Hybrid: strategy.DefaultThresholds(),
		Telemetry: TelemetryConfig{
			ServiceName:     "treelight-reasoner",
			TraceExporter:   "none",
			MetricsExporter: "prometheus",
			SampleRate:      1.0,
			LogLevel:        "info",
		},
	}
}

// Load loads configuration with priority: env > file > defaults.
//
// Inputs:
//   - configPath: Path to YAML/JSON config file (optional, can be empty).
//
// Outputs:
//   - Config: Merged configuration.
//   - error: Non-nil if the file exists but is invalid, or validation fails.
func Load(configPath string) (Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := loadFile(configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	loadEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return err
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}

	return nil
}

func loadEnv(cfg *Config) {
	// Server
	if v := os.Getenv("REASONER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("REASONER_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}

	// Search
	if v := os.Getenv("REASONER_BEAM_WIDTH"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Search.BeamWidth = i
		}
	}
	if v := os.Getenv("REASONER_MAX_DEPTH"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Search.MaxDepth = i
		}
	}
	if v := os.Getenv("REASONER_MIN_VIABLE_SCORE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Search.MinViableScore = f
		}
	}
	if v := os.Getenv("REASONER_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Search.Temperature = f
		}
	}
	if v := os.Getenv("REASONER_EXPLORATION_CONSTANT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Search.ExplorationConstant = f
		}
	}
	if v := os.Getenv("REASONER_STORE_CAPACITY"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Search.StoreCapacity = i
		}
	}
	if v := os.Getenv("REASONER_DEFAULT_STRATEGY"); v != "" {
		cfg.Search.DefaultStrategy = v
	}

	// Hybrid thresholds
	if v := os.Getenv("REASONER_CONSTRAINT_DENSITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Hybrid.ConstraintDensity = f
		}
	}
	if v := os.Getenv("REASONER_GOAL_CLARITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Hybrid.GoalClarity = f
		}
	}
	if v := os.Getenv("REASONER_UNCERTAINTY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Hybrid.Uncertainty = f
		}
	}

	// Telemetry
	if v := os.Getenv("REASONER_SERVICE_NAME"); v != "" {
		cfg.Telemetry.ServiceName = v
	}
	if v := os.Getenv("REASONER_TRACE_EXPORTER"); v != "" {
		cfg.Telemetry.TraceExporter = v
	}
	if v := os.Getenv("REASONER_METRICS_EXPORTER"); v != "" {
		cfg.Telemetry.MetricsExporter = v
	}
	if v := os.Getenv("REASONER_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	if v := os.Getenv("REASONER_TRACE_SAMPLE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Telemetry.SampleRate = f
		}
	}
	if v := os.Getenv("REASONER_LOG_LEVEL"); v != "" {
		cfg.Telemetry.LogLevel = v
	}
}

// Validate checks that the configuration is valid.
//
// Outputs:
//   - error: Non-nil if configuration is invalid.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr must not be empty")
	}
	if c.Search.BeamWidth < 1 {
		return fmt.Errorf("beam_width must be >= 1")
	}
	if c.Search.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be >= 1")
	}
	if c.Search.Temperature <= 0 {
		return fmt.Errorf("temperature must be > 0")
	}
	if c.Search.ExplorationConstant <= 0 {
		return fmt.Errorf("exploration_constant must be > 0")
	}
	if c.Search.StoreCapacity < 1 {
		return fmt.Errorf("store_capacity must be >= 1")
	}
	if _, err := strategy.ParseType(c.Search.DefaultStrategy); err != nil {
		return fmt.Errorf("default_strategy: %w", err)
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("sample_rate must be between 0 and 1")
	}
	return nil
}

// Params converts the search section into strategy factory parameters.
//
// Outputs:
//   - strategy.Params: Factory tunables for a fresh strategy set.
func (c Config) Params() strategy.Params {
	return strategy.Params{
		BeamWidth:           c.Search.BeamWidth,
		MaxDepth:            c.Search.MaxDepth,
		MinViableScore:      c.Search.MinViableScore,
		Temperature:         c.Search.Temperature,
		ExplorationConstant: c.Search.ExplorationConstant,
		Thresholds:          c.Hybrid,
	}
}
