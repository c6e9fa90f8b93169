//-------------------------------------------------------------------------
//
// pgEdge Lottery Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for the warehouse ETL.
// Values come from a yaml config file, then LOTTERYWH_* environment
// variables (optionally seeded from a .env file), then CLI flags, with
// later sources taking precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides (LOTTERYWH_CONNECTION, ...).
const EnvPrefix = "LOTTERYWH"

// DateLayout is the layout for date values in config and on the command line.
const DateLayout = "2006-01-02"

// Config holds all configuration for the warehouse ETL.
type Config struct {
	// Connection is the PostgreSQL connection string of the warehouse.
	Connection string `mapstructure:"connection"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Sources holds the locations of the two flat source files.
	Sources SourcesConfig `mapstructure:"sources"`

	// Load holds configuration for the load subcommand.
	Load LoadConfig `mapstructure:"load"`

	// Generate holds configuration for synthetic source generation.
	Generate GenerateConfig `mapstructure:"generate"`
}

// SourcesConfig holds source file locations.
type SourcesConfig struct {
	// Lottery is the draw-results CSV.
	Lottery string `mapstructure:"lottery"`

	// Sales is the ticket-sales CSV.
	Sales string `mapstructure:"sales"`
}

// LoadConfig holds configuration for a warehouse load.
type LoadConfig struct {
	// WriterLock takes a PostgreSQL advisory lock for the duration of the run.
	WriterLock bool `mapstructure:"writer_lock"`

	// RecordRuns writes each run into etl_run_log.
	RecordRuns bool `mapstructure:"record_runs"`

	// DropExisting resets the warehouse schema before initialization.
	DropExisting bool `mapstructure:"drop_existing"`
}

// GenerateConfig holds configuration for the synthetic data generator.
type GenerateConfig struct {
	// StartDate is the first generated day (YYYY-MM-DD).
	StartDate string `mapstructure:"start_date"`

	// EndDate is the last generated day, inclusive (YYYY-MM-DD).
	EndDate string `mapstructure:"end_date"`

	// Seed makes generation reproducible; 0 means random.
	Seed uint64 `mapstructure:"seed"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Sources: SourcesConfig{
			Lottery: filepath.Join("data", "raw", "lottery_results.csv"),
			Sales:   filepath.Join("data", "raw", "revenue_data.csv"),
		},
		Load: LoadConfig{
			WriterLock: true,
			RecordRuns: true,
		},
		Generate: GenerateConfig{
			StartDate: "2024-01-01",
			EndDate:   "2024-03-31",
		},
	}
}

// Load reads configuration from config files and the environment.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./lottery-warehouse.yaml
// 3. ~/.config/lottery-warehouse/config.yaml
func Load(configFile string) (*Config, error) {
	// A missing .env is normal; anything else is worth reporting.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("lottery-warehouse")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "lottery-warehouse"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// bindEnv registers every key so AutomaticEnv applies during Unmarshal
// even when the key is absent from the config file.
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"connection",
		"log_level",
		"sources.lottery",
		"sources.sales",
		"load.writer_lock",
		"load.record_runs",
		"load.drop_existing",
		"generate.start_date",
		"generate.end_date",
		"generate.seed",
	} {
		_ = v.BindEnv(key)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// ValidateSources checks that both source locations are set.
func (c *Config) ValidateSources() error {
	if c.Sources.Lottery == "" {
		return fmt.Errorf("lottery source path is required")
	}
	if c.Sources.Sales == "" {
		return fmt.Errorf("sales source path is required")
	}
	if c.Sources.Lottery == c.Sources.Sales {
		return fmt.Errorf("lottery and sales sources must be different files")
	}
	return nil
}

// ValidateLoad checks configuration required for the load command.
func (c *Config) ValidateLoad() error {
	if err := c.Validate(); err != nil {
		return err
	}
	return c.ValidateSources()
}

// ValidateGenerate checks configuration required for the generate command.
func (c *Config) ValidateGenerate() error {
	if err := c.ValidateSources(); err != nil {
		return err
	}
	start, end, err := c.Generate.Range()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("end_date must not be before start_date")
	}
	return nil
}

// Range parses the configured generation date range.
func (g GenerateConfig) Range() (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout, g.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date %q: %w", g.StartDate, err)
	}
	end, err := time.Parse(DateLayout, g.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date %q: %w", g.EndDate, err)
	}
	return start, end, nil
}
