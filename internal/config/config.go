//-------------------------------------------------------------------------
//
// retail-etl
//
// Copyright (c) 2025 - 2026, Retail Tools
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for retail-etl.
// Configuration is loaded from config files and CLI flags (no environment variables).
// CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for retail-etl.
type Config struct {
	// Connection is the PostgreSQL connection string.
	Connection string `mapstructure:"connection"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Load holds configuration for the load subcommand.
	Load LoadConfig `mapstructure:"load"`

	// Report holds configuration for the report subcommand.
	Report ReportConfig `mapstructure:"report"`

	// Sample holds configuration for the sample subcommand.
	Sample SampleConfig `mapstructure:"sample"`
}

// LoadConfig holds configuration for raw dataset loading.
type LoadConfig struct {
	// Input is the path of the delimited order-line file.
	Input string `mapstructure:"input"`

	// Delimiter is the field separator in the input file.
	Delimiter string `mapstructure:"delimiter"`

	// DropExisting drops the raw table and all derived objects before loading.
	DropExisting bool `mapstructure:"drop_existing"`
}

// ReportConfig holds configuration for report execution and export.
type ReportConfig struct {
	// OutputDir is where exported result files are written.
	// Empty means print to stdout instead of exporting.
	OutputDir string `mapstructure:"output_dir"`

	// Format is the output format: "csv" or "table".
	Format string `mapstructure:"format"`

	// TopN limits the row count of top-N style reports.
	TopN int `mapstructure:"top_n"`

	// Country is the dimension value for the single-country report.
	Country string `mapstructure:"country"`

	// CustomerID is the dimension value for the single-customer report.
	// An ID absent from the data yields an empty result, not an error.
	CustomerID int `mapstructure:"customer_id"`
}

// SampleConfig holds configuration for sample dataset generation.
type SampleConfig struct {
	// Rows is the number of order lines to generate.
	Rows int `mapstructure:"rows"`

	// Seed makes generation reproducible when non-zero.
	Seed uint64 `mapstructure:"seed"`

	// Output is the path of the generated CSV file.
	Output string `mapstructure:"output"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Load: LoadConfig{
			Delimiter: ",",
		},
		Report: ReportConfig{
			Format:     "csv",
			TopN:       10,
			Country:    "United Kingdom",
			CustomerID: 12583,
		},
		Sample: SampleConfig{
			Rows:   5000,
			Output: "sample.csv",
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./retail-etl.yaml
// 3. ~/.config/retail-etl/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("retail-etl")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "retail-etl"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// ValidateLoad checks configuration required for the load command.
func (c *Config) ValidateLoad() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Load.Input == "" {
		return fmt.Errorf("input file is required for load")
	}
	if len([]rune(c.Load.Delimiter)) != 1 {
		return fmt.Errorf("delimiter must be a single character")
	}
	return nil
}

// ValidateReport checks configuration required for the report command.
func (c *Config) ValidateReport() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Report.TopN < 1 {
		return fmt.Errorf("top_n must be at least 1")
	}
	if c.Report.Format != "csv" && c.Report.Format != "table" {
		return fmt.Errorf("format must be 'csv' or 'table'")
	}
	return nil
}

// ValidateSample checks configuration required for the sample command.
func (c *Config) ValidateSample() error {
	if c.Sample.Rows < 1 {
		return fmt.Errorf("rows must be at least 1")
	}
	if c.Sample.Output == "" {
		return fmt.Errorf("output file is required for sample")
	}
	return nil
}
