//-------------------------------------------------------------------------
//
// unidwh: University Data Warehouse Generator
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for unidwh.
// Configuration is loaded from config files and CLI flags (no environment
// variables). CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for unidwh.
type Config struct {
	// Connection is the PostgreSQL connection string for the warehouse.
	Connection string `mapstructure:"connection"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Generate holds configuration for the generate subcommand.
	Generate GenerateConfig `mapstructure:"generate"`

	// ETL holds configuration for the etl subcommand.
	ETL ETLConfig `mapstructure:"etl"`
}

// GenerateConfig holds configuration for dimension CSV generation.
type GenerateConfig struct {
	// OutputDir is where the seven dimension CSV files are written.
	OutputDir string `mapstructure:"output_dir"`

	// Students is the number of student rows to generate.
	Students int `mapstructure:"students"`

	// Employees is the number of employee rows to generate.
	Employees int `mapstructure:"employees"`

	// Courses is the number of course rows to generate.
	Courses int `mapstructure:"courses"`

	// Departments is the number of department rows to generate.
	Departments int `mapstructure:"departments"`

	// Accounts is the number of ledger account rows to generate.
	Accounts int `mapstructure:"accounts"`

	// Vendors is the number of vendor rows to generate.
	Vendors int `mapstructure:"vendors"`

	// CalendarYears is how many years of dim_date rows to generate,
	// ending today.
	CalendarYears int `mapstructure:"calendar_years"`

	// Seed makes generation reproducible when non-zero.
	Seed uint64 `mapstructure:"seed"`

	// Force regenerates the files even when all seven already exist.
	Force bool `mapstructure:"force"`
}

// ETLConfig holds configuration for the warehouse build pipeline.
type ETLConfig struct {
	// InputDir is where the seven dimension CSV files are read from.
	InputDir string `mapstructure:"input_dir"`

	// AcademicSamples is how many students are sampled (with replacement)
	// when synthesizing academic facts.
	AcademicSamples int `mapstructure:"academic_samples"`

	// FinanceRecords is the number of finance transactions to synthesize.
	FinanceRecords int `mapstructure:"finance_records"`

	// Seed makes transformation repair and fact synthesis reproducible
	// when non-zero.
	Seed uint64 `mapstructure:"seed"`
}

// DefaultConfig returns a Config with default values.
// Row counts mirror the original demo data set.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Generate: GenerateConfig{
			OutputDir:     ".",
			Students:      1000,
			Employees:     60,
			Courses:       60,
			Departments:   8,
			Accounts:      20,
			Vendors:       30,
			CalendarYears: 3,
		},
		ETL: ETLConfig{
			InputDir:        ".",
			AcademicSamples: 5000,
			FinanceRecords:  2000,
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./unidwh.yaml
// 3. ~/.config/unidwh/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("unidwh")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "unidwh"))
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

// ValidateGenerate checks configuration required for the generate command.
func (c *Config) ValidateGenerate() error {
	if c.Generate.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.Generate.Departments < 1 {
		return fmt.Errorf("at least one department is required")
	}
	for name, n := range map[string]int{
		"students":  c.Generate.Students,
		"employees": c.Generate.Employees,
		"courses":   c.Generate.Courses,
		"accounts":  c.Generate.Accounts,
		"vendors":   c.Generate.Vendors,
	} {
		if n < 1 {
			return fmt.Errorf("%s count must be at least 1", name)
		}
	}
	if c.Generate.CalendarYears < 1 {
		return fmt.Errorf("calendar_years must be at least 1")
	}
	return nil
}

// ValidateETL checks configuration required for the etl command.
func (c *Config) ValidateETL() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ETL.InputDir == "" {
		return fmt.Errorf("input directory is required")
	}
	if c.ETL.AcademicSamples < 1 {
		return fmt.Errorf("academic_samples must be at least 1")
	}
	if c.ETL.FinanceRecords < 0 {
		return fmt.Errorf("finance_records must be non-negative")
	}
	return nil
}
