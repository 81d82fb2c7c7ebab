// Package config provides the configuration system for widecol.
//
// The configuration is organized into logical sections:
//   - Driver: which external driver to use and how to reach it
//   - Reads: row interpretation mode and read defaults
//   - Timeouts: connection and request timeouts
//   - Observability: logging, metrics and tracing
//
// Example usage:
//
//	cfg := config.NewConfig("postgresql")
//	cfg.Driver.DSN = "postgres://localhost:5432/accounts"
//	cfg.Reads.RowMode = config.RowModeLegacy
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"strings"
	"time"

	"github.com/ajitpratap0/widecol/pkg/errors"
)

// RowMode selects how physical rows map onto logical wide rows.
type RowMode string

const (
	// RowModeNative maps one physical row to one logical row with many columns.
	RowModeNative RowMode = "native"
	// RowModeLegacy maps many physical rows sharing a key to one logical row,
	// each physical row standing for one column.
	RowModeLegacy RowMode = "legacy"
)

// ParseRowMode parses a row mode name, case-insensitively.
func ParseRowMode(s string) (RowMode, error) {
	switch RowMode(strings.ToLower(strings.TrimSpace(s))) {
	case RowModeNative, "":
		return RowModeNative, nil
	case RowModeLegacy, "thrift":
		return RowModeLegacy, nil
	default:
		return "", errors.Newf(errors.ErrorTypeConfig, "unknown row mode %q", s)
	}
}

// IsLegacy returns true for the legacy wide-row mode
func (m RowMode) IsLegacy() bool {
	return m == RowModeLegacy
}

// Valid reports whether m is a known mode
func (m RowMode) Valid() bool {
	return m == RowModeNative || m == RowModeLegacy
}

func (m RowMode) String() string {
	return string(m)
}

// Config is the top-level widecol configuration.
type Config struct {
	// Driver settings for the external tabular driver
	Driver DriverConfig `yaml:"driver" json:"driver" mapstructure:"driver"`

	// Reads control how result sets are interpreted
	Reads ReadsConfig `yaml:"reads" json:"reads" mapstructure:"reads"`

	// Timeouts define various timeout durations
	Timeouts TimeoutConfig `yaml:"timeouts" json:"timeouts" mapstructure:"timeouts"`

	// Observability settings for logging, metrics and tracing
	Observability ObservabilityConfig `yaml:"observability" json:"observability" mapstructure:"observability"`
}

// DriverConfig describes the external driver.
type DriverConfig struct {
	// Name of a registered driver (postgresql, mysql, sqlite, memory)
	Name string `yaml:"name" json:"name" mapstructure:"name"`
	// DSN is the driver connection string
	DSN string `yaml:"dsn" json:"dsn" mapstructure:"dsn"`
	// Keyspace qualifies table names (schema or database)
	Keyspace string `yaml:"keyspace" json:"keyspace" mapstructure:"keyspace"`
	// MaxConns caps the driver's connection pool
	MaxConns int `yaml:"max_conns" json:"max_conns" mapstructure:"max_conns"`
	// MinConns keeps idle connections warm
	MinConns int `yaml:"min_conns" json:"min_conns" mapstructure:"min_conns"`
}

// ReadsConfig contains read interpretation settings.
type ReadsConfig struct {
	// RowMode is the process default for new queries
	RowMode RowMode `yaml:"row_mode" json:"row_mode" mapstructure:"row_mode"`
	// KeyColumn is the name of the row key column
	KeyColumn string `yaml:"key_column" json:"key_column" mapstructure:"key_column"`
	// ColumnNameColumn is the clustering column holding legacy column names
	ColumnNameColumn string `yaml:"column_name_column" json:"column_name_column" mapstructure:"column_name_column"`
}

// TimeoutConfig contains all timeout-related settings.
type TimeoutConfig struct {
	// Connection timeout for establishing connections
	Connection time.Duration `yaml:"connection" json:"connection" mapstructure:"connection"`
	// Request timeout for individual operations (0 = none)
	Request time.Duration `yaml:"request" json:"request" mapstructure:"request"`
}

// ObservabilityConfig contains monitoring and observability settings.
type ObservabilityConfig struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	// LogEncoding is json or console
	LogEncoding string `yaml:"log_encoding" json:"log_encoding" mapstructure:"log_encoding"`
	// EnableMetrics turns prometheus recording on (metrics.SetEnabled)
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics" mapstructure:"enable_metrics"`
	// EnableTracing activates opentelemetry spans
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing" mapstructure:"enable_tracing"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate" mapstructure:"tracing_sample_rate"`
}

// NewConfig creates a new Config with defaults for the named driver.
func NewConfig(driverName string) *Config {
	return &Config{
		Driver: DriverConfig{
			Name:     driverName,
			MaxConns: 10,
			MinConns: 2,
		},
		Reads: ReadsConfig{
			RowMode:          RowModeNative,
			KeyColumn:        "key",
			ColumnNameColumn: "column1",
		},
		Timeouts: TimeoutConfig{
			Connection: 10 * time.Second,
			Request:    30 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel:          "info",
			LogEncoding:       "json",
			EnableMetrics:     true,
			EnableTracing:     false,
			TracingSampleRate: 0.1,
		},
	}
}

// Validate validates the configuration for correctness.
func (c *Config) Validate() error {
	if c.Driver.Name == "" {
		return errors.New(errors.ErrorTypeConfig, "driver.name is required")
	}
	if c.Driver.MaxConns < 0 || c.Driver.MinConns < 0 {
		return errors.New(errors.ErrorTypeConfig, "driver connection limits cannot be negative")
	}
	if c.Driver.MaxConns > 0 && c.Driver.MinConns > c.Driver.MaxConns {
		return errors.New(errors.ErrorTypeConfig, "driver.min_conns cannot exceed driver.max_conns")
	}
	if !c.Reads.RowMode.Valid() {
		return errors.Newf(errors.ErrorTypeConfig, "reads.row_mode must be %q or %q, got %q", RowModeNative, RowModeLegacy, c.Reads.RowMode)
	}
	if c.Reads.KeyColumn == "" {
		return errors.New(errors.ErrorTypeConfig, "reads.key_column is required")
	}
	if c.Timeouts.Request < 0 || c.Timeouts.Connection < 0 {
		return errors.New(errors.ErrorTypeConfig, "timeouts cannot be negative")
	}
	if r := c.Observability.TracingSampleRate; r < 0 || r > 1 {
		return errors.New(errors.ErrorTypeConfig, "observability.tracing_sample_rate must be within [0, 1]")
	}
	return nil
}
