package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/widecol/pkg/errors"
)

// EnvPrefix is the prefix for environment overrides, e.g. WIDECOL_DRIVER_DSN.
const EnvPrefix = "WIDECOL"

// LoadConfig reads a configuration file (yaml, json or toml by extension) on
// top of the defaults for the memory driver, applies WIDECOL_* environment
// overrides and validates the result. An empty path loads defaults and
// environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, NewConfig("memory"))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "unmarshal config")
	}

	mode, err := ParseRowMode(string(cfg.Reads.RowMode))
	if err != nil {
		return nil, err
	}
	cfg.Reads.RowMode = mode

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that the
// file does not mention.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("driver.name", d.Driver.Name)
	v.SetDefault("driver.dsn", d.Driver.DSN)
	v.SetDefault("driver.keyspace", d.Driver.Keyspace)
	v.SetDefault("driver.max_conns", d.Driver.MaxConns)
	v.SetDefault("driver.min_conns", d.Driver.MinConns)
	v.SetDefault("reads.row_mode", string(d.Reads.RowMode))
	v.SetDefault("reads.key_column", d.Reads.KeyColumn)
	v.SetDefault("reads.column_name_column", d.Reads.ColumnNameColumn)
	v.SetDefault("timeouts.connection", d.Timeouts.Connection)
	v.SetDefault("timeouts.request", d.Timeouts.Request)
	v.SetDefault("observability.log_level", d.Observability.LogLevel)
	v.SetDefault("observability.log_encoding", d.Observability.LogEncoding)
	v.SetDefault("observability.enable_metrics", d.Observability.EnableMetrics)
	v.SetDefault("observability.enable_tracing", d.Observability.EnableTracing)
	v.SetDefault("observability.tracing_sample_rate", d.Observability.TracingSampleRate)
}

// Load loads a YAML file into out, substituting ${VAR_NAME} references with
// environment values before parsing.
func Load(filePath string, out interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: path is supplied by the operator
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal([]byte(substituteEnvVars(string(data))), out); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// Save writes cfg to a YAML file
func Save(filePath string, cfg interface{}) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(m string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(m)[1])
	})
}
