package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/widecol/pkg/errors"
)

func TestParseRowMode(t *testing.T) {
	tests := []struct {
		in      string
		want    RowMode
		wantErr bool
	}{
		{in: "native", want: RowModeNative},
		{in: "", want: RowModeNative},
		{in: "LEGACY", want: RowModeLegacy},
		{in: " thrift ", want: RowModeLegacy},
		{in: "columnar", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRowMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		errorMsg string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "missing driver", mutate: func(c *Config) { c.Driver.Name = "" }, errorMsg: "driver.name"},
		{name: "bad row mode", mutate: func(c *Config) { c.Reads.RowMode = "wide" }, errorMsg: "reads.row_mode"},
		{name: "min over max", mutate: func(c *Config) { c.Driver.MinConns = 20 }, errorMsg: "min_conns"},
		{name: "no key column", mutate: func(c *Config) { c.Reads.KeyColumn = "" }, errorMsg: "key_column"},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeouts.Request = -time.Second }, errorMsg: "timeouts"},
		{name: "sample rate", mutate: func(c *Config) { c.Observability.TracingSampleRate = 1.5 }, errorMsg: "sample_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("memory")
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "widecol.yaml")
	content := `
driver:
  name: postgresql
  dsn: postgres://reader@localhost:5432/accounts
  keyspace: accounts
reads:
  row_mode: legacy
timeouts:
  request: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Run("file values over defaults", func(t *testing.T) {
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "postgresql", cfg.Driver.Name)
		assert.Equal(t, "accounts", cfg.Driver.Keyspace)
		assert.Equal(t, RowModeLegacy, cfg.Reads.RowMode)
		assert.Equal(t, 5*time.Second, cfg.Timeouts.Request)
		assert.Equal(t, "key", cfg.Reads.KeyColumn)
		assert.Equal(t, 10, cfg.Driver.MaxConns)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("WIDECOL_READS_ROW_MODE", "native")
		t.Setenv("WIDECOL_DRIVER_KEYSPACE", "billing")

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, RowModeNative, cfg.Reads.RowMode)
		assert.Equal(t, "billing", cfg.Driver.Keyspace)
	})

	t.Run("no file", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "memory", cfg.Driver.Name)
		assert.Equal(t, RowModeNative, cfg.Reads.RowMode)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(dir, "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid mode", func(t *testing.T) {
		t.Setenv("WIDECOL_READS_ROW_MODE", "sideways")
		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sideways")
	})
}

func TestLoadAndSaveYAML(t *testing.T) {
	t.Setenv("WIDECOL_TEST_DSN", "root@tcp(db:3306)/ks")

	dir := t.TempDir()
	path := filepath.Join(dir, "driver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: mysql\ndsn: ${WIDECOL_TEST_DSN}\nmax_conns: 4\n"), 0o600))

	var d DriverConfig
	require.NoError(t, Load(path, &d))
	assert.Equal(t, "mysql", d.Name)
	assert.Equal(t, "root@tcp(db:3306)/ks", d.DSN)
	assert.Equal(t, 4, d.MaxConns)

	out := filepath.Join(dir, "saved.yaml")
	require.NoError(t, Save(out, &d))

	var back DriverConfig
	require.NoError(t, Load(out, &back))
	assert.Equal(t, d, back)
}

func TestValidationErrorsAreConfigurationErrors(t *testing.T) {
	cfg := NewConfig("")
	assert.True(t, errors.IsConfiguration(cfg.Validate()))

	_, err := ParseRowMode("sideways")
	assert.True(t, errors.IsConfiguration(err))
}
