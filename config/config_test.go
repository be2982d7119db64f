package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
api:
  url: https://shop.test
  consumer_key: ck_file
  consumer_secret: cs_file
  commerce_version: v2
  verify_ssl: false
  timeout: 5s
  concurrency: 8
filters:
  in_stock: stock_quantity > 0
output:
  format: yaml
logging:
  level: debug
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "https://shop.test", cfg.API.URL)
	assert.Equal(t, "ck_file", cfg.API.ConsumerKey)
	assert.Equal(t, "v2", cfg.API.CommerceVersion)
	assert.Equal(t, "wc", cfg.API.CommerceNamespace)
	assert.Equal(t, "wp-json", cfg.API.APIPrefix)
	assert.Nil(t, cfg.API.UseSSL)
	require.NotNil(t, cfg.API.VerifySSL)
	assert.False(t, *cfg.API.VerifySSL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 8, cfg.API.Concurrency)
	assert.Equal(t, "stock_quantity > 0", cfg.Filters["in_stock"])
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.True(t, cfg.Output.Pretty)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("NORSANI_API_CONSUMER_KEY", "ck_env")
	t.Setenv("NORSANI_API_USE_SSL", "false")
	t.Setenv("NORSANI_LOGGING_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "ck_env", cfg.API.ConsumerKey)
	require.NotNil(t, cfg.API.UseSSL)
	assert.False(t, *cfg.API.UseSSL)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestAPIConfigOptions(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	opts := cfg.API.Options()
	assert.Equal(t, "https://shop.test", opts.URL)
	assert.Equal(t, "cs_file", opts.ConsumerSecret)
	assert.Equal(t, "v2", opts.CommerceVersion)
	assert.Equal(t, 5*time.Second, opts.Timeout)
	assert.Equal(t, cfg.API.VerifySSL, opts.VerifySSL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			API:     APIConfig{Concurrency: 4},
			Output:  OutputConfig{Format: "json"},
			Logging: LoggingConfig{Level: "info", Format: "console"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, wantErr: "logging"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging"},
		{name: "bad output format", mutate: func(c *Config) { c.Output.Format = "csv" }, wantErr: "output"},
		{name: "zero concurrency", mutate: func(c *Config) { c.API.Concurrency = 0 }, wantErr: "api.concurrency"},
		{name: "empty filter", mutate: func(c *Config) { c.Filters = FilterConfig{"x": " "} }, wantErr: "filters.x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
