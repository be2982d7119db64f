package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"github.com/mcmakdonal/norsani-api-go/norsani"
)

// EnvPrefix is the prefix for environment overrides: NORSANI_API_URL
// overrides api.url.
const EnvPrefix = "NORSANI"

// Load loads the configuration from configPath, or from the first
// config.yaml found in the standard locations. With no explicit path a
// missing file is fine; defaults and environment variables still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Tri-state flags have no default to register.
	_ = v.BindEnv("api.use_ssl")
	_ = v.BindEnv("api.verify_ssl")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".norsani"))
		}
		v.AddConfigPath("/etc/norsani/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values. Every api key is
// registered so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.url", "")
	v.SetDefault("api.consumer_key", "")
	v.SetDefault("api.consumer_secret", "")
	v.SetDefault("api.query_string_auth", false)
	v.SetDefault("api.core_namespace", norsani.DefaultCoreNamespace)
	v.SetDefault("api.core_version", norsani.DefaultCoreVersion)
	v.SetDefault("api.commerce_namespace", norsani.DefaultCommerceNamespace)
	v.SetDefault("api.commerce_version", norsani.DefaultCommerceVersion)
	v.SetDefault("api.api_prefix", norsani.DefaultAPIPrefix)
	v.SetDefault("api.port", "")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.encoding", norsani.DefaultEncoding)
	v.SetDefault("api.concurrency", norsani.DefaultConcurrency)

	// Output defaults
	v.SetDefault("output.format", "json")
	v.SetDefault("output.pretty", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks the sections the client does not validate itself. The
// api section is checked by norsani.NewClientConfig when the client is
// built.
func validate(cfg *Config) error {
	if cfg.API.Concurrency <= 0 {
		return fmt.Errorf("api.concurrency must be > 0")
	}

	if err := validation.ValidateStruct(&cfg.Logging,
		validation.Field(&cfg.Logging.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&cfg.Logging.Format, validation.In("console", "json")),
	); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	if err := validation.ValidateStruct(&cfg.Output,
		validation.Field(&cfg.Output.Format, validation.In("json", "yaml")),
	); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	for name, expression := range cfg.Filters {
		if strings.TrimSpace(expression) == "" {
			return fmt.Errorf("filters.%s is empty", name)
		}
	}

	return nil
}
