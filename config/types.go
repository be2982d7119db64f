package config

import (
	"time"

	"github.com/mcmakdonal/norsani-api-go/norsani"
)

// Config represents the complete configuration structure
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Filters FilterConfig  `mapstructure:"filters"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig holds the store connection and authentication settings
type APIConfig struct {
	URL               string        `mapstructure:"url"`
	ConsumerKey       string        `mapstructure:"consumer_key"`
	ConsumerSecret    string        `mapstructure:"consumer_secret"`
	UseSSL            *bool         `mapstructure:"use_ssl"`
	VerifySSL         *bool         `mapstructure:"verify_ssl"`
	QueryStringAuth   bool          `mapstructure:"query_string_auth"`
	CoreNamespace     string        `mapstructure:"core_namespace"`
	CoreVersion       string        `mapstructure:"core_version"`
	CommerceNamespace string        `mapstructure:"commerce_namespace"`
	CommerceVersion   string        `mapstructure:"commerce_version"`
	APIPrefix         string        `mapstructure:"api_prefix"`
	Port              string        `mapstructure:"port"`
	Timeout           time.Duration `mapstructure:"timeout"`
	Encoding          string        `mapstructure:"encoding"`
	Concurrency       int           `mapstructure:"concurrency"`
}

// Options converts the API section into client options.
func (a APIConfig) Options() norsani.Options {
	return norsani.Options{
		URL:               a.URL,
		UseSSL:            a.UseSSL,
		VerifySSL:         a.VerifySSL,
		CoreNamespace:     a.CoreNamespace,
		CoreVersion:       a.CoreVersion,
		CommerceNamespace: a.CommerceNamespace,
		CommerceVersion:   a.CommerceVersion,
		APIPrefix:         a.APIPrefix,
		ConsumerKey:       a.ConsumerKey,
		ConsumerSecret:    a.ConsumerSecret,
		QueryStringAuth:   a.QueryStringAuth,
		Port:              a.Port,
		Timeout:           a.Timeout,
		Encoding:          a.Encoding,
	}
}

// FilterConfig maps filter names to expressions
type FilterConfig map[string]string

// OutputConfig controls how responses are printed
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Pretty bool   `mapstructure:"pretty"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
