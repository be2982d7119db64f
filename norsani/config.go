package norsani

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/text/encoding/htmlindex"
)

// Default connection settings
const (
	DefaultAPIPrefix         = "wp-json"
	DefaultCoreNamespace     = "norsani"
	DefaultCoreVersion       = "v1"
	DefaultCommerceNamespace = "wc"
	DefaultCommerceVersion   = "v3"
	DefaultEncoding          = "utf8"
)

var portPattern = regexp.MustCompile(`^[0-9]{1,5}$`)

// Options is the construction input for a ClientConfig. Zero values select
// the documented defaults; UseSSL and VerifySSL are pointers so an explicit
// false can be told apart from "not set".
type Options struct {
	URL               string        `json:"url" envconfig:"URL"`
	UseSSL            *bool         `json:"use_ssl" envconfig:"USE_SSL"`
	VerifySSL         *bool         `json:"verify_ssl" envconfig:"VERIFY_SSL"`
	CoreNamespace     string        `json:"core_namespace" envconfig:"CORE_NAMESPACE"`
	CoreVersion       string        `json:"core_version" envconfig:"CORE_VERSION"`
	CommerceNamespace string        `json:"commerce_namespace" envconfig:"COMMERCE_NAMESPACE"`
	CommerceVersion   string        `json:"commerce_version" envconfig:"COMMERCE_VERSION"`
	APIPrefix         string        `json:"api_prefix" envconfig:"API_PREFIX"`
	ConsumerKey       string        `json:"consumer_key" envconfig:"CONSUMER_KEY"`
	ConsumerSecret    string        `json:"consumer_secret" envconfig:"CONSUMER_SECRET"`
	QueryStringAuth   bool          `json:"query_string_auth" envconfig:"QUERY_STRING_AUTH"`
	Port              string        `json:"port" envconfig:"PORT"`
	Timeout           time.Duration `json:"timeout" envconfig:"TIMEOUT"`
	Encoding          string        `json:"encoding" envconfig:"ENCODING"`
}

// LoadOptionsFromEnv reads Options from <prefix>_URL, <prefix>_CONSUMER_KEY
// and friends. The result still has to go through NewClientConfig.
func LoadOptionsFromEnv(prefix string) (Options, error) {
	var opts Options
	if err := envconfig.Process(prefix, &opts); err != nil {
		return Options{}, &ConfigurationError{Err: err}
	}
	return opts, nil
}

// ClientConfig holds validated, defaulted connection and auth settings.
// It is immutable once built and is passed around by value.
type ClientConfig struct {
	baseURL           string
	useSSL            bool
	verifySSL         bool
	coreNamespace     string
	coreVersion       string
	commerceNamespace string
	commerceVersion   string
	apiPrefix         string
	consumerKey       string
	consumerSecret    string
	queryStringAuth   bool
	port              string
	timeout           time.Duration
	encoding          string
}

// NewClientConfig validates opts and fills in defaults.
func NewClientConfig(opts Options) (ClientConfig, error) {
	if err := validateOptions(&opts); err != nil {
		return ClientConfig{}, err
	}

	parsed, _ := url.Parse(opts.URL)

	cfg := ClientConfig{
		baseURL:           strings.TrimRight(opts.URL, "/") + "/",
		useSSL:            parsed.Scheme == "https",
		verifySSL:         true,
		coreNamespace:     withDefault(opts.CoreNamespace, DefaultCoreNamespace),
		coreVersion:       withDefault(opts.CoreVersion, DefaultCoreVersion),
		commerceNamespace: withDefault(opts.CommerceNamespace, DefaultCommerceNamespace),
		commerceVersion:   withDefault(opts.CommerceVersion, DefaultCommerceVersion),
		apiPrefix:         withDefault(strings.Trim(opts.APIPrefix, "/"), DefaultAPIPrefix),
		consumerKey:       opts.ConsumerKey,
		consumerSecret:    opts.ConsumerSecret,
		queryStringAuth:   opts.QueryStringAuth,
		port:              opts.Port,
		timeout:           opts.Timeout,
		encoding:          withDefault(opts.Encoding, DefaultEncoding),
	}
	if opts.UseSSL != nil {
		cfg.useSSL = *opts.UseSSL
	}
	if opts.VerifySSL != nil {
		cfg.verifySSL = *opts.VerifySSL
	}

	return cfg, nil
}

func validateOptions(opts *Options) error {
	err := validation.ValidateStruct(opts,
		validation.Field(&opts.URL, validation.Required, validation.By(checkBaseURL)),
		validation.Field(&opts.ConsumerKey, validation.Required),
		validation.Field(&opts.ConsumerSecret, validation.Required),
		validation.Field(&opts.Port, validation.Match(portPattern)),
		validation.Field(&opts.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&opts.Encoding, validation.By(checkEncoding)),
	)
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for name := range fieldErrs {
			fields = append(fields, name)
		}
		sort.Strings(fields)
		return &ConfigurationError{Field: strings.Join(fields, ","), Err: err}
	}
	return &ConfigurationError{Err: err}
}

func checkBaseURL(value interface{}) error {
	raw, _ := value.(string)
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("must be a valid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("must use the http or https scheme")
	}
	if parsed.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}

func checkEncoding(value interface{}) error {
	label, _ := value.(string)
	if label == "" {
		return nil
	}
	if _, err := htmlindex.Get(label); err != nil {
		return fmt.Errorf("unknown encoding %q", label)
	}
	return nil
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// BaseURL returns the site URL with exactly one trailing slash.
func (c ClientConfig) BaseURL() string { return c.baseURL }

// UseSSL reports whether requests authenticate over TLS instead of OAuth.
func (c ClientConfig) UseSSL() bool { return c.useSSL }

// VerifySSL reports whether TLS certificates are verified.
func (c ClientConfig) VerifySSL() bool { return c.verifySSL }

// QueryStringAuth reports whether SSL credentials travel in the query string.
func (c ClientConfig) QueryStringAuth() bool { return c.queryStringAuth }

func (c ClientConfig) CoreNamespace() string     { return c.coreNamespace }
func (c ClientConfig) CoreVersion() string       { return c.coreVersion }
func (c ClientConfig) CommerceNamespace() string { return c.commerceNamespace }
func (c ClientConfig) CommerceVersion() string   { return c.commerceVersion }
func (c ClientConfig) APIPrefix() string         { return c.apiPrefix }
func (c ClientConfig) ConsumerKey() string       { return c.consumerKey }
func (c ClientConfig) Port() string              { return c.port }
func (c ClientConfig) Timeout() time.Duration    { return c.timeout }
func (c ClientConfig) Encoding() string          { return c.encoding }

// lastAmpersand reports whether the OAuth signing key keeps its trailing
// "&". Commerce API v1 and v2 servers verify without it.
func (c ClientConfig) lastAmpersand() bool {
	return c.commerceVersion != "v1" && c.commerceVersion != "v2"
}
