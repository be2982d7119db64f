package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mcmakdonal/norsani-api-go/config"
	"github.com/mcmakdonal/norsani-api-go/filter"
	"github.com/mcmakdonal/norsani-api-go/norsani"
)

var (
	cfgFile  string
	cfg      *config.Config
	logger   zerolog.Logger
	client   *norsani.Client
	filters  *filter.Manager
	debugLog bool

	// Command flags
	familyName   string
	outputFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "norsani",
	Short: "Command line client for the Norsani and WooCommerce REST APIs",
	Long: `norsani calls the Norsani, WooCommerce and WordPress REST APIs of a store,
authenticating with the store's consumer key and secret. Responses are printed
as JSON or YAML and can be narrowed with filter expressions.`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&familyName, "family", "F", string(norsani.FamilyNorsani), "API family: norsani, wc or wp")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: json or yaml (default from config)")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "dump HTTP requests and responses")
}

// initializeApp loads the configuration and builds the API client
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if debugLog {
		cfg.Logging.Level = "debug"
	}
	logger = setupLogger(cfg.Logging)

	if outputFormat != "" {
		cfg.Output.Format = outputFormat
	}

	client, err = norsani.NewClient(cfg.API.Options(), logger,
		norsani.WithConcurrency(cfg.API.Concurrency),
		norsani.WithDebugLogging(debugLog),
	)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	filters = filter.NewManager()
	if err := filters.RegisterFilters(cfg.Filters); err != nil {
		return fmt.Errorf("invalid filter in config: %w", err)
	}

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isTerminal(os.Stderr),
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// family validates the --family flag
func family() (norsani.APIFamily, error) {
	switch f := norsani.APIFamily(strings.ToLower(familyName)); f {
	case norsani.FamilyNorsani, norsani.FamilyWC, norsani.FamilyWP:
		return f, nil
	default:
		return "", fmt.Errorf("unknown API family %q (must be norsani, wc or wp)", familyName)
	}
}
