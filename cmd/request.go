package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/mcmakdonal/norsani-api-go/filter"
	"github.com/mcmakdonal/norsani-api-go/norsani"
)

var (
	queryPairs []string
	payload    string
	filterExpr string
	preset     string
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get ENDPOINT [ENDPOINT...]",
	Short: "GET one or more endpoints",
	Long: `Fetch one or more endpoints. Several endpoints are fetched concurrently and
printed as a list in argument order. --query parameters are sent with every
request; --filter or --preset keep only the records matching an expression.`,
	Example: `  norsani get vendors
  norsani get products -F wc -q per_page=50 --filter 'num(price) < 10'
  norsani get orders customers -F wc --preset recent`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGet,
}

// postCmd represents the post command
var postCmd = &cobra.Command{
	Use:   "post ENDPOINT",
	Short: "POST a JSON payload to an endpoint",
	Args:  cobra.ExactArgs(1),
	RunE:  runWithPayload(http.MethodPost),
}

// putCmd represents the put command
var putCmd = &cobra.Command{
	Use:   "put ENDPOINT",
	Short: "PUT a JSON payload to an endpoint",
	Args:  cobra.ExactArgs(1),
	RunE:  runWithPayload(http.MethodPut),
}

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:     "delete ENDPOINT",
	Short:   "DELETE an endpoint",
	Example: `  norsani delete products/42?force=true -F wc`,
	Args:    cobra.ExactArgs(1),
	RunE:    runBodyless(http.MethodDelete),
}

// optionsCmd represents the options command
var optionsCmd = &cobra.Command{
	Use:   "options ENDPOINT",
	Short: "Describe an endpoint's schema with OPTIONS",
	Args:  cobra.ExactArgs(1),
	RunE:  runBodyless(http.MethodOptions),
}

// pingCmd represents the ping command
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test the connection and credentials",
	Long:  `Fetch the namespace index of the selected API family to confirm the store URL and credentials work.`,
	Args:  cobra.NoArgs,
	RunE:  runPing,
}

func init() {
	getCmd.Flags().StringArrayVarP(&queryPairs, "query", "q", nil, "query parameter key=value (repeatable)")
	getCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	getCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a named filter from config")

	for _, c := range []*cobra.Command{postCmd, putCmd} {
		c.Flags().StringVarP(&payload, "data", "d", "", "JSON payload, or @file with JSON or YAML")
	}

	rootCmd.AddCommand(getCmd, postCmd, putCmd, deleteCmd, optionsCmd, pingCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	fam, err := family()
	if err != nil {
		return err
	}
	query, err := parseQueryFlags(queryPairs)
	if err != nil {
		return err
	}
	if filterExpr != "" && preset != "" {
		return fmt.Errorf("--filter and --preset are mutually exclusive")
	}

	ctx := cmd.Context()

	var body any
	if len(args) == 1 {
		body, err = client.Get(ctx, args[0], fam, query)
		if err != nil {
			return err
		}
	} else {
		specs := make([]norsani.RequestSpec, len(args))
		for i, endpoint := range args {
			specs[i] = norsani.RequestSpec{Method: http.MethodGet, Endpoint: endpoint, Family: fam, Data: query}
		}

		results, err := client.DoAll(ctx, specs)
		if err != nil {
			return err
		}

		bodies := make([]any, len(results))
		for i, resp := range results {
			bodies[i] = resp.Body
		}
		body = bodies
	}

	body, err = applyFilter(cmd, body)
	if err != nil {
		return err
	}

	return printBody(cmd.OutOrStdout(), body, cfg.Output.Format, cfg.Output.Pretty)
}

// applyFilter narrows the records in body. Lists are filtered element
// wise; a list of lists (several endpoints) is filtered per endpoint.
func applyFilter(cmd *cobra.Command, body any) (any, error) {
	if filterExpr == "" && preset == "" {
		return body, nil
	}

	apply := func(records []filter.Record) ([]filter.Record, error) {
		if preset != "" {
			return filters.Apply(cmd.Context(), preset, records)
		}
		return filters.ApplyExpression(cmd.Context(), filterExpr, records)
	}

	list, ok := body.([]any)
	if !ok {
		return apply(filter.Records(body))
	}

	nested := len(list) > 0
	for _, item := range list {
		if _, isList := item.([]any); !isList {
			nested = false
			break
		}
	}
	if !nested {
		return apply(filter.Records(body))
	}

	out := make([]any, len(list))
	for i, item := range list {
		matches, err := apply(filter.Records(item))
		if err != nil {
			return nil, err
		}
		out[i] = matches
	}

	logger.Debug().Int("endpoints", len(list)).Msg("Filtered responses")
	return out, nil
}

func runWithPayload(method string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		fam, err := family()
		if err != nil {
			return err
		}
		data, err := readPayload(appFs, payload)
		if err != nil {
			return err
		}

		var body any
		switch method {
		case http.MethodPost:
			body, err = client.Post(cmd.Context(), args[0], fam, data)
		default:
			body, err = client.Put(cmd.Context(), args[0], fam, data)
		}
		if err != nil {
			return err
		}
		return printBody(cmd.OutOrStdout(), body, cfg.Output.Format, cfg.Output.Pretty)
	}
}

func runBodyless(method string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		fam, err := family()
		if err != nil {
			return err
		}

		var body any
		switch method {
		case http.MethodDelete:
			body, err = client.Delete(cmd.Context(), args[0], fam)
		default:
			body, err = client.Options(cmd.Context(), args[0], fam)
		}
		if err != nil {
			return err
		}
		return printBody(cmd.OutOrStdout(), body, cfg.Output.Format, cfg.Output.Pretty)
	}
}

func runPing(cmd *cobra.Command, args []string) error {
	fam, err := family()
	if err != nil {
		return err
	}

	url := client.Config().ResolveURL("", fam)
	fmt.Fprintf(cmd.OutOrStdout(), "Testing connection to %s...\n", url)

	if err := client.Ping(cmd.Context(), fam); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Connection successful!")
	return nil
}
