package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/mcmakdonal/norsani-api-go/norsani"
)

// appFs is where --data @file payloads are read from. Tests swap in a
// memory filesystem.
var appFs = afero.NewOsFs()

// readPayload decodes a --data argument: inline JSON, or @path to read
// JSON or YAML from a file.
func readPayload(fs afero.Fs, data string) (any, error) {
	if data == "" {
		return nil, nil
	}

	raw := []byte(data)
	path, fromFile := strings.CutPrefix(data, "@")
	if fromFile {
		b, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		raw = b
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err == nil {
		return payload, nil
	} else if !fromFile || !isYAMLFile(path) {
		return nil, fmt.Errorf("payload is not valid JSON: %w", err)
	}

	if err := yaml.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("payload is not valid YAML: %w", err)
	}
	return payload, nil
}

func isYAMLFile(path string) bool {
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}

// parseQueryFlags turns repeated key=value flags into ordered params.
func parseQueryFlags(pairs []string) (norsani.Params, error) {
	params := make(norsani.Params, 0, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid query parameter %q (want key=value)", pair)
		}
		params = append(params, norsani.Param{Key: key, Value: value})
	}
	return params, nil
}

// printBody writes body to w in the requested format.
func printBody(w io.Writer, body any, format string, pretty bool) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(body); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		if pretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(body)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
