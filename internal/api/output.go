// Package api formats command results for the terminal. Commands hand
// their result values to Output; the root command selects the encoding
// from the --output flag before any subcommand runs.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Format names an output encoding.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// current is the process-wide format chosen by the --output flag.
var current = YAML

// SetOutputFormat selects the encoding for subsequent Output calls.
// Unrecognized names fall back to YAML.
func SetOutputFormat(name string) {
	switch Format(name) {
	case JSON:
		current = JSON
	default:
		current = YAML
	}
}

// CurrentFormat reports the selected encoding.
func CurrentFormat() Format {
	return current
}

// Output encodes v to stdout in the selected format.
func Output(v any) error {
	return Encode(os.Stdout, current, v)
}

// Encode writes v to w as indented JSON or two-space YAML.
func Encode(w io.Writer, format Format, v any) error {
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
