// Package main provides the dataclassio CLI for inspecting and converting
// wire documents.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/efroemling/dataclassio"
)

var (
	// Version information (set by build flags)
	version = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dataclassio",
		Short: "Inspect and convert dataclassio wire documents",
		Long: `dataclassio works with the portable wire documents produced by the
dataclassio library: JSON or YAML objects restricted to the plain codec's
value set.`,
		Version: version,
	}

	rootCmd.AddCommand(
		newCheckCommand(),
		newConvertCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newCheckCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Verify that a document is a valid plain-codec wire value",
		Long: `Parse a JSON or YAML document (from a file or stdin) and verify that
every value in it is representable under the plain codec. Exits nonzero
with a pointer to the first offending value otherwise.

Examples:
  dataclassio check config.json
  cat doc.yaml | dataclassio check --format yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, name, err := readInput(args)
			if err != nil {
				return err
			}
			doc, err := parseDoc(data, pickFormat(format, name))
			if err != nil {
				return err
			}
			if err := dataclassio.CheckWire(doc, dataclassio.CodecPlain); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Input format: json or yaml (default: by file extension)")
	return cmd
}

func newConvertCommand() *cobra.Command {
	var from, to, output string
	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a wire document between JSON and YAML",
		Long: `Parse a wire document and re-emit it in the other format. The document
is validated against the plain codec's value set on the way through.

Examples:
  dataclassio convert doc.json --to yaml
  dataclassio convert doc.yaml --to json -o doc.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, name, err := readInput(args)
			if err != nil {
				return err
			}
			doc, err := parseDoc(data, pickFormat(from, name))
			if err != nil {
				return err
			}
			if err := dataclassio.CheckWire(doc, dataclassio.CodecPlain); err != nil {
				return err
			}
			var out []byte
			switch to {
			case "yaml", "yml":
				out, err = yaml.Marshal(doc)
			case "json", "":
				out, err = gojson.MarshalIndent(doc, "", "  ")
				out = append(out, '\n')
			default:
				return fmt.Errorf("unknown output format %q", to)
			}
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			return os.WriteFile(output, out, 0o644)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Input format: json or yaml (default: by file extension)")
	cmd.Flags().StringVar(&to, "to", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func readInput(args []string) ([]byte, string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		return data, "", err
	}
	data, err := os.ReadFile(args[0])
	return data, args[0], err
}

func pickFormat(flag, name string) string {
	if flag != "" {
		return flag
	}
	switch {
	case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"):
		return "yaml"
	default:
		return "json"
	}
}

func parseDoc(data []byte, format string) (any, error) {
	switch format {
	case "yaml", "yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		return doc, nil
	case "json":
		var doc any
		dec := gojson.NewDecoder(strings.NewReader(string(data)))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return doc, nil
	}
	return nil, fmt.Errorf("unknown input format %q", format)
}
