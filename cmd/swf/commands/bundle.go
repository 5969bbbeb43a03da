package commands

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/speakeasy-api/serverlessworkflow/json"
	"github.com/speakeasy-api/serverlessworkflow/jsonschema"
	"github.com/speakeasy-api/serverlessworkflow/yml"
	"github.com/spf13/cobra"
)

var (
	bundleOutFlag     string
	bundleVerifyFlag  bool
	bundleBaseURIFlag string
	bundleConcurrency int
)

var bundleCmd = &cobra.Command{
	Use:   "bundle <schema>",
	Short: "Bundle a JSON Schema and the schemas it references into one document",
	Long: `Bundle a JSON Schema document together with every schema it references,
directly or transitively, into a single self-contained schema.

Each referenced document is fetched once and embedded under $defs, keyed by its
file name without extension. The bundle's $id is the root's $id followed by
"(bundled)". With --verify the bundle is compiled with every external load
refused to prove it is self-contained.`,
	Args: cobra.ExactArgs(1),
	RunE: runBundle,
	Example: `  # Bundle a local schema
  swf bundle schemas/order.json -o order.bundled.json

  # Bundle and verify nothing outside the bundle is needed
  swf bundle schemas/order.json --verify`,
}

func init() {
	bundleCmd.Flags().StringVarP(&bundleOutFlag, "out", "o", "", "Output file path (defaults to stdout)")
	bundleCmd.Flags().BoolVar(&bundleVerifyFlag, "verify", false, "Verify the bundle is self-contained")
	bundleCmd.Flags().StringVar(&bundleBaseURIFlag, "base-uri", "", "Base URI of the root schema (defaults to the schema file's absolute path)")
	bundleCmd.Flags().IntVar(&bundleConcurrency, "concurrency", 0, "Maximum number of documents fetched at once (defaults to 8)")
}

func runBundle(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	file := args[0]
	logger := newLogger(cmd)

	data, err := readInput(cmd, file)
	if err != nil {
		return err
	}

	node, _, err := yml.Parse(data)
	if err != nil {
		return err
	}

	baseURI := bundleBaseURIFlag
	if baseURI == "" && !IsStdin(file) {
		abs, err := filepath.Abs(file)
		if err != nil {
			return err
		}
		baseURI = filepath.ToSlash(abs)
	}

	bundle, err := jsonschema.Bundle(ctx, &jsonschema.Schema{BaseURI: baseURI, Node: node}, jsonschema.BundleOptions{
		Concurrency: bundleConcurrency,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	logger.Info("bundled schema", "id", bundle.ID, "documents", bundle.Definitions.Len())

	if bundleVerifyFlag {
		if err := jsonschema.VerifySelfContained(bundle); err != nil {
			return fmt.Errorf("bundle verification failed: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Bundle %s is self-contained\n", bundle.ID)
	}

	var buf bytes.Buffer
	if err := json.YAMLToJSON(bundle.Schema, 2, &buf); err != nil {
		return err
	}

	return writeOutput(cmd, bundleOutFlag, buf.Bytes())
}
