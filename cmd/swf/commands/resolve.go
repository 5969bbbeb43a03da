package commands

import (
	"bytes"

	"github.com/speakeasy-api/serverlessworkflow/workflow"
	"github.com/speakeasy-api/serverlessworkflow/yml"
	"github.com/spf13/cobra"
)

var (
	resolveFormatFlag string
	resolveOutFlag    string
	resolveResolve    resolveFlags
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <file>",
	Short: "Inline the external definitions of a workflow document",
	Long: `Load every external definition of a Serverless Workflow document and write
the resulting self-contained document.

Definitions held as a URI (events, functions, retries, secrets, auth, constants
and dataInputSchema) are fetched from the file system or over HTTP and written
in place of the URI. Relative URIs are resolved according to --mode:
  file      joined onto --base-dir, or the input file's directory (default)
  absolute  resolved against --base-uri
  reject    fail on any relative URI`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
	Example: `  # Resolve definitions next to the workflow file
  swf resolve workflow.yaml

  # Resolve relative definitions against a remote location
  swf resolve workflow.json --mode absolute --base-uri https://example.com/workflows/`,
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveFormatFlag, "format", "f", "", "Output format: json or yaml (defaults to the input format)")
	resolveCmd.Flags().StringVarP(&resolveOutFlag, "out", "o", "", "Output file path (defaults to stdout)")
	resolveResolve.register(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	file := args[0]

	data, err := readInput(cmd, file)
	if err != nil {
		return err
	}

	format, err := outputFormat(resolveFormatFlag, yml.DetectFormat(data), false)
	if err != nil {
		return err
	}

	opts, err := resolveResolve.options(file, newLogger(cmd))
	if err != nil {
		return err
	}

	wf, err := workflow.Unmarshal(ctx, bytes.NewReader(data), workflow.WithResolveOptions(opts))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := workflow.Marshal(ctx, wf, &buf, format); err != nil {
		return err
	}

	return writeOutput(cmd, resolveOutFlag, buf.Bytes())
}
