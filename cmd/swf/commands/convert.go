package commands

import (
	"bytes"
	"fmt"

	"github.com/speakeasy-api/serverlessworkflow/workflow"
	"github.com/speakeasy-api/serverlessworkflow/yml"
	"github.com/spf13/cobra"
)

var (
	convertFormatFlag  string
	convertOutFlag     string
	convertResolveFlag bool
	convertResolve     resolveFlags
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert a workflow document between JSON and YAML",
	Long: `Convert a Serverless Workflow document between JSON and YAML.

The input format is detected from the content. Without --format the document is
written in the other format. External definitions are left as URIs unless
--resolve is given.

Use '-' as the file argument to read from stdin:
  cat workflow.json | swf convert - --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
	Example: `  # Convert a JSON workflow to YAML
  swf convert workflow.json

  # Convert and inline every external definition
  swf convert workflow.yaml --format json --resolve -o resolved.json`,
}

func init() {
	convertCmd.Flags().StringVarP(&convertFormatFlag, "format", "f", "", "Output format: json or yaml (defaults to the format the input is not in)")
	convertCmd.Flags().StringVarP(&convertOutFlag, "out", "o", "", "Output file path (defaults to stdout)")
	convertCmd.Flags().BoolVar(&convertResolveFlag, "resolve", false, "Load external definitions before writing")
	convertResolve.register(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	file := args[0]

	data, err := readInput(cmd, file)
	if err != nil {
		return err
	}

	format, err := outputFormat(convertFormatFlag, yml.DetectFormat(data), true)
	if err != nil {
		return err
	}

	opts := []workflow.Option[workflow.UnmarshalOptions]{workflow.WithSkipExternalDefinitions()}
	if convertResolveFlag {
		resolveOpts, err := convertResolve.options(file, newLogger(cmd))
		if err != nil {
			return err
		}
		opts = []workflow.Option[workflow.UnmarshalOptions]{workflow.WithResolveOptions(resolveOpts)}
	}

	wf, err := workflow.Unmarshal(ctx, bytes.NewReader(data), opts...)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := workflow.Marshal(ctx, wf, &buf, format); err != nil {
		return err
	}

	return writeOutput(cmd, convertOutFlag, buf.Bytes())
}

// outputFormat parses flag, falling back to the other format than input when flip is set, or
// to input itself otherwise.
func outputFormat(flag string, input yml.OutputFormat, flip bool) (yml.OutputFormat, error) {
	switch yml.OutputFormat(flag) {
	case yml.OutputFormatJSON, yml.OutputFormatYAML:
		return yml.OutputFormat(flag), nil
	case "":
		if !flip {
			return input, nil
		}
		if input == yml.OutputFormatJSON {
			return yml.OutputFormatYAML, nil
		}
		return yml.OutputFormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q: expected json or yaml", flag)
	}
}
