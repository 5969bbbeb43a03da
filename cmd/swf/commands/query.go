package commands

import (
	"bytes"
	"fmt"

	"github.com/speakeasy-api/serverlessworkflow/json"
	"github.com/speakeasy-api/serverlessworkflow/query"
	"github.com/speakeasy-api/serverlessworkflow/workflow"
	"github.com/spf13/cobra"
)

var (
	queryLegacyFlag  bool
	queryResolveFlag bool
	queryResolve     resolveFlags
)

var queryCmd = &cobra.Command{
	Use:   "query <file> <jsonpath>",
	Short: "Evaluate a JSONPath expression against a workflow document",
	Long: `Decode a Serverless Workflow document and evaluate a JSONPath expression
against its canonical form. Each match is printed as JSON on its own line.

Expressions follow RFC 9535 unless --legacy selects the yaml-jsonpath dialect.
With --resolve, external definitions are loaded before the expression runs.`,
	Args: cobra.ExactArgs(2),
	RunE: runQuery,
	Example: `  # List the names of all sleep states
  swf query workflow.yaml "$.states[?@.type == 'sleep'].name"

  # Inspect functions loaded from their external file
  swf query workflow.json "$.functions[*].operation" --resolve`,
}

func init() {
	queryCmd.Flags().BoolVar(&queryLegacyFlag, "legacy", false, "Use the legacy yaml-jsonpath dialect")
	queryCmd.Flags().BoolVar(&queryResolveFlag, "resolve", false, "Load external definitions before querying")
	queryResolve.register(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	file, expr := args[0], args[1]

	data, err := readInput(cmd, file)
	if err != nil {
		return err
	}

	opts := []workflow.Option[workflow.UnmarshalOptions]{}
	if queryResolveFlag {
		resolveOpts, err := queryResolve.options(file, newLogger(cmd))
		if err != nil {
			return err
		}
		opts = append(opts, workflow.WithResolveOptions(resolveOpts))
	} else {
		opts = append(opts, workflow.WithSkipExternalDefinitions())
	}

	wf, err := workflow.Unmarshal(ctx, bytes.NewReader(data), opts...)
	if err != nil {
		return err
	}

	engine := query.EngineRFC9535
	if queryLegacyFlag {
		engine = query.EngineLegacy
	}

	nodes, err := query.RunWorkflow(ctx, wf, expr, engine)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, node := range nodes {
		var buf bytes.Buffer
		if err := json.YAMLToJSON(node, 0, &buf); err != nil {
			return fmt.Errorf("failed to encode match: %w", err)
		}
		if _, err := out.Write(buf.Bytes()); err != nil {
			return err
		}
	}

	return nil
}
