// Package query evaluates JSONPath expressions against workflow documents.
package query

import (
	"context"
	"fmt"

	"github.com/speakeasy-api/jsonpath/pkg/jsonpath"
	"github.com/speakeasy-api/jsonpath/pkg/jsonpath/config"
	"github.com/speakeasy-api/serverlessworkflow/marshaller"
	"github.com/speakeasy-api/serverlessworkflow/workflow"
	"github.com/vmware-labs/yaml-jsonpath/pkg/yamlpath"
	"gopkg.in/yaml.v3"
)

// Engine selects the JSONPath implementation.
type Engine string

const (
	// EngineRFC9535 evaluates expressions per RFC 9535. It is the default.
	EngineRFC9535 Engine = "rfc9535"
	// EngineLegacy evaluates expressions with the yaml-jsonpath dialect.
	EngineLegacy Engine = "legacy"
)

// Queryable is an interface for querying YAML nodes using JSONPath expressions.
type Queryable interface {
	Query(root *yaml.Node) []*yaml.Node
}

type yamlPathQueryable struct {
	path *yamlpath.Path
}

func (y yamlPathQueryable) Query(root *yaml.Node) []*yaml.Node {
	if y.path == nil {
		return []*yaml.Node{}
	}
	// errors aren't actually possible from yamlpath.
	result, _ := y.path.Find(root)
	return result
}

type rfcJSONPathQueryable struct {
	path *jsonpath.JSONPath
}

func (r rfcJSONPathQueryable) Query(root *yaml.Node) []*yaml.Node {
	return r.path.Query(root)
}

// NewPath compiles expr for engine. An empty engine selects EngineRFC9535.
func NewPath(expr string, engine Engine) (Queryable, error) {
	switch engine {
	case "", EngineRFC9535:
		path, err := jsonpath.NewPath(expr, config.WithPropertyNameExtension())
		if err != nil {
			return nil, fmt.Errorf("invalid rfc9535 jsonpath %s: %w", expr, err)
		}
		return rfcJSONPathQueryable{path: path}, nil
	case EngineLegacy:
		path, err := yamlpath.NewPath(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid jsonpath %s: %w", expr, err)
		}
		return yamlPathQueryable{path: path}, nil
	default:
		return nil, fmt.Errorf("unknown jsonpath engine %q", engine)
	}
}

// Run evaluates expr against root and returns the matching nodes in document order.
func Run(root *yaml.Node, expr string, engine Engine) ([]*yaml.Node, error) {
	if root == nil {
		return nil, fmt.Errorf("document is required")
	}

	q, err := NewPath(expr, engine)
	if err != nil {
		return nil, err
	}

	if root.Kind != yaml.DocumentNode {
		root = &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}
	}

	return q.Query(root), nil
}

// RunWorkflow evaluates expr against the encoded form of wf, so discriminator values and
// resolved external definitions are visible to the expression.
func RunWorkflow(ctx context.Context, wf *workflow.WorkflowDefinition, expr string, engine Engine) ([]*yaml.Node, error) {
	node, err := marshaller.Marshal(ctx, wf)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal workflow: %w", err)
	}

	return Run(node, expr, engine)
}
