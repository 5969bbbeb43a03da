package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/speakeasy-api/serverlessworkflow/errors"
	"github.com/speakeasy-api/serverlessworkflow/marshaller"
	"github.com/speakeasy-api/serverlessworkflow/references"
	"github.com/speakeasy-api/serverlessworkflow/values"
	"github.com/speakeasy-api/serverlessworkflow/yml"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Names of the workflow properties that may hold a URI to an external definition.
const (
	SlotEvents          = "events"
	SlotFunctions       = "functions"
	SlotRetries         = "retries"
	SlotConstants       = "constants"
	SlotSecrets         = "secrets"
	SlotAuth            = "auth"
	SlotDataInputSchema = "dataInputSchema"
)

// LoadExternalDefinitions returns a copy of wf in which every definition held as a URI has been
// fetched and decoded in place of the URI. Definitions already held inline are left untouched,
// so calling it again on its own result fetches nothing.
//
// All pending definitions are fetched concurrently. Any failure is returned as an
// errors.ExternalResourceFetchError naming the slot, and no partially loaded workflow is returned.
// wf itself is never modified.
func LoadExternalDefinitions(ctx context.Context, wf *WorkflowDefinition, opts ResolveOptions) (*WorkflowDefinition, error) {
	if wf == nil {
		return nil, errors.New("workflow is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := newExternalResolver(opts)
	out := *wf

	g, gctx := errgroup.WithContext(ctx)

	if uri, ok := pendingURI(wf.Events); ok {
		g.Go(func() error {
			v, err := resolveList[EventDefinition](gctx, r, SlotEvents, uri)
			out.Events = v
			return err
		})
	}
	if uri, ok := pendingURI(wf.Functions); ok {
		g.Go(func() error {
			v, err := resolveList[FunctionDefinition](gctx, r, SlotFunctions, uri)
			out.Functions = v
			return err
		})
	}
	if uri, ok := pendingURI(wf.Retries); ok {
		g.Go(func() error {
			v, err := resolveList[RetryDefinition](gctx, r, SlotRetries, uri)
			out.Retries = v
			return err
		})
	}
	if uri, ok := pendingURI(wf.Secrets); ok {
		g.Go(func() error {
			v, err := resolveList[string](gctx, r, SlotSecrets, uri)
			out.Secrets = v
			return err
		})
	}
	if uri, ok := pendingURI(wf.Auth); ok {
		g.Go(func() error {
			v, err := resolveList[AuthenticationDefinition](gctx, r, SlotAuth, uri)
			out.Auth = v
			return err
		})
	}
	if uri, ok := pendingURI(wf.Constants); ok {
		g.Go(func() error {
			obj, err := r.resolveObject(gctx, SlotConstants, uri)
			if err != nil {
				return err
			}
			out.Constants = values.NewLeft[values.Object, string](obj)
			return nil
		})
	}
	if wf.DataInputSchema != nil {
		g.Go(func() error {
			v, err := r.resolveDataInputSchema(gctx, wf.DataInputSchema)
			out.DataInputSchema = v
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &out, nil
}

type externalResolver struct {
	opts   references.ResolveOptions
	logger *slog.Logger
}

func newExternalResolver(opts ResolveOptions) *externalResolver {
	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = references.NewFetcher(nil, nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &externalResolver{
		opts: references.ResolveOptions{
			Mode:          opts.RelativeURIResolutionMode,
			BaseURI:       opts.BaseURI,
			BaseDirectory: opts.BaseDirectory,
			Fetcher:       fetcher,
			Logger:        logger,
		},
		logger: logger,
	}
}

// fetch retrieves the document at uri and unwraps a top level object holding the slot's content
// under the slot's own name.
func (r *externalResolver) fetch(ctx context.Context, slot, uri string, want yaml.Kind) (*yaml.Node, error) {
	res, err := references.Resolve(ctx, references.Reference(uri), r.opts)
	if err != nil {
		return nil, &errors.ExternalResourceFetchError{Slot: slot, URI: uri, Cause: err}
	}
	r.logger.DebugContext(ctx, "loaded external definition",
		slog.String("slot", slot),
		slog.String("uri", res.AbsoluteReference),
		slog.Int("bytes", res.Size),
	)

	node := unwrapSlot(res.Node, slot, want)
	if node.Kind != want {
		return nil, &errors.ExternalResourceFetchError{
			Slot:  slot,
			URI:   uri,
			Cause: fmt.Errorf("expected %s, got %s", yml.NodeKindToString(want), yml.NodeKindToString(node.Kind)),
		}
	}

	return node, nil
}

func resolveList[T any](ctx context.Context, r *externalResolver, slot, uri string) (*values.OneOf[[]T, string], error) {
	node, err := r.fetch(ctx, slot, uri, yaml.SequenceNode)
	if err != nil {
		return nil, err
	}

	var items []T
	if err := marshaller.Unmarshal(ctx, node, &items); err != nil {
		return nil, &errors.ExternalResourceFetchError{Slot: slot, URI: uri, Cause: err}
	}
	if items == nil {
		items = []T{}
	}

	return values.NewLeft[[]T, string](items), nil
}

func (r *externalResolver) resolveObject(ctx context.Context, slot, uri string) (values.Object, error) {
	node, err := r.fetch(ctx, slot, uri, yaml.MappingNode)
	if err != nil {
		return values.Object{}, err
	}
	return values.NewObject(node), nil
}

// resolveDataInputSchema loads the schema of the data input schema slot, which may be a URI of the
// schema itself or a definition whose schema is a URI.
func (r *externalResolver) resolveDataInputSchema(ctx context.Context, slot *values.OneOf[DataInputSchemaDefinition, string]) (*values.OneOf[DataInputSchemaDefinition, string], error) {
	var def DataInputSchemaDefinition
	var uri string

	switch {
	case slot.IsLeft():
		def = slot.LeftValue()
		if !def.Schema.IsRight() || def.Schema.IsLeft() {
			return slot, nil
		}
		uri = def.Schema.RightValue()
	case slot.IsRight():
		uri = slot.RightValue()
	default:
		return slot, nil
	}

	schema, err := r.resolveObject(ctx, SlotDataInputSchema, uri)
	if err != nil {
		return nil, err
	}
	def.Schema = values.NewLeft[values.Object, string](schema)

	return values.NewLeft[DataInputSchemaDefinition, string](def), nil
}

func pendingURI[A any](slot *values.OneOf[A, string]) (string, bool) {
	if slot.IsLeft() || !slot.IsRight() {
		return "", false
	}
	return slot.RightValue(), true
}

func unwrapSlot(node *yaml.Node, slot string, want yaml.Kind) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return node
	}

	_, inner, ok := yml.GetMapElementNodes(node, slot)
	if !ok {
		return node
	}
	inner = yml.ResolveAlias(inner)

	switch want {
	case yaml.SequenceNode:
		if inner.Kind == yaml.SequenceNode {
			return inner
		}
	case yaml.MappingNode:
		// An object is only a wrapper when the slot is its sole property.
		if inner.Kind == yaml.MappingNode && len(node.Content) == 2 {
			return inner
		}
	}

	return node
}
