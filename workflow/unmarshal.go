package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/speakeasy-api/serverlessworkflow/discriminator"
	"github.com/speakeasy-api/serverlessworkflow/json"
	"github.com/speakeasy-api/serverlessworkflow/marshaller"
	"github.com/speakeasy-api/serverlessworkflow/references"
	"github.com/speakeasy-api/serverlessworkflow/yml"
	"gopkg.in/yaml.v3"
)

type Option[T any] func(o *T)

// UnmarshalOptions collects the options of Unmarshal. It is populated through Option values.
type UnmarshalOptions struct {
	skipExternalDefinitions bool
	resolve                 ResolveOptions
	cache                   *discriminator.Cache
}

// WithSkipExternalDefinitions leaves resource pointers that hold a URI unresolved.
// Useful to inspect or convert a document without fetching anything.
func WithSkipExternalDefinitions() Option[UnmarshalOptions] {
	return func(o *UnmarshalOptions) {
		o.skipExternalDefinitions = true
	}
}

// WithResolveOptions configures how external definitions are located and fetched.
func WithResolveOptions(opts ResolveOptions) Option[UnmarshalOptions] {
	return func(o *UnmarshalOptions) {
		o.resolve = opts
	}
}

// WithBindingCache decodes discriminated types through cache instead of discriminator.DefaultCache().
func WithBindingCache(cache *discriminator.Cache) Option[UnmarshalOptions] {
	return func(o *UnmarshalOptions) {
		o.cache = cache
	}
}

// ResolveOptions configures LoadExternalDefinitions.
type ResolveOptions struct {
	// RelativeURIResolutionMode decides how relative definition URIs are turned into fetchable locations.
	RelativeURIResolutionMode references.RelativeURIResolutionMode
	// BaseURI is required when RelativeURIResolutionMode is references.ConvertToAbsolute.
	BaseURI string
	// BaseDirectory is used when RelativeURIResolutionMode is references.ConvertToRelativeFilePath.
	// Defaults to the working directory.
	BaseDirectory string
	// Fetcher retrieves definitions. A single default fetcher is shared by all slots when unset.
	Fetcher references.Fetcher
	// Logger receives a debug record per resolved slot. Defaults to discarding.
	Logger *slog.Logger
}

// Unmarshal decodes a workflow document from doc. JSON and YAML are told apart from the content.
// External definitions referenced by URI are loaded unless WithSkipExternalDefinitions is given.
func Unmarshal(ctx context.Context, doc io.Reader, opts ...Option[UnmarshalOptions]) (*WorkflowDefinition, error) {
	o := UnmarshalOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	data, err := io.ReadAll(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow document: %w", err)
	}

	root, _, err := yml.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workflow document: %w", err)
	}

	if o.cache != nil {
		ctx = discriminator.ContextWithCache(ctx, o.cache)
	}

	var wf WorkflowDefinition
	if err := marshaller.Unmarshal(ctx, root, &wf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow document: %w", err)
	}

	if o.skipExternalDefinitions {
		return &wf, nil
	}

	return LoadExternalDefinitions(ctx, &wf, o.resolve)
}

// Marshal encodes wf to w as JSON or YAML. An empty format uses the output format of the yml.Config
// carried by ctx. Indentation also comes from that config.
func Marshal(ctx context.Context, wf *WorkflowDefinition, w io.Writer, format yml.OutputFormat) error {
	if wf == nil {
		return fmt.Errorf("workflow is required")
	}

	node, err := marshaller.Marshal(ctx, wf)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow: %w", err)
	}

	cfg := yml.GetConfigFromContext(ctx)
	if format == "" {
		format = cfg.OutputFormat
	}

	switch format {
	case yml.OutputFormatJSON:
		return json.YAMLToJSON(node, cfg.Indentation, w)
	case yml.OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(cfg.Indentation)
		if err := enc.Encode(node); err != nil {
			return fmt.Errorf("failed to write yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
