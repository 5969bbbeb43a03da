package references

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/speakeasy-api/serverlessworkflow/errors"
	"github.com/speakeasy-api/serverlessworkflow/internal/utils"
	"github.com/speakeasy-api/serverlessworkflow/jsonpointer"
	"github.com/speakeasy-api/serverlessworkflow/yml"
	"gopkg.in/yaml.v3"
)

// RelativeURIResolutionMode governs how a relative reference is turned into a fetchable location.
type RelativeURIResolutionMode int

const (
	// ConvertToRelativeFilePath joins relative references onto BaseDirectory (or the working directory).
	ConvertToRelativeFilePath RelativeURIResolutionMode = iota
	// ConvertToAbsolute resolves relative references against BaseURI, which must be set.
	ConvertToAbsolute
	// Reject fails on any relative reference.
	Reject
)

func (m RelativeURIResolutionMode) String() string {
	switch m {
	case ConvertToRelativeFilePath:
		return "ConvertToRelativeFilePath"
	case ConvertToAbsolute:
		return "ConvertToAbsolute"
	case Reject:
		return "Reject"
	default:
		return fmt.Sprintf("RelativeURIResolutionMode(%d)", int(m))
	}
}

// ResolveOptions represent the options available when resolving a reference.
type ResolveOptions struct {
	// Mode decides how relative references are handled.
	Mode RelativeURIResolutionMode
	// BaseURI is the absolute location relative references are resolved against in ConvertToAbsolute mode.
	BaseURI string
	// BaseDirectory is the directory relative references are joined onto in ConvertToRelativeFilePath mode.
	// Defaults to the working directory.
	BaseDirectory string
	// Fetcher retrieves documents. Defaults to a DefaultFetcher over the operating system and http.DefaultClient.
	Fetcher Fetcher
	// Logger receives a debug record per fetch. Defaults to discarding.
	Logger *slog.Logger
}

func (o ResolveOptions) fetcher() Fetcher {
	if o.Fetcher != nil {
		return o.Fetcher
	}
	return NewFetcher(nil, nil)
}

func (o ResolveOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// AbsoluteReferenceResult contains the result of resolving an absolute reference
type AbsoluteReferenceResult struct {
	// AbsoluteReference is the resolved absolute reference string, without any fragment.
	AbsoluteReference string
	// Classification contains the reference type classification
	Classification *utils.ReferenceClassification
}

// ResolveAbsoluteReference turns the document part of ref into an absolute location according to opts.Mode.
// Absolute URLs and absolute file paths are used as-is in every mode.
func ResolveAbsoluteReference(ref Reference, opts ResolveOptions) (*AbsoluteReferenceResult, error) {
	return globalRefCache.Resolve(ref, opts)
}

func resolveAbsoluteReferenceUncached(ref Reference, opts ResolveOptions) (*AbsoluteReferenceResult, error) {
	uri := ref.GetURI()
	if uri == "" {
		return nil, fmt.Errorf("reference %q has no document location", ref.String())
	}

	classification, err := utils.ClassifyReference(uri)
	if err != nil {
		return nil, err
	}

	if classification.Absolute {
		return &AbsoluteReferenceResult{AbsoluteReference: uri, Classification: classification}, nil
	}

	var absRef string
	switch opts.Mode {
	case ConvertToAbsolute:
		if opts.BaseURI == "" {
			return nil, &errors.RelativeURINotSupportedError{URI: uri, Reason: "no base uri configured for ConvertToAbsolute"}
		}
		base, err := utils.ClassifyReference(opts.BaseURI)
		if err != nil {
			return nil, fmt.Errorf("invalid base uri: %w", err)
		}
		if !base.Absolute {
			return nil, &errors.RelativeURINotSupportedError{URI: uri, Reason: fmt.Sprintf("base uri %q is not absolute", opts.BaseURI)}
		}
		absRef, err = base.JoinWith(uri)
		if err != nil {
			return nil, err
		}
	case ConvertToRelativeFilePath:
		dir := opts.BaseDirectory
		if dir == "" {
			if dir, err = os.Getwd(); err != nil {
				return nil, err
			}
		}
		absRef = filepath.ToSlash(filepath.Join(dir, filepath.FromSlash(uri)))
	case Reject:
		return nil, &errors.RelativeURINotSupportedError{URI: uri, Reason: "relative uris are rejected"}
	default:
		return nil, fmt.Errorf("unknown relative uri resolution mode %s", opts.Mode)
	}

	absClassification, err := utils.ClassifyReference(absRef)
	if err != nil {
		return nil, err
	}

	return &AbsoluteReferenceResult{AbsoluteReference: absRef, Classification: absClassification}, nil
}

// ResolveResult contains the result of a reference resolution operation
type ResolveResult struct {
	// Node is the normalized target of the reference: the whole document or the part selected by its fragment.
	Node *yaml.Node
	// AbsoluteReference is the absolute location that was fetched.
	AbsoluteReference string
	// Format is the detected format of the fetched document.
	Format yml.OutputFormat
	// Size is the number of bytes fetched.
	Size int
}

// Resolve resolves ref to an absolute location, fetches it and parses it into a normalized node tree.
// If ref carries a JSON pointer fragment, the node it selects is returned.
func Resolve(ctx context.Context, ref Reference, opts ResolveOptions) (*ResolveResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs, err := ResolveAbsoluteReference(ref, opts)
	if err != nil {
		return nil, err
	}

	data, err := opts.fetcher().Fetch(ctx, abs.AbsoluteReference)
	if err != nil {
		return nil, err
	}
	opts.logger().DebugContext(ctx, "fetched reference", slog.String("uri", abs.AbsoluteReference), slog.Int("bytes", len(data)))

	node, format, err := yml.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", abs.AbsoluteReference, err)
	}

	if jp := ref.GetJSONPointer(); jp != "" {
		node, err = jsonpointer.GetNode(node, jp)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", ref.String(), err)
		}
	}

	return &ResolveResult{
		Node:              node,
		AbsoluteReference: abs.AbsoluteReference,
		Format:            format,
		Size:              len(data),
	}, nil
}
