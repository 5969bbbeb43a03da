package references

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"

	"github.com/speakeasy-api/serverlessworkflow/errors"
	"github.com/speakeasy-api/serverlessworkflow/internal/utils"
	"github.com/speakeasy-api/serverlessworkflow/system"
)

const (
	// ErrNotFound is returned when a file referenced by a document does not exist.
	ErrNotFound = errors.Error("not found")
	// ErrTimeout is returned when a fetch did not complete before its deadline.
	ErrTimeout = errors.Error("timeout")
	// ErrUnsupportedScheme is returned for URIs that are neither files nor http(s).
	ErrUnsupportedScheme = errors.Error("unsupported scheme")
)

// Fetcher retrieves the raw bytes of the document at an absolute uri.
// Implementations must honour ctx cancellation and must not retry.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, uri string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return f(ctx, uri)
}

// DefaultFetcher reads file locations from VirtualFS and everything else with an HTTP GET.
type DefaultFetcher struct {
	// VirtualFS is used for any file based location. Defaults to the operating system file system.
	VirtualFS system.VirtualFS
	// HTTPClient is used for any http(s) location. Defaults to http.DefaultClient.
	HTTPClient system.Client
}

var _ Fetcher = (*DefaultFetcher)(nil)

// NewFetcher returns a DefaultFetcher, filling nil seams with their defaults.
func NewFetcher(vfs system.VirtualFS, client system.Client) *DefaultFetcher {
	if vfs == nil {
		vfs = &system.FileSystem{}
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &DefaultFetcher{VirtualFS: vfs, HTTPClient: client}
}

func (f *DefaultFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, contextError(err)
	}

	classification, err := utils.ClassifyReference(uri)
	if err != nil {
		return nil, err
	}

	if classification.IsFile() {
		return f.fetchFile(uri, classification)
	}

	switch classification.Scheme {
	case "http", "https":
		return f.fetchHTTP(ctx, uri)
	default:
		return nil, ErrUnsupportedScheme.Wrap(fmt.Errorf("%s", uri))
	}
}

func (f *DefaultFetcher) fetchFile(uri string, classification *utils.ReferenceClassification) ([]byte, error) {
	vfs := f.VirtualFS
	if vfs == nil {
		vfs = &system.FileSystem{}
	}

	path := uri
	if classification.Scheme == "file" {
		u, err := utils.ParseURLCached(uri)
		if err != nil {
			return nil, err
		}
		path = u.Path
	}

	file, err := vfs.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound.Wrap(err)
		}
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

func (f *DefaultFetcher) fetchHTTP(ctx context.Context, uri string) ([]byte, error) {
	client := f.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, contextError(ctxErr)
		}
		return nil, &errors.TransportError{URI: uri, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &errors.TransportError{URI: uri, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, contextError(ctxErr)
		}
		return nil, &errors.TransportError{URI: uri, Cause: err}
	}

	return data, nil
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout.Wrap(err)
	}
	return err
}
