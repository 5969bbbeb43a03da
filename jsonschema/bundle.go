// Package jsonschema flattens JSON Schema documents that reference other documents into a single
// self-contained schema.
package jsonschema

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/speakeasy-api/serverlessworkflow/errors"
	"github.com/speakeasy-api/serverlessworkflow/internal/utils"
	"github.com/speakeasy-api/serverlessworkflow/references"
	"github.com/speakeasy-api/serverlessworkflow/sequencedmap"
	"github.com/speakeasy-api/serverlessworkflow/yml"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// BundledSuffix is appended to the root schema's id to form the id of its bundle.
const BundledSuffix = "(bundled)"

const defaultConcurrency = 8

// Schema is a JSON Schema document together with the location it was loaded from.
type Schema struct {
	// BaseURI is the location of the document. A $id on the document takes precedence.
	BaseURI string
	Node    *yaml.Node
}

// BundleOptions configures Bundle.
type BundleOptions struct {
	// Fetcher retrieves referenced documents. Defaults to the file system and http.DefaultClient.
	Fetcher references.Fetcher
	// Concurrency bounds the number of documents fetched at once. Defaults to 8.
	Concurrency int
	// Logger receives a debug record per fetched document. Defaults to discarding.
	Logger *slog.Logger
}

// BundledSchema is the result of Bundle.
type BundledSchema struct {
	// ID is the $id of the bundle: the root's id followed by BundledSuffix.
	ID string
	// Schema is the bundle document.
	Schema *yaml.Node
	// Definitions holds every collected document keyed by identifier, root first, in discovery order.
	Definitions *sequencedmap.Map[string, *yaml.Node]
	// External lists the identifiers of the documents that were referenced from outside themselves, in discovery order.
	External []string
	// Locations maps each identifier to the base URI it was collected from.
	Locations map[string]string
}

// Bundle walks the reference graph of root, fetches every externally referenced document once and
// returns a schema embedding all of them under $defs.
// The bundle's body is a $ref to the root's base URI, which resolves to the root's embedded copy.
// Any fetch or parse failure aborts the bundle with an UnresolvableReferenceError.
func Bundle(ctx context.Context, root *Schema, opts BundleOptions) (*BundledSchema, error) {
	if root == nil || yml.ResolveAlias(root.Node) == nil {
		return nil, errors.New("root schema is required")
	}
	rootNode := yml.ResolveAlias(root.Node)
	if rootNode.Kind == yaml.DocumentNode && len(rootNode.Content) > 0 {
		rootNode = yml.ResolveAlias(rootNode.Content[0])
	}
	if rootNode.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("root schema must be an object, got %s", yml.NodeKindToString(rootNode.Kind))
	}

	rootBase := nodeBase(rootNode, root.BaseURI)
	if rootBase == "" {
		return nil, errors.New("root schema has no base uri: set BaseURI or declare $id")
	}

	b := &bundler{
		fetcher:   opts.Fetcher,
		logger:    opts.Logger,
		limit:     opts.Concurrency,
		memo:      newDocumentMemo(),
		visited:   map[string]bool{},
		defs:      sequencedmap.New[string, *yaml.Node](),
		locations: map[string]string{},
	}
	if b.fetcher == nil {
		b.fetcher = references.NewFetcher(nil, nil)
	}
	if b.logger == nil {
		b.logger = slog.New(slog.DiscardHandler)
	}
	if b.limit <= 0 {
		b.limit = defaultConcurrency
	}

	b.memo.seed(rootBase, rootNode)

	if err := b.run(ctx, rootBase); err != nil {
		return nil, err
	}

	id := rootBase
	if _, idNode, ok := yml.GetMapElementNodes(rootNode, "$id"); ok && idNode.Kind == yaml.ScalarNode && idNode.Value != "" {
		id = idNode.Value
	}
	id += BundledSuffix

	defsNode := yml.CreateMapNode()
	for ident, doc := range b.defs.All() {
		defsNode.Content = append(defsNode.Content, yml.CreateStringNode(ident), doc)
	}

	return &BundledSchema{
		ID: id,
		Schema: yml.CreateMapNode(
			yml.CreateStringNode("$id"), yml.CreateStringNode(id),
			yml.CreateStringNode("$ref"), yml.CreateStringNode(rootBase),
			yml.CreateStringNode("$defs"), defsNode,
		),
		Definitions: b.defs,
		External:    b.external,
		Locations:   b.locations,
	}, nil
}

type bundler struct {
	fetcher references.Fetcher
	logger  *slog.Logger
	limit   int
	memo    *documentMemo

	// visited holds every base URI seen while walking, including nested $id bases.
	visited   map[string]bool
	defs      *sequencedmap.Map[string, *yaml.Node]
	locations map[string]string
	external  []string
}

// run processes the reference graph one frontier at a time. Documents within a frontier are
// fetched concurrently and then walked in discovery order so the output is deterministic.
func (b *bundler) run(ctx context.Context, rootBase string) error {
	frontier := []string{rootBase}
	queued := map[string]bool{rootBase: true}

	for len(frontier) > 0 {
		docs, err := b.fetchAll(ctx, frontier)
		if err != nil {
			return err
		}

		var next []string
		for i, uri := range frontier {
			if b.visited[uri] {
				continue
			}

			if err := b.register(uri, docs[i], uri != rootBase); err != nil {
				return err
			}

			for item := range Walk(docs[i], uri) {
				b.visited[item.BaseURI] = true

				ref, ok := item.Ref()
				if !ok {
					continue
				}

				target, err := utils.JoinReference(item.BaseURI, ref)
				if err != nil {
					return &errors.UnresolvableReferenceError{URI: ref, Cause: err}
				}
				target, _ = utils.SplitFragment(target)

				if target == "" || target == item.BaseURI || queued[target] {
					continue
				}
				queued[target] = true
				next = append(next, target)

				b.logger.Debug("found schema reference", slog.String("uri", target), slog.String("from", item.BaseURI), slog.String("at", string(item.Location.ToJSONPointer())))
			}
		}

		// A reference may target a base that only became known while walking a later document
		// of the same frontier.
		frontier = frontier[:0]
		for _, uri := range next {
			if !b.visited[uri] {
				frontier = append(frontier, uri)
			}
		}
	}

	return nil
}

func (b *bundler) fetchAll(ctx context.Context, uris []string) ([]*yaml.Node, error) {
	docs := make([]*yaml.Node, len(uris))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.limit)

	for i, uri := range uris {
		g.Go(func() error {
			doc, err := b.memo.load(gctx, uri, b.fetch)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return docs, nil
}

func (b *bundler) fetch(ctx context.Context, uri string) (*yaml.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := b.fetcher.Fetch(ctx, uri)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &errors.UnresolvableReferenceError{URI: uri, Cause: err}
	}
	b.logger.DebugContext(ctx, "fetched schema document", slog.String("uri", uri), slog.Int("bytes", len(data)))

	node, _, err := yml.Parse(data)
	if err != nil {
		return nil, &errors.UnresolvableReferenceError{URI: uri, Cause: err}
	}
	if node.Kind != yaml.MappingNode {
		return nil, &errors.UnresolvableReferenceError{URI: uri, Cause: fmt.Errorf("not a schema document: got %s", yml.NodeKindToString(node.Kind))}
	}

	return node, nil
}

func (b *bundler) register(uri string, doc *yaml.Node, external bool) error {
	ident := Identifier(uri)

	if existing, ok := b.locations[ident]; ok {
		if existing == uri {
			return nil
		}
		return &errors.SchemaIdentifierCollisionError{Identifier: ident, First: existing, Second: uri}
	}

	b.locations[ident] = uri
	b.defs.Set(ident, withID(doc, uri))
	if external {
		b.external = append(b.external, ident)
	}

	return nil
}

// Identifier derives the short local name of the document at uri: its final path segment without extension.
func Identifier(uri string) string {
	doc, _ := utils.SplitFragment(uri)

	p := doc
	if u, err := utils.ParseURLCached(doc); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		p = u.Path
		if p == "" {
			p = u.Host
		}
	}
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimSuffix(p, "/")

	base := path.Base(p)
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// withID returns a shallow copy of doc whose $id is uri. The input is never modified.
func withID(doc *yaml.Node, uri string) *yaml.Node {
	out := *doc
	out.Content = make([]*yaml.Node, 0, len(doc.Content)+2)
	out.Content = append(out.Content, yml.CreateStringNode("$id"), yml.CreateStringNode(uri))

	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value == "$id" {
			continue
		}
		out.Content = append(out.Content, doc.Content[i], doc.Content[i+1])
	}

	return &out
}

// documentMemo guarantees each document is fetched at most once, even under concurrent requests.
type documentMemo struct {
	mu      sync.Mutex
	entries map[string]*memoEntry
}

type memoEntry struct {
	done chan struct{}
	node *yaml.Node
	err  error
}

func newDocumentMemo() *documentMemo {
	return &documentMemo{entries: map[string]*memoEntry{}}
}

func (m *documentMemo) seed(uri string, node *yaml.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := &memoEntry{done: make(chan struct{}), node: node}
	close(entry.done)
	m.entries[uri] = entry
}

func (m *documentMemo) load(ctx context.Context, uri string, fetch func(context.Context, string) (*yaml.Node, error)) (*yaml.Node, error) {
	m.mu.Lock()
	entry, ok := m.entries[uri]
	if !ok {
		entry = &memoEntry{done: make(chan struct{})}
		m.entries[uri] = entry
	}
	m.mu.Unlock()

	if ok {
		select {
		case <-entry.done:
			return entry.node, entry.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	entry.node, entry.err = fetch(ctx, uri)
	close(entry.done)

	return entry.node, entry.err
}
