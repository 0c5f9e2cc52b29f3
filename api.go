package refgraph

import (
	"context"
	"os"
)

// Parse reads and parses the document at src (a filesystem path, file:
// URL, or http(s) URL) without following any $ref it contains. This is
// spec.md §4.3 in isolation: resolve one URL, parse its bytes, return the
// value tree.
func Parse(src string, opts *Options) (any, error) {
	opts = withDefaults(opts)
	rootLoc, err := rootLocation(src, opts)
	if err != nil {
		return nil, err
	}
	resolvers := newResolverRegistry(opts.Resolve)
	parsers := newParserRegistry(opts.Parse)

	ctx := context.Background()
	fd := FileDescriptor{URL: rootLoc, Extension: rootLoc.Extension()}
	data, err := resolvers.Read(ctx, fd)
	if err != nil {
		return nil, err
	}
	fd.Data = data
	return parsers.Parse(fd)
}

// CatalogHandle exposes the read-only surface of a completed crawl: every
// document the Crawler discovered, and the Catalog's circular-reference
// bookkeeping. Only the Dereferencer writes that bookkeeping, and
// Dereference crawls into a Catalog of its own, so on a handle returned by
// Resolve it stays empty.
type CatalogHandle struct {
	catalog *Catalog
	root    *Location
}

// Root returns the canonical URL of the document Resolve was called with.
func (h *CatalogHandle) Root() string { return h.catalog.rootKey }

// Paths returns every canonical URL discovered, optionally restricted by
// filter.
func (h *CatalogHandle) Paths(filter func(string) bool) []string { return h.catalog.Paths(filter) }

// Values returns a snapshot of every resolved document's parsed value,
// keyed by canonical URL (SPEC_FULL.md supplemented feature 1).
func (h *CatalogHandle) Values(filter func(string) bool) map[string]any {
	return h.catalog.Values(filter)
}

// Get returns the parsed value stored for a canonical URL.
func (h *CatalogHandle) Get(key string) (any, bool) { return h.catalog.Get(key) }

// Exists reports whether a canonical URL was discovered during the crawl.
func (h *CatalogHandle) Exists(key string) bool { return h.catalog.Exists(key) }

// Entries returns a snapshot of every document's lifecycle state, for
// diagnostics (SPEC_FULL.md supplemented feature 3).
func (h *CatalogHandle) Entries() map[string]DocumentEntry { return h.catalog.Entries() }

// Circular reports whether a circular $ref has been recorded in this
// handle's Catalog. Resolve records none and Dereference does not write to
// a handle's Catalog, so for a handle returned by Resolve this is false.
func (h *CatalogHandle) Circular() bool { return h.catalog.Circular() }

// CircularRefs lists the pointer strings recorded for each circular $ref in
// this handle's Catalog; it is empty for a handle returned by Resolve.
func (h *CatalogHandle) CircularRefs() []string { return h.catalog.CircularRefs() }

// Resolve reads src, crawls every document transitively reachable from it
// through $ref, and returns a handle onto the resulting Document Catalog
// without dereferencing or bundling (spec.md §4.6).
func Resolve(src string, opts *Options) (*CatalogHandle, error) {
	opts = withDefaults(opts)
	catalog, rootLoc, _, err := crawl(src, opts)
	if err != nil {
		return nil, err
	}
	return &CatalogHandle{catalog: catalog, root: rootLoc}, nil
}

// Dereference reads src, crawls its $ref graph to fixpoint, and returns the
// document with every $ref replaced by the value it points to (spec.md
// §4.7).
func Dereference(src string, opts *Options) (any, error) {
	opts = withDefaults(opts)
	catalog, rootLoc, rootValue, err := crawl(src, opts)
	if err != nil {
		return nil, err
	}
	d := newDereferencer(catalog, opts)
	return d.Dereference(rootLoc, rootValue)
}

// Bundle reads src, crawls its $ref graph to fixpoint, and returns the
// document with every external $ref target inlined once under
// BundleOptions.DefinitionsPointer and rewritten to a local pointer
// (spec.md §4.8).
func Bundle(src string, opts *Options) (any, error) {
	opts = withDefaults(opts)
	catalog, rootLoc, rootValue, err := crawl(src, opts)
	if err != nil {
		return nil, err
	}
	b := newBundler(catalog, opts, rootLoc.CanonicalKey())
	return b.Bundle(rootLoc, rootValue)
}

func withDefaults(opts *Options) *Options {
	if opts == nil {
		return DefaultOptions()
	}
	return opts
}

// rootLocation resolves src against the configured (or process) working
// directory, producing the absolute Location the Crawler seeds with.
func rootLocation(src string, opts *Options) (*Location, error) {
	base := opts.RelativeBase
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		base = wd
	}
	cwd, err := NewCWD(base)
	if err != nil {
		return nil, err
	}
	return NewLocation(src, cwd)
}

// crawl resolves src, fetches and parses it, walks its $ref graph to
// fixpoint via the Crawler, and returns the populated Catalog alongside the
// root Location and its own parsed value.
func crawl(src string, opts *Options) (*Catalog, *Location, any, error) {
	rootLoc, err := rootLocation(src, opts)
	if err != nil {
		return nil, nil, nil, err
	}

	catalog := newCatalog()
	cr := newCrawler(catalog, opts)
	rootValue, err := cr.fetchAndParse(context.Background(), rootLoc)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cr.crawl(context.Background(), rootLoc, rootValue); err != nil && !opts.ContinueOnError {
		return nil, nil, nil, err
	}
	return catalog, rootLoc, rootValue, nil
}
