package refgraph

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// crawler walks a parsed document tree, discovering $ref strings and
// scheduling reads for any URL not already in the Catalog (spec.md §4.6).
// Outstanding reads for distinct URLs fan out concurrently via errgroup;
// singleflight collapses concurrent discoveries of the same URL into one
// in-flight read, matching the "exactly-one rule" in spec.md §5.
type crawler struct {
	catalog   *Catalog
	resolvers *resolverRegistry
	parsers   *parserRegistry
	opts      *Options
	group     singleflight.Group
}

func newCrawler(catalog *Catalog, opts *Options) *crawler {
	return &crawler{
		catalog:   catalog,
		resolvers: newResolverRegistry(opts.Resolve),
		parsers:   newParserRegistry(opts.Parse),
		opts:      opts,
	}
}

// crawl seeds the catalog with the root document (already resolved) and
// walks to fixpoint.
func (cr *crawler) crawl(ctx context.Context, rootLoc *Location, rootValue any) error {
	rootKey := rootLoc.CanonicalKey()
	cr.catalog.mu.Lock()
	cr.catalog.entries[rootKey] = &DocumentEntry{
		URL: rootLoc, PathType: rootLoc.PathType(), Value: rootValue, Status: StatusResolved,
	}
	cr.catalog.rootKey = rootKey
	cr.catalog.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	cr.walkDocument(gctx, g, rootLoc, rootValue)
	return g.Wait()
}

// walkDocument performs the document-order DFS over v, whose nodes are
// addressed relative to docLoc (the document containing v). Sibling keys
// next to a $ref are never visited, per spec.md §4.6.
func (cr *crawler) walkDocument(ctx context.Context, g *errgroup.Group, docLoc *Location, v any) {
	Walk(v, func(_ string, node any) bool {
		refStr, isRef := asRefNode(node)
		if !isRef {
			return true
		}
		cr.discover(ctx, g, docLoc, refStr)
		return false
	})
}

// discover resolves refStr against docLoc, splits it into a target
// document URL and pointer, and — if the target document is not already
// in the catalog — schedules a read-and-parse for it. Each canonical URL
// is scheduled at most once; later discoveries of the same URL observe
// the same in-flight (or completed) fetch via singleflight.
func (cr *crawler) discover(ctx context.Context, g *errgroup.Group, docLoc *Location, refStr string) {
	target, err := NewLocation(refStr, docLoc)
	if err != nil {
		debugLog("discover: invalid ref %q against %s: %v", refStr, docLoc.String(), err)
		return
	}
	key := target.CanonicalKey()
	if key == "" || key == docLoc.CanonicalKey() {
		return // internal-only ref: no new document to fetch
	}
	if !cr.opts.Resolve.External && key != cr.catalog.rootKey {
		// External crawling disabled: the Bundler's internal-hoist mode
		// only needs the root document itself (SPEC_FULL.md supplemented
		// feature 4).
		return
	}

	if _, existed := cr.catalog.entry(target); existed {
		return
	}

	g.Go(func() error {
		_, err, _ := cr.group.Do(key, func() (any, error) {
			value, ferr := cr.fetchAndParse(ctx, target)
			if ferr != nil {
				cr.catalog.resolveEntry(key, nil, ferr)
				if cr.opts.ContinueOnError {
					return nil, nil
				}
				return nil, ferr
			}
			cr.catalog.resolveEntry(key, value, nil)
			cr.walkDocument(ctx, g, target, value)
			return value, nil
		})
		return err
	})
}

func (cr *crawler) fetchAndParse(ctx context.Context, loc *Location) (any, error) {
	fd := FileDescriptor{URL: loc, Extension: loc.Extension()}
	data, err := cr.resolvers.Read(ctx, fd)
	if err != nil {
		return nil, err
	}
	fd.Data = data
	return cr.parsers.Parse(fd)
}
