package refgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCWD(t *testing.T) *Location {
	t.Helper()
	cwd, err := NewCWD(".")
	require.NoError(t, err)
	return cwd
}

func TestCrawlDiscoversTransitiveDocuments(t *testing.T) {
	cwd := testCWD(t)
	rootLoc, err := NewLocation("testdata/circular_a.yaml", cwd)
	require.NoError(t, err)

	opts := DefaultOptions()
	catalog := newCatalog()
	cr := newCrawler(catalog, opts)

	rootValue, err := cr.fetchAndParse(context.Background(), rootLoc)
	require.NoError(t, err)

	require.NoError(t, cr.crawl(context.Background(), rootLoc, rootValue))

	bLoc, err := NewLocation("testdata/circular_b.yaml", cwd)
	require.NoError(t, err)
	assert.True(t, catalog.Exists(bLoc.CanonicalKey()))
}

func TestDiscoverIgnoresInternalFragment(t *testing.T) {
	cwd := testCWD(t)
	rootLoc, err := NewLocation("testdata/simple.json", cwd)
	require.NoError(t, err)

	catalog := newCatalog()
	cr := newCrawler(catalog, DefaultOptions())
	catalog.entries[rootLoc.CanonicalKey()] = &DocumentEntry{URL: rootLoc, Status: StatusResolved}

	before := len(catalog.Entries())
	cr.discover(context.Background(), nil, rootLoc, "#/properties/name")
	assert.Equal(t, before, len(catalog.Entries()))
}
