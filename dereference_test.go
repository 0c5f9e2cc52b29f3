package refgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crawlFixture(t *testing.T, name string) (*Catalog, *Location, any) {
	t.Helper()
	cwd := testCWD(t)
	rootLoc, err := NewLocation(name, cwd)
	require.NoError(t, err)

	opts := DefaultOptions()
	catalog := newCatalog()
	cr := newCrawler(catalog, opts)
	rootValue, err := cr.fetchAndParse(context.Background(), rootLoc)
	require.NoError(t, err)
	require.NoError(t, cr.crawl(context.Background(), rootLoc, rootValue))
	return catalog, rootLoc, rootValue
}

func TestDereferenceCircularShare(t *testing.T) {
	catalog, rootLoc, rootValue := crawlFixture(t, "testdata/circular_a.yaml")

	opts := DefaultOptions()
	d := newDereferencer(catalog, opts)
	out, err := d.Dereference(rootLoc, rootValue)
	require.NoError(t, err)

	outObj := out.(Object)
	defs, _ := outObj.Get("definitions")
	node, _ := defs.(Object).Get("node")
	props, _ := node.(Object).Get("properties")
	next, _ := props.(Object).Get("next")

	// next is replaced by circular_b's node (which carries its own
	// properties), and the chain back into circular_a is recorded as
	// circular.
	nextProps, _ := next.(Object).Get("properties")
	assert.NotNil(t, nextProps)
	assert.True(t, catalog.Circular())
}

func TestDereferenceCircularReject(t *testing.T) {
	catalog, rootLoc, rootValue := crawlFixture(t, "testdata/circular_a.yaml")

	opts := DefaultOptions()
	opts.Dereference.Circular = CircularReject
	d := newDereferencer(catalog, opts)
	_, err := d.Dereference(rootLoc, rootValue)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircularRef)
}

func TestDereferenceSharedIdentity(t *testing.T) {
	catalog, rootLoc, rootValue := crawlFixture(t, "testdata/shared_root.yaml")

	d := newDereferencer(catalog, DefaultOptions())
	out, err := d.Dereference(rootLoc, rootValue)
	require.NoError(t, err)

	outObj := out.(Object)
	defs, _ := outObj.Get("definitions")
	person, _ := defs.(Object).Get("person")
	props, _ := person.(Object).Get("properties")
	home, _ := props.(Object).Get("home")
	work, _ := props.(Object).Get("work")

	// Both $refs point at the same target; the dereferenced nodes must be
	// the same Go value (reference equality), not merely deep-equal.
	assert.Same(t, home.(Object), work.(Object))
}
