package refgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundleInlinesExternalTargetsOnce(t *testing.T) {
	catalog, rootLoc, rootValue := crawlFixture(t, "testdata/bundle_root.yaml")

	b := newBundler(catalog, DefaultOptions(), rootLoc.CanonicalKey())
	out, err := b.Bundle(rootLoc, rootValue)
	require.NoError(t, err)

	outObj := out.(Object)
	defs, ok := outObj.Get("definitions")
	require.True(t, ok)
	defsObj := defs.(Object)

	// pet (referenced directly, and again transitively through owner)
	// appears exactly once.
	var petCount int
	for pair := defsObj.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == "pet" {
			petCount++
		}
	}
	assert.Equal(t, 1, petCount)

	// The inlined body stored under definitions/pet is the real target,
	// not another $ref node.
	petBody, _ := defsObj.Get("pet")
	_, isRef := asRefNode(petBody)
	assert.False(t, isRef)

	// The root's own top-level "pet" key, which was itself a $ref, is
	// rewritten to point at the local definitions entry.
	rootPet, _ := outObj.Get("pet")
	refStr, isRef := asRefNode(rootPet)
	require.True(t, isRef)
	assert.Equal(t, "#/definitions/pet", refStr)
}

func TestBundleRewritesNestedRefToLocalPointer(t *testing.T) {
	catalog, rootLoc, rootValue := crawlFixture(t, "testdata/bundle_root.yaml")

	b := newBundler(catalog, DefaultOptions(), rootLoc.CanonicalKey())
	out, err := b.Bundle(rootLoc, rootValue)
	require.NoError(t, err)

	outObj := out.(Object)
	defs, _ := outObj.Get("definitions")
	owner, _ := defs.(Object).Get("owner")
	props, _ := owner.(Object).Get("properties")
	pet, _ := props.(Object).Get("pet")

	refStr, isRef := asRefNode(pet)
	require.True(t, isRef)
	assert.Equal(t, "#/definitions/pet", refStr)
}

func TestNameForDisambiguatesCollisions(t *testing.T) {
	catalog, rootLoc, _ := crawlFixture(t, "testdata/bundle_root.yaml")
	b := newBundler(catalog, DefaultOptions(), rootLoc.CanonicalKey())

	cwd := testCWD(t)
	petA, err := NewLocation("testdata/bundle_pet.yaml#/definitions/pet", cwd)
	require.NoError(t, err)
	otherPetLoc, err := NewLocation("testdata/bundle_owner.yaml#/definitions/pet", cwd)
	require.NoError(t, err)

	first := b.nameFor(petA)
	second := b.nameFor(otherPetLoc)
	assert.NotEqual(t, first, second)
}
