package refgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsRefNode(t *testing.T) {
	ref := NewObject()
	ref.Set(refKey, "#/a/b")
	s, ok := asRefNode(ref)
	assert.True(t, ok)
	assert.Equal(t, "#/a/b", s)

	plain := NewObject()
	plain.Set("a", 1)
	_, ok = asRefNode(plain)
	assert.False(t, ok)
}

func TestWalkSkipsRefSiblings(t *testing.T) {
	ref := NewObject()
	ref.Set(refKey, "#/a")
	ref.Set("description", "ignored")

	root := NewObject()
	root.Set("node", ref)
	root.Set("list", Array{1, 2})

	var visited []string
	Walk(root, func(pointer string, v any) bool {
		visited = append(visited, pointer)
		return true
	})

	assert.Contains(t, visited, "/node")
	assert.NotContains(t, visited, "/node/description")
	assert.Contains(t, visited, "/list/0")
}

func TestCloneShallowObject(t *testing.T) {
	orig := NewObject()
	orig.Set("a", 1)
	orig.Set("b", 2)

	clone := cloneShallowObject(orig)
	clone.Set("a", 99)

	v, _ := orig.Get("a")
	assert.Equal(t, 1, v)
	cv, _ := clone.Get("a")
	assert.Equal(t, 99, cv)
}
