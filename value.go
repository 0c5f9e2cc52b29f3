package refgraph

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is an ordered string-keyed map: the engine's representation of a
// JSON/YAML mapping node. Order is preserved because the Bundler and the
// round-trip property (spec.md §8 property 6) depend on stable key order
// across parse/serialize cycles.
type Object = *orderedmap.OrderedMap[string, any]

// Array is the engine's representation of a JSON/YAML sequence node.
type Array = []any

// NewObject returns an empty, ordered mapping node.
func NewObject() Object {
	return orderedmap.New[string, any]()
}

// refKey is the JSON Reference key recognized throughout the engine.
const refKey = "$ref"

// asRefNode reports whether v is a mapping node carrying a string $ref
// key, returning that string. Per JSON Reference, a $ref key causes any
// sibling keys to be ignored, so callers that find a ref node should not
// also walk its other keys.
func asRefNode(v any) (string, bool) {
	obj, ok := v.(Object)
	if !ok {
		return "", false
	}
	raw, present := obj.Get(refKey)
	if !present {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

// cloneShallowObject copies the key order and top-level values of an
// Object without recursing into nested structures. Used by the Bundler
// to copy an internal $ref node it leaves untouched, sibling keys
// included, into the output tree as a fresh node.
func cloneShallowObject(obj Object) Object {
	out := NewObject()
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value)
	}
	return out
}

// walkFunc is invoked for every node in a value tree by Walk. Returning
// false from descend skips the node's children.
type walkFunc func(pointer string, v any) (descend bool)

// Walk performs a deterministic, document-order depth-first traversal of
// v, invoking fn at every node including v itself (at the empty pointer).
// It does not descend into the sibling keys of a $ref node, matching the
// Crawler's rule that such keys are inert (spec.md §4.6).
func Walk(v any, fn walkFunc) {
	walk("", v, fn)
}

func walk(pointer string, v any, fn walkFunc) {
	if !fn(pointer, v) {
		return
	}
	if _, isRef := asRefNode(v); isRef {
		return
	}
	switch t := v.(type) {
	case Object:
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			walk(pointer+"/"+escapeToken(pair.Key), pair.Value, fn)
		}
	case Array:
		for i, elem := range t {
			walk(pointer+"/"+itoa(i), elem, fn)
		}
	}
}
