package refgraph

import (
	"path"
	"regexp"
	"strconv"
	"strings"
)

// jsonNameRx matches the characters a synthetic definitions key may keep;
// everything else is folded to "_" (see nameFor).
var jsonNameRx = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// bundler produces the self-contained tree described in spec.md §4.8: it
// inlines every external $ref target once, under a canonical location in
// the output tree, and rewrites the original $ref to a local pointer.
// Internal $refs (already pointing within the root document) are left
// untouched unless BundleOptions.ExternalOnly is false.
type bundler struct {
	catalog  *Catalog
	opts     *Options
	rootKey  string
	defs     Object               // flat name -> inlined value, in insertion order
	inserted map[frameKey]string // frame -> local pointer, e.g. "#/definitions/Pet"
	names    map[string]int      // base name -> next disambiguating suffix
}

func newBundler(catalog *Catalog, opts *Options, rootKey string) *bundler {
	return &bundler{
		catalog:  catalog,
		opts:     opts,
		rootKey:  rootKey,
		defs:     NewObject(),
		inserted: make(map[frameKey]string),
		names:    make(map[string]int),
	}
}

// Bundle transforms rootValue (the root document's own value) into the
// bundled output tree, grafting every inlined external definition under
// BundleOptions.DefinitionsPointer before returning.
func (b *bundler) Bundle(rootLoc *Location, rootValue any) (any, error) {
	out, err := b.transform(rootLoc, rootValue)
	if err != nil {
		return nil, err
	}
	if b.defs.Len() == 0 {
		return out, nil
	}
	outObj, ok := out.(Object)
	if !ok {
		// The root document's own value isn't a mapping node (a bare
		// scalar or array root): there is nowhere to graft a definitions
		// container, so external refs remain unbundled at the root.
		return out, nil
	}
	container := ensurePath(outObj, b.opts.Bundle.DefinitionsPointer)
	for pair := b.defs.Oldest(); pair != nil; pair = pair.Next() {
		container.Set(pair.Key, pair.Value)
	}
	return outObj, nil
}

// transform walks value (living in docLoc's document) in document order,
// rewriting external $refs to local pointers and inlining their targets.
// It never expands a $ref in place: every target is inlined exactly once,
// at first discovery (spec.md §4.8: "one body per target URL").
func (b *bundler) transform(docLoc *Location, value any) (any, error) {
	if obj, ok := value.(Object); ok {
		if refStr, isRef := asRefNode(obj); isRef {
			return b.transformRef(docLoc, obj, refStr)
		}
		out := NewObject()
		for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
			v, err := b.transform(docLoc, pair.Value)
			if err != nil {
				return nil, err
			}
			out.Set(pair.Key, v)
		}
		return out, nil
	}
	if arr, ok := value.(Array); ok {
		out := make(Array, len(arr))
		for i, elem := range arr {
			v, err := b.transform(docLoc, elem)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	return value, nil
}

func (b *bundler) transformRef(docLoc *Location, node Object, refStr string) (any, error) {
	target, err := NewLocation(refStr, docLoc)
	if err != nil {
		return nil, err
	}
	key := frameKey{url: target.CanonicalKey(), pointer: target.Pointer()}

	isExternal := key.url != b.rootKey
	if !isExternal && b.opts.Bundle.ExternalOnly {
		// Left untouched, but still a fresh node: the bundled tree must
		// not share storage with the Catalog's own copy (spec.md §3
		// Ownership: "bundled output is a fresh tree").
		return cloneShallowObject(node), nil
	}

	if localPtr, ok := b.inserted[key]; ok {
		return refNode(localPtr), nil
	}

	name := b.nameFor(target)
	localPtr := "#/" + strings.Join(append(append([]string{}, b.opts.Bundle.DefinitionsPointer...), name), "/")
	// Reserve the local pointer before recursing into the target so a
	// pre-existing circular chain in the source graph terminates here
	// instead of re-inlining the same body (spec.md §4.8: "circular
	// chains remain as $ref").
	b.inserted[key] = localPtr

	targetVal, err := b.catalog.Resolve(target)
	if err != nil {
		return nil, err
	}
	transformed, err := b.transform(target, targetVal)
	if err != nil {
		return nil, err
	}
	b.defs.Set(name, transformed)

	return refNode(localPtr), nil
}

// nameFor derives a stable, JSON-safe, unique key for target under the
// definitions container: the last token of the target's JSON Pointer, or,
// for a whole-document target, the file name without its extension (the
// host when the path has none), disambiguated with a numeric suffix on
// collision.
func (b *bundler) nameFor(target *Location) string {
	base := path.Base(strings.TrimSuffix(target.GetURL().Path, path.Ext(target.GetURL().Path)))
	if ptr := target.Pointer(); ptr != "" {
		segs := strings.Split(strings.Trim(ptr, "/"), "/")
		if last := segs[len(segs)-1]; last != "" {
			base = last
		}
	}
	if base == "" || base == "." || base == "/" {
		base = target.GetURL().Host
	}
	if base == "" {
		base = "external"
	}
	base = jsonNameRx.ReplaceAllString(base, "_")

	n := b.names[base]
	b.names[base] = n + 1
	if n == 0 {
		return base
	}
	return base + strconv.Itoa(n)
}

func refNode(localPointer string) Object {
	out := NewObject()
	out.Set(refKey, localPointer)
	return out
}

// ensurePath walks (creating as needed) a chain of nested Objects under
// root, returning the innermost container.
func ensurePath(root Object, segments []string) Object {
	cur := root
	for _, seg := range segments {
		existing, ok := cur.Get(seg)
		if ok {
			if obj, ok := existing.(Object); ok {
				cur = obj
				continue
			}
		}
		next := NewObject()
		cur.Set(seg, next)
		cur = next
	}
	return cur
}
