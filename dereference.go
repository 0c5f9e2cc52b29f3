package refgraph

import "github.com/go-openapi/swag/stringutils"

// frameKey identifies a (document, pointer) location currently being, or
// already, expanded — spec.md §4.7's "(docURL, pointer) frame".
type frameKey struct {
	url     string
	pointer string
}

func (k frameKey) String() string { return k.url + "#" + k.pointer }

// dereferencer builds the dereferenced tree described in spec.md §4.7. It
// tracks a stack of in-progress frames to detect circular $ref chains, a
// memo of completed frames so that two $refs to the same target produce
// reference-equal output nodes (spec.md §8 property 3), and a map of
// in-progress placeholder objects so a circular $ref can share identity
// with the partially built frame it re-enters (design note 9: "model
// nodes as entries in an arena keyed by integer ids" — here the arena key
// is frameKey and the "id" is the placeholder Object itself).
type dereferencer struct {
	catalog      *Catalog
	opts         *Options
	stack        []frameKey
	visited      map[frameKey]any
	placeholders map[frameKey]Object
}

func newDereferencer(catalog *Catalog, opts *Options) *dereferencer {
	return &dereferencer{
		catalog:      catalog,
		opts:         opts,
		visited:      make(map[frameKey]any),
		placeholders: make(map[frameKey]Object),
	}
}

// Dereference builds the dereferenced tree rooted at rootValue, which
// lives at rootLoc.
func (d *dereferencer) Dereference(rootLoc *Location, rootValue any) (any, error) {
	rootKey := frameKey{url: rootLoc.CanonicalKey(), pointer: ""}
	d.stack = []frameKey{rootKey}
	return d.derefAt(rootLoc, rootValue, "")
}

// onStack reports whether key is already being expanded, by checking its
// string form against the in-progress frame stack. The comparison runs
// through stringutils.ContainsStrings rather than a hand-rolled loop,
// matching the membership test the teacher's own schema loader uses for
// its circular-ref stack (vendor copy in the wider go-openapi ecosystem).
func (d *dereferencer) onStack(key frameKey) bool {
	frames := make([]string, len(d.stack))
	for i, f := range d.stack {
		frames[i] = f.String()
	}
	return stringutils.ContainsStrings(frames, key.String())
}

// derefAt dereferences value, which lives at pointer within docLoc's
// document, recursing into object/array children in document order.
func (d *dereferencer) derefAt(docLoc *Location, value any, pointer string) (any, error) {
	if obj, ok := value.(Object); ok {
		if refStr, isRef := asRefNode(obj); isRef {
			return d.derefRef(docLoc, obj, refStr, pointer)
		}
		out := NewObject()
		for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
			v, err := d.derefAt(docLoc, pair.Value, pointer+"/"+escapeToken(pair.Key))
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
			v, err := d.derefAt(docLoc, elem, pointer+"/"+itoa(i))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	return value, nil
}

// derefRef resolves the $ref node, handling the circular/shared-identity
// rules of spec.md §4.7.
func (d *dereferencer) derefRef(docLoc *Location, node Object, refStr string, pointer string) (any, error) {
	target, err := NewLocation(refStr, docLoc)
	if err != nil {
		return nil, err
	}
	key := frameKey{url: target.CanonicalKey(), pointer: target.Pointer()}

	if d.onStack(key) {
		d.catalog.recordCircular("#" + pointer)
		switch d.opts.Dereference.Circular {
		case CircularReject:
			return nil, &ReferenceError{URL: key.url, Pointer: key.pointer}
		case CircularIgnore:
			return node, nil
		default: // CircularShare
			if ph, ok := d.placeholders[key]; ok {
				return ph, nil
			}
			// The re-entered frame is not building an Object (e.g. it is
			// an array or scalar), so there is no in-progress node to
			// share identity with; leave the $ref in place rather than
			// fabricate a value.
			return node, nil
		}
	}
	if memo, ok := d.visited[key]; ok {
		return memo, nil
	}

	targetVal, err := d.catalog.Resolve(target)
	if err != nil {
		return nil, err
	}

	d.stack = append(d.stack, key)
	result, err := d.expandFrame(target, targetVal, key)
	d.stack = d.stack[:len(d.stack)-1]
	if err != nil {
		return nil, err
	}
	d.visited[key] = result
	return result, nil
}

// expandFrame materializes targetVal (the value found at key) into the
// output tree. Object targets get a placeholder registered before their
// fields are walked, so a cycle back into this same frame can share its
// identity (spec.md §8 property 3 and the S1 scenario).
func (d *dereferencer) expandFrame(target *Location, targetVal any, key frameKey) (any, error) {
	obj, ok := targetVal.(Object)
	if !ok {
		return d.derefAt(target, targetVal, target.Pointer())
	}
	ph := NewObject()
	d.placeholders[key] = ph
	defer delete(d.placeholders, key)

	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		v, err := d.derefAt(target, pair.Value, target.Pointer()+"/"+escapeToken(pair.Key))
		if err != nil {
			return nil, err
		}
		ph.Set(pair.Key, v)
	}
	return ph, nil
}
