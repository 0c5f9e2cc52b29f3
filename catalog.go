package refgraph

import (
	"sort"
	"sync"
)

// Status is a Document Catalog entry's lifecycle state (spec.md §3).
type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
	StatusErrored  Status = "errored"
)

// DocumentEntry is one row of the Document Catalog, keyed by its URL's
// CanonicalKey (spec.md §3 "Document entry").
type DocumentEntry struct {
	URL      *Location
	PathType PathType
	Value    any
	Status   Status
	Err      error
	// ReadCount counts how many times this URL was requested before its
	// pending read settled (SPEC_FULL.md supplemented feature 3). The root
	// entry, stored already resolved, keeps 0.
	ReadCount int
}

// Catalog is the Document Catalog: a map from canonical URL to
// DocumentEntry, plus the circular-reference bookkeeping the
// Dereferencer writes (spec.md §4.4). It is safe for concurrent use: the
// Crawler's structured-concurrency fan-out (spec.md §5) may touch it from
// multiple goroutines, but mutation is restricted to insert/status
// transitions, matching the "single shared mutable state, serialized"
// resource model.
type Catalog struct {
	mu           sync.Mutex
	entries      map[string]*DocumentEntry
	rootKey      string
	circular     bool
	circularRefs []string
}

// newCatalog builds an empty catalog.
func newCatalog() *Catalog {
	return &Catalog{entries: make(map[string]*DocumentEntry)}
}

// Exists reports whether key (a CanonicalKey) has an entry, regardless of
// its status.
func (c *Catalog) Exists(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// Get returns the parsed value stored for key, and whether the entry is
// resolved.
func (c *Catalog) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.Status != StatusResolved {
		return nil, false
	}
	return e.Value, true
}

// entry returns the entry for key, creating a pending one if it did not
// already exist, and bumps ReadCount while the entry is still pending. The
// second return reports
// whether the entry already existed — callers use this to decide whether
// they own scheduling the read.
func (c *Catalog) entry(loc *Location) (*DocumentEntry, bool) {
	key := loc.CanonicalKey()
	c.mu.Lock()
	defer c.mu.Unlock()
	e, existed := c.entries[key]
	if !existed {
		e = &DocumentEntry{URL: loc, PathType: loc.PathType(), Status: StatusPending}
		c.entries[key] = e
	}
	if e.Status == StatusPending {
		e.ReadCount++
	}
	return e, existed
}

// resolveEntry transitions a pending entry to resolved (or errored),
// storing its parsed value or failure.
func (c *Catalog) resolveEntry(key string, value any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return
	}
	if err != nil {
		e.Status = StatusErrored
		e.Err = err
		return
	}
	e.Value = value
	e.Status = StatusResolved
}

// Paths returns every canonical URL in the catalog for which filter
// returns true (or every URL, if filter is nil), in a stable sorted
// order.
func (c *Catalog) Paths(filter func(string) bool) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for key := range c.entries {
		if filter == nil || filter(key) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// Values returns a snapshot of every resolved document's parsed value,
// keyed by canonical URL, restricted by filter if non-nil
// (SPEC_FULL.md supplemented feature 1).
func (c *Catalog) Values(filter func(string) bool) map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]any)
	for key, e := range c.entries {
		if e.Status != StatusResolved {
			continue
		}
		if filter == nil || filter(key) {
			out[key] = e.Value
		}
	}
	return out
}

// Entries returns a snapshot of every DocumentEntry, for diagnostics
// (SPEC_FULL.md supplemented feature 3).
func (c *Catalog) Entries() map[string]DocumentEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]DocumentEntry, len(c.entries))
	for key, e := range c.entries {
		out[key] = *e
	}
	return out
}

// Circular reports whether the Dereferencer (the only writer of this
// flag) has recorded at least one circular reference.
func (c *Catalog) Circular() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.circular
}

// CircularRefs returns the pointer strings the Dereferencer recorded for
// each circular $ref it found.
func (c *Catalog) CircularRefs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.circularRefs))
	copy(out, c.circularRefs)
	return out
}

func (c *Catalog) recordCircular(pointer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.circular = true
	c.circularRefs = append(c.circularRefs, pointer)
}

// Resolve walks pointer into the document stored at loc's canonical URL,
// following any $ref encountered mid-path by consulting the catalog again
// (spec.md §4.4: "this is how #/a/$ref/b works transitively").
func (c *Catalog) Resolve(loc *Location) (any, error) {
	key := loc.CanonicalKey()
	root, ok := c.Get(key)
	if !ok {
		return nil, &MissingPointerError{URL: key, Pointer: loc.Pointer()}
	}
	tokens, err := decodeTokens(loc.Pointer())
	if err != nil {
		return nil, err
	}
	cur := root
	for i, tok := range tokens {
		if target, isRef := asRefNode(cur); isRef {
			next, err := c.followRef(loc, target)
			if err != nil {
				return nil, err
			}
			cur = next
		}
		nextNode, ok := getToken(cur, tok)
		if !ok {
			return nil, &MissingPointerError{URL: key, Pointer: "/" + joinTokens(tokens[:i+1])}
		}
		cur = nextNode
	}
	if target, isRef := asRefNode(cur); isRef {
		next, err := c.followRef(loc, target)
		if err == nil {
			cur = next
		}
	}
	return cur, nil
}

func (c *Catalog) followRef(base *Location, ref string) (any, error) {
	target, err := NewLocation(ref, base)
	if err != nil {
		return nil, err
	}
	return c.Resolve(target)
}

func joinTokens(tokens []string) string {
	out := ""
	for i, t := range tokens {
		if i > 0 {
			out += "/"
		}
		out += escapeToken(t)
	}
	return out
}
